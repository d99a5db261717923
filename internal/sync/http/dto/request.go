// Package dto provides data transfer objects for the record and sync HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"
)

// SessionRequest opens or closes the operator session against the remote store.
type SessionRequest struct {
	Authenticated *bool `json:"authenticated"`
}

// Validate checks if the session request is valid.
func (r *SessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Authenticated, validation.NotNil),
	)
}

// Package dto provides data transfer objects for the fiscal HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/pdvsync/internal/gateway"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// CancelQueueItemRequest contains the reason for abandoning a queue item.
type CancelQueueItemRequest struct {
	Reason string `json:"reason"`
}

// Validate checks if the cancel request is valid.
func (r *CancelQueueItemRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason,
			validation.Required,
			customValidation.NotBlank,
			validation.RuneLength(1, 500),
		),
	)
}

// CancelDocumentRequest contains the justification sent to the tax authority.
type CancelDocumentRequest struct {
	Justification string `json:"justification"`
}

// Validate checks if the cancel document request is valid.
func (r *CancelDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Justification,
			validation.Required,
			customValidation.NotBlank,
			customValidation.MinRunes(gateway.MinJustificationLength),
			validation.RuneLength(0, 255),
		),
	)
}

package domain

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// Address is a postal address as required on fiscal documents.
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	CityCode   string `json:"cityCode"`
	State      string `json:"state"`
	ZipCode    string `json:"zipCode"`
}

// IsComplete reports whether every field needed on a fiscal document is filled.
func (a Address) IsComplete() bool {
	return a.Street != "" && a.Number != "" && a.District != "" && a.City != "" &&
		a.CityCode != "" && a.State != "" && a.ZipCode != ""
}

// Validate checks formats only; completeness is checked by IsComplete.
func (a Address) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.CityCode, customValidation.Digits, validation.Length(7, 7)),
		validation.Field(&a.State, validation.Length(2, 2)),
		validation.Field(&a.ZipCode, customValidation.Digits, validation.Length(8, 8)),
	)
}

// Customer is a registered customer.
type Customer struct {
	Meta
	Name    string   `json:"name"`
	TaxID   string   `json:"taxId,omitempty"`
	Email   string   `json:"email,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Address *Address `json:"address,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// Validate checks the customer record.
func (c *Customer) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 120)),
		validation.Field(&c.TaxID, customValidation.Digits, validation.Length(11, 14)),
		validation.Field(&c.Email, customValidation.Email),
		validation.Field(&c.Address),
	)
}

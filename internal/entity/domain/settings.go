package domain

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// SettingsID is the id of the single settings record.
const SettingsID = "global"

// CompanyProfile is the issuer identity printed on fiscal documents.
type CompanyProfile struct {
	LegalName             string  `json:"legalName"`
	TradeName             string  `json:"tradeName,omitempty"`
	TaxID                 string  `json:"taxId"`
	StateRegistration     string  `json:"stateRegistration"`
	MunicipalRegistration string  `json:"municipalRegistration,omitempty"`
	TaxRegime             string  `json:"taxRegime,omitempty"`
	Address               Address `json:"address"`
}

// Validate checks formats of the fields that are present.
func (c CompanyProfile) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TaxID, customValidation.Digits, validation.Length(14, 14)),
		validation.Field(&c.StateRegistration, customValidation.NoWhitespace),
		validation.Field(&c.Address),
	)
}

// Settings holds store-wide configuration edited from the back office.
type Settings struct {
	Meta
	FiscalEnabled bool           `json:"fiscalEnabled"`
	Company       CompanyProfile `json:"company"`
}

// Validate checks the settings record.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Company),
	)
}

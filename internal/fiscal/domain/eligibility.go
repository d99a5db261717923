package domain

import (
	validation "github.com/jellydator/validation"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// Unmet emission conditions reported by CheckEligibility.
const (
	ReasonNotFinalized      = "order must be finalized"
	ReasonTotalNotPositive  = "total must be greater than zero"
	ReasonPaymentMethod     = "payment method is not recognized"
	ReasonNoItems           = "order must have at least one item"
	ReasonFiscalDisabled    = "fiscal emission is disabled for the order and globally"
	ReasonOffline           = "system is offline"
	ReasonCompanyLegalName  = "company legal name is missing"
	ReasonCompanyTaxID      = "company tax id is missing or invalid"
	ReasonStateRegistration = "company state registration is missing"
	ReasonCompanyAddress    = "company address is incomplete"
)

// Eligibility is the outcome of CheckEligibility.
type Eligibility struct {
	CanEmit bool     `json:"canEmit"`
	Reasons []string `json:"reasons"`
}

// Err returns an EligibilityError when the order cannot be emitted.
func (e Eligibility) Err() error {
	if e.CanEmit {
		return nil
	}
	return &EligibilityError{Reasons: e.Reasons}
}

// CheckEligibility evaluates every emission condition and reports all that fail.
// settings may be nil when the store has not been configured yet.
func CheckEligibility(order *entityDomain.Order, settings *entityDomain.Settings, online bool) Eligibility {
	reasons := make([]string, 0)

	if !order.Status.IsFinalized() {
		reasons = append(reasons, ReasonNotFinalized)
	}
	if !order.Total.IsPositive() {
		reasons = append(reasons, ReasonTotalNotPositive)
	}
	if !order.Payment.Method.IsRecognized() {
		reasons = append(reasons, ReasonPaymentMethod)
	}
	if len(order.Items) == 0 {
		reasons = append(reasons, ReasonNoItems)
	}

	var company entityDomain.CompanyProfile
	globalEnabled := false
	if settings != nil {
		company = settings.Company
		globalEnabled = settings.FiscalEnabled
	}
	if !order.FiscalEnabled && !globalEnabled {
		reasons = append(reasons, ReasonFiscalDisabled)
	}
	if !online {
		reasons = append(reasons, ReasonOffline)
	}
	reasons = append(reasons, companyReasons(company)...)

	return Eligibility{CanEmit: len(reasons) == 0, Reasons: reasons}
}

func companyReasons(c entityDomain.CompanyProfile) []string {
	var reasons []string
	if c.LegalName == "" {
		reasons = append(reasons, ReasonCompanyLegalName)
	}
	if validation.Validate(c.TaxID, validation.Required, customValidation.Digits, validation.Length(14, 14)) != nil {
		reasons = append(reasons, ReasonCompanyTaxID)
	}
	if c.StateRegistration == "" {
		reasons = append(reasons, ReasonStateRegistration)
	}
	if !c.Address.IsComplete() {
		reasons = append(reasons, ReasonCompanyAddress)
	}
	return reasons
}

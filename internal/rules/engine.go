// Package rules implements the per-rail business validation that runs before
// any ISO 20022 message is generated. The engine is stateless: it holds a
// closed table of rail profiles and never mutates the record it checks.
package rules

import (
	"fmt"

	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// Violation codes
const (
	CodeUnsupportedRail     = "UNSUPPORTED_RAIL"
	CodeAmountNotPositive   = "AMOUNT_NOT_POSITIVE"
	CodeAmountExceedsLimit  = "AMOUNT_EXCEEDS_LIMIT"
	CodeFieldRequired       = "FIELD_REQUIRED"
	CodeUnsupportedCurrency = "UNSUPPORTED_CURRENCY"
	CodeRemittanceTooLong   = "REMITTANCE_TOO_LONG"
	CodeUETRRequired        = "UETR_REQUIRED"
)

// Severity grades a violation
type Severity string

const (
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Violation describes one broken rule
type Violation struct {
	Code     string   `json:"code"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity,omitempty"`
}

// Result collects every violation found in a single Validate call. Valid is
// true only when Errors is empty; warnings never block a payment.
type Result struct {
	Valid    bool        `json:"valid"`
	Errors   []Violation `json:"errors"`
	Warnings []Violation `json:"warnings"`
}

// Record is the slice of a payment the engine inspects
type Record struct {
	Rail            payment.Rail
	Amount          decimal.Decimal
	Currency        string
	DebtorName      string
	DebtorAccount   string
	CreditorName    string
	CreditorAccount string
	Remittance      string
	UETR            string
}

// railProfile holds the business limits for one rail
type railProfile struct {
	MaxAmount           decimal.Decimal
	SupportedCurrencies []string
	MaxRemittanceLength int
	// RemittanceOverflowFatal upgrades an over-long remittance from a
	// warning to an error
	RemittanceOverflowFatal bool
	RequiresUETR            bool
}

// railProfiles is a closed table: rails are an enumeration, so an unknown
// rail can only appear at the validated entry boundary.
var railProfiles = map[payment.Rail]railProfile{
	payment.RailFedNow: {
		MaxAmount:           decimal.NewFromInt(500000),
		SupportedCurrencies: []string{"USD"},
		MaxRemittanceLength: 140,
	},
	payment.RailRTP: {
		MaxAmount:           decimal.NewFromInt(1000000),
		SupportedCurrencies: []string{"USD"},
		MaxRemittanceLength: 140,
	},
	payment.RailSwift: {
		MaxAmount:               decimal.RequireFromString("999999999.99"),
		SupportedCurrencies:     []string{"USD", "EUR", "GBP", "JPY"},
		MaxRemittanceLength:     9000,
		RemittanceOverflowFatal: true,
		RequiresUETR:            true,
	},
}

// MaxAmountFor returns the hard amount ceiling for a rail. The second return
// is false for unknown rails.
func MaxAmountFor(rail payment.Rail) (decimal.Decimal, bool) {
	profile, ok := railProfiles[rail]
	if !ok {
		return decimal.Decimal{}, false
	}
	return profile.MaxAmount, true
}

// Engine validates payment records against per-rail business rules
type Engine struct{}

// NewEngine creates a rail rule engine
func NewEngine() *Engine {
	return &Engine{}
}

// Validate checks the record against its rail profile. An unknown rail
// short-circuits with a single CRITICAL violation; for known rails every
// broken rule is collected so the caller can report all of them at once.
// The amount limit is boundary inclusive: an amount exactly at the rail's
// maximum is valid.
func (e *Engine) Validate(rec Record) Result {
	profile, ok := railProfiles[rec.Rail]
	if !ok {
		return Result{
			Valid: false,
			Errors: []Violation{{
				Code:     CodeUnsupportedRail,
				Field:    "rail",
				Message:  fmt.Sprintf("Unsupported payment rail: %s", rec.Rail),
				Severity: SeverityCritical,
			}},
		}
	}

	var errs, warnings []Violation

	if !rec.Amount.IsPositive() {
		errs = append(errs, Violation{
			Code:     CodeAmountNotPositive,
			Field:    "amount",
			Message:  "Amount must be greater than 0",
			Severity: SeverityCritical,
		})
	} else if rec.Amount.GreaterThan(profile.MaxAmount) {
		errs = append(errs, Violation{
			Code:     CodeAmountExceedsLimit,
			Field:    "amount",
			Message:  fmt.Sprintf("%s payment limit is %s", rec.Rail, profile.MaxAmount.StringFixed(2)),
			Severity: SeverityCritical,
		})
	}

	for _, f := range []struct{ name, value string }{
		{"debtor_name", rec.DebtorName},
		{"debtor_account", rec.DebtorAccount},
		{"creditor_name", rec.CreditorName},
		{"creditor_account", rec.CreditorAccount},
	} {
		if f.value == "" {
			errs = append(errs, Violation{
				Code:     CodeFieldRequired,
				Field:    f.name,
				Message:  fmt.Sprintf("Field %s is required", f.name),
				Severity: SeverityCritical,
			})
		}
	}

	if !contains(profile.SupportedCurrencies, rec.Currency) {
		errs = append(errs, Violation{
			Code:     CodeUnsupportedCurrency,
			Field:    "currency",
			Message:  fmt.Sprintf("Currency %s is not supported on %s", rec.Currency, rec.Rail),
			Severity: SeverityCritical,
		})
	}

	if len(rec.Remittance) > profile.MaxRemittanceLength {
		v := Violation{
			Code:    CodeRemittanceTooLong,
			Field:   "remittance",
			Message: fmt.Sprintf("Remittance information exceeds %d characters", profile.MaxRemittanceLength),
		}
		if profile.RemittanceOverflowFatal {
			v.Severity = SeverityError
			errs = append(errs, v)
		} else {
			warnings = append(warnings, v)
		}
	}

	if profile.RequiresUETR && rec.UETR == "" {
		errs = append(errs, Violation{
			Code:     CodeUETRRequired,
			Field:    "uetr",
			Message:  fmt.Sprintf("%s requires a unique end-to-end transaction reference", rec.Rail),
			Severity: SeverityCritical,
		})
	}

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// ValidationError wraps a failed Result so the full violation list travels
// with the error
type ValidationError struct {
	Violations []Violation
}

func (e ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "validation failed: " + e.Violations[0].Message
	}
	return fmt.Sprintf("validation failed with %d violations", len(e.Violations))
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

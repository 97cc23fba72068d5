// Package domain defines the insurance ledger. Policies are obligations
// whose premium recurs every thirty days; failures abort the invocation.
package domain

import (
	ledger "github.com/felixgeelhaar/autopay/internal/ledger/domain"
)

const (
	// Namespace prefixes policy storage keys and routing keys.
	Namespace = "insurance"
	// PremiumPeriodDays is the fixed premium cycle.
	PremiumPeriodDays uint32 = 30
)

// Details are the policy-specific fields of an obligation. The obligation
// amount is the monthly premium.
type Details struct {
	Name           string `json:"name"`
	CoverageType   string `json:"coverage_type"`
	CoverageAmount int64  `json:"coverage_amount"`
}

// Validate rejects policies without positive coverage.
func (d Details) Validate() error {
	if d.CoverageAmount <= 0 {
		return ledger.NewError(ledger.CodeInvalidAmount, "Coverage amount must be positive")
	}
	return nil
}

// Policy is one premium period of an insurance policy.
type Policy = ledger.Obligation[Details]

// Ledger is the insurance ledger state.
type Ledger = ledger.State[Details]

// Profile configures the engine for policies: only the owner can deactivate
// a policy, which stays on record as cancelled.
func Profile() ledger.Profile {
	return ledger.Profile{
		Namespace:           Namespace,
		Noun:                "policy",
		ErrorStyle:          ledger.StyleAbort,
		CancelMode:          ledger.CancelDeactivate,
		CancelRequiresOwner: true,
		FixedPeriodDays:     PremiumPeriodDays,
	}
}

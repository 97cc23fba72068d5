// Package domain defines the bill ledger: plain obligations whose failures
// are reported as recoverable errors.
package domain

import (
	ledger "github.com/felixgeelhaar/autopay/internal/ledger/domain"
)

// Namespace prefixes bill storage keys and routing keys.
const Namespace = "bills"

// Details are the bill-specific fields of an obligation.
type Details struct {
	Name string `json:"name"`
}

// Validate accepts every bill name, including the empty one.
func (Details) Validate() error { return nil }

// Bill is one bill in the ledger.
type Bill = ledger.Obligation[Details]

// Ledger is the bill ledger state.
type Ledger = ledger.State[Details]

// Profile configures the engine for bills. Anyone may cancel a bill, which
// removes it and orphans its schedules.
func Profile() ledger.Profile {
	return ledger.Profile{
		Namespace:           Namespace,
		Noun:                "bill",
		ErrorStyle:          ledger.StyleRecoverable,
		CancelMode:          ledger.CancelRemove,
		CancelRequiresOwner: false,
	}
}

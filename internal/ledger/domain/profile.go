package domain

import (
	"fmt"
	"strings"
)

// CancelMode selects what cancelling an obligation does to its record.
type CancelMode string

const (
	// CancelRemove deletes the record, orphaning any schedule that drives it.
	CancelRemove CancelMode = "remove"
	// CancelDeactivate keeps the record with status Cancelled.
	CancelDeactivate CancelMode = "deactivate"
)

// Profile parameterizes the engine for one obligation variant.
type Profile struct {
	// Namespace prefixes storage keys, routing keys and aggregate types.
	Namespace string
	// Noun names one obligation in messages, e.g. "bill" or "policy".
	Noun       string
	ErrorStyle ErrorStyle
	CancelMode CancelMode
	// CancelRequiresOwner gates obligation cancellation on ownership.
	CancelRequiresOwner bool
	// FixedPeriodDays forces every obligation to recur with this period.
	// Zero lets callers choose recurring and frequency themselves.
	FixedPeriodDays uint32
}

// Validate reports configuration mistakes.
func (p Profile) Validate() error {
	if p.Namespace == "" {
		return fmt.Errorf("profile namespace is required")
	}
	if p.Noun == "" {
		return fmt.Errorf("profile noun is required")
	}
	switch p.ErrorStyle {
	case StyleRecoverable, StyleAbort:
	default:
		return fmt.Errorf("unknown error style: %q", p.ErrorStyle)
	}
	switch p.CancelMode {
	case CancelRemove, CancelDeactivate:
	default:
		return fmt.Errorf("unknown cancel mode: %q", p.CancelMode)
	}
	return nil
}

// Title returns the noun with an upper-case first letter.
func (p Profile) Title() string {
	if p.Noun == "" {
		return ""
	}
	return strings.ToUpper(p.Noun[:1]) + p.Noun[1:]
}

// RoutingKey builds "<namespace>.<aggregate>.<event>".
func (p Profile) RoutingKey(aggregate, event string) string {
	return p.Namespace + "." + aggregate + "." + event
}

// AggregateType builds "<namespace>.<aggregate>".
func (p Profile) AggregateType(aggregate string) string {
	return p.Namespace + "." + aggregate
}

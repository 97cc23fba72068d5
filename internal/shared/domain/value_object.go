package domain

import "strings"

// ValueObject represents an immutable domain concept defined by its attributes.
type ValueObject interface {
	Equals(other ValueObject) bool
}

// Principal identifies the party that controls a ledger record.
type Principal struct {
	value string
}

// NewPrincipal creates a Principal, trimming surrounding whitespace.
func NewPrincipal(value string) Principal {
	return Principal{value: strings.TrimSpace(value)}
}

// String returns the string representation of the Principal.
func (p Principal) String() string {
	return p.value
}

// Equals checks if two Principals are equal.
func (p Principal) Equals(other ValueObject) bool {
	if otherPrincipal, ok := other.(Principal); ok {
		return p.value == otherPrincipal.value
	}
	return false
}

// IsEmpty returns true if the Principal is empty.
func (p Principal) IsEmpty() bool {
	return p.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	p.value = string(text)
	return nil
}

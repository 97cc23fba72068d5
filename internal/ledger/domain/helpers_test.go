package domain

import (
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
)

type testDetails struct {
	Name     string `json:"name"`
	Coverage int64  `json:"coverage"`
}

func (d testDetails) Validate() error {
	if d.Coverage < 0 {
		return NewError(CodeInvalidAmount, "coverage amount must be positive")
	}
	return nil
}

var (
	alice = sharedDomain.NewPrincipal("GALICE")
	bob   = sharedDomain.NewPrincipal("GBOB")
)

func billProfile() Profile {
	return Profile{
		Namespace:           "bills",
		Noun:                "bill",
		ErrorStyle:          StyleRecoverable,
		CancelMode:          CancelRemove,
		CancelRequiresOwner: false,
	}
}

func policyProfile() Profile {
	return Profile{
		Namespace:           "insurance",
		Noun:                "policy",
		ErrorStyle:          StyleAbort,
		CancelMode:          CancelDeactivate,
		CancelRequiresOwner: true,
		FixedPeriodDays:     30,
	}
}

func newBills() *State[testDetails] {
	return NewState[testDetails](billProfile())
}

func routingKeys(s *State[testDetails]) []string {
	keys := make([]string, 0, len(s.DomainEvents()))
	for _, e := range s.DomainEvents() {
		keys = append(keys, e.RoutingKey())
	}
	return keys
}

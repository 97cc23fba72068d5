package commands

import (
	"testing"
	"time"

	ledgerApp "github.com/felixgeelhaar/autopay/internal/ledger/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/outbox"
)

type itemDetails struct {
	Label string `json:"label"`
}

func (itemDetails) Validate() error { return nil }

var (
	alice = sharedDomain.NewPrincipal("GALICE")
	bob   = sharedDomain.NewPrincipal("GBOB")
	t0    = time.Unix(1_700_000_000, 0).UTC()
)

const day = uint64(86400)

type harness struct {
	clock   *services.FixedClock
	store   *persistence.MemoryStore
	outbox  *outbox.InMemoryRepository
	invoker *ledgerApp.Invoker[itemDetails]
}

func newHarness(t *testing.T, profile domain.Profile) *harness {
	t.Helper()
	store := persistence.NewMemoryStore()
	outboxRepo := outbox.NewInMemoryRepository()
	clock := services.NewFixedClock(t0)
	repo := persistence.NewKVStateRepository[itemDetails](store, profile, persistence.DefaultLeasePolicy())
	return &harness{
		clock:   clock,
		store:   store,
		outbox:  outboxRepo,
		invoker: ledgerApp.NewInvoker[itemDetails](repo, outboxRepo, store.UnitOfWork(), clock, nil),
	}
}

func (h *harness) now() uint64 {
	return services.LedgerSeconds(h.clock)
}

type stateQuery struct{}

func (stateQuery) QueryName() string { return "state" }

func (h *harness) state(t *testing.T) *domain.State[itemDetails] {
	t.Helper()
	var snapshot *domain.State[itemDetails]
	if err := h.invoker.Read(t.Context(), stateQuery{}, func(s *domain.State[itemDetails], _ uint64) error {
		snapshot = s
		return nil
	}); err != nil {
		t.Fatalf("read state: %v", err)
	}
	return snapshot
}

func billsProfile() domain.Profile {
	return domain.Profile{
		Namespace:  "bills",
		Noun:       "bill",
		ErrorStyle: domain.StyleRecoverable,
		CancelMode: domain.CancelRemove,
	}
}

func policiesProfile() domain.Profile {
	return domain.Profile{
		Namespace:           "insurance",
		Noun:                "policy",
		ErrorStyle:          domain.StyleAbort,
		CancelMode:          domain.CancelDeactivate,
		CancelRequiresOwner: true,
		FixedPeriodDays:     30,
	}
}

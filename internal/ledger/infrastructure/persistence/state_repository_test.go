package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteDetails struct {
	Note string `json:"note"`
}

func (noteDetails) Validate() error { return nil }

var testProfile = domain.Profile{
	Namespace:  "bills",
	Noun:       "bill",
	ErrorStyle: domain.StyleRecoverable,
	CancelMode: domain.CancelRemove,
}

func TestKVStateRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewKVStateRepository[noteDetails](store, testProfile, DefaultLeasePolicy())
	owner := sharedDomain.NewPrincipal("GALICE")

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Obligations())
	assert.Empty(t, empty.Schedules())

	state := domain.NewState[noteDetails](testProfile)
	id, err := state.CreateObligation(owner, 700, 5000, true, 7, noteDetails{Note: "water"}, 100)
	require.NoError(t, err)
	schID, err := state.CreateSchedule(owner, id, 5000, 604800, 100)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, state))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Snapshot(), loaded.Snapshot())
	linked, ok := loaded.LinkedObligation(schID)
	require.True(t, ok)
	assert.Equal(t, id, linked)

	raw, ok, err := store.Get(ctx, "bills:NEXT_OBL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(raw))
}

func TestKVStateRepository_Keys(t *testing.T) {
	repo := NewKVStateRepository[noteDetails](NewMemoryStore(), testProfile, LeasePolicy{})

	assert.Equal(t, []string{"bills:OBLIGATIONS", "bills:SCHEDULES", "bills:NEXT_OBL", "bills:NEXT_SCH"}, repo.Keys())
}

func TestKVStateRepository_ExtendLease(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	repo := NewKVStateRepository[noteDetails](store, testProfile, DefaultLeasePolicy())

	require.NoError(t, repo.Save(ctx, domain.NewState[noteDetails](testProfile)))
	require.NoError(t, repo.ExtendLease(ctx))

	for _, key := range repo.Keys() {
		assert.Equal(t, now.Add(720*time.Hour), store.LeaseExpiry(key), key)
	}
}

func TestKVStateRepository_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "bills:SCHEDULES", []byte("{not json")))
	repo := NewKVStateRepository[noteDetails](store, testProfile, LeasePolicy{})

	_, err := repo.Load(ctx)

	assert.ErrorContains(t, err, "decode bills:SCHEDULES")
}

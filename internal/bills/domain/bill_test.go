package domain

import (
	"testing"

	ledger "github.com/felixgeelhaar/autopay/internal/ledger/domain"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	p := Profile()

	require.NoError(t, p.Validate())
	assert.Equal(t, "bills", p.Namespace)
	assert.Equal(t, ledger.StyleRecoverable, p.ErrorStyle)
	assert.Equal(t, "Bill", p.Title())
	assert.False(t, p.CancelRequiresOwner)
}

func TestBillLedger_ErrorCodes(t *testing.T) {
	owner := sharedDomain.NewPrincipal("GOWNER")
	l := ledger.NewState[Details](Profile())

	_, err := l.CreateObligation(owner, 0, 100, false, 0, Details{Name: "Water"}, 10)
	var ledgerErr *ledger.Error
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, ledger.Code(3), ledgerErr.Code)

	_, err = l.CreateObligation(owner, 10, 100, true, 0, Details{Name: "Water"}, 10)
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, ledger.Code(4), ledgerErr.Code)

	_, err = l.FulfillObligation(owner, 1, 10)
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, ledger.Code(1), ledgerErr.Code)
	assert.Equal(t, "Bill not found (code 1)", err.Error())
}

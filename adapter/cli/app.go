package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	billsApp "github.com/felixgeelhaar/autopay/internal/bills/application"
	insuranceApp "github.com/felixgeelhaar/autopay/internal/insurance/application"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/commands"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/queries"
	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/ledger/domain"
	"github.com/felixgeelhaar/autopay/internal/ledger/infrastructure/auth"
	sharedDomain "github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

// ErrUnknownLedger is returned for a --ledger value no service answers to.
var ErrUnknownLedger = errors.New("unknown ledger")

// ScheduleService is the part of a ledger service the schedule and sweep
// commands drive. Both the bills and the insurance service satisfy it.
type ScheduleService interface {
	Namespace() string
	CreateSchedule(ctx context.Context, owner sharedDomain.Principal, id domain.ObligationID, nextDue, interval uint64) (domain.ScheduleID, error)
	ModifySchedule(ctx context.Context, caller sharedDomain.Principal, id domain.ScheduleID, nextDue, interval uint64) error
	CancelSchedule(ctx context.Context, caller sharedDomain.Principal, id domain.ScheduleID) error
	Schedule(ctx context.Context, id domain.ScheduleID) (*queries.ScheduleDTO, error)
	Schedules(ctx context.Context, owner sharedDomain.Principal) ([]queries.ScheduleDTO, error)
	DueSchedules(ctx context.Context) ([]queries.ScheduleDTO, error)
	ExecuteDueSchedules(ctx context.Context, caller sharedDomain.Principal) (*commands.SweepResult, error)
}

// Authenticator resolves a credential for one ledger.
type Authenticator interface {
	Authenticate(ctx context.Context, ledger, credential string) (sharedDomain.Principal, error)
}

// App holds the CLI application dependencies.
type App struct {
	Bills     *billsApp.Service
	Insurance *insuranceApp.Service

	Auth        Authenticator
	TokenIssuer *auth.TokenIssuer
	TokenTTL    time.Duration

	// Clock is the clock every ledger invocation of this process reads.
	// sweep --at moves it.
	Clock *services.FixedClock

	// DefaultCredential is used when neither --as nor --token is given.
	DefaultCredential string

	// Flush relays events recorded by the command. May be nil.
	Flush func(ctx context.Context) error

	// Health probes the storage backend and broker. May be nil.
	Health *observability.HealthRegistry
}

// NewApp creates a new CLI application with the provided services.
func NewApp(bills *billsApp.Service, insurance *insuranceApp.Service, authenticator Authenticator, clock *services.FixedClock) *App {
	return &App{
		Bills:     bills,
		Insurance: insurance,
		Auth:      authenticator,
		Clock:     clock,
		TokenTTL:  24 * time.Hour,
	}
}

// Ledgers returns the schedule services keyed by namespace.
func (a *App) Ledgers() map[string]ScheduleService {
	ledgers := make(map[string]ScheduleService, 2)
	if a.Bills != nil {
		ledgers[a.Bills.Namespace()] = a.Bills
	}
	if a.Insurance != nil {
		ledgers[a.Insurance.Namespace()] = a.Insurance
	}
	return ledgers
}

// LedgerNames lists the hosted namespaces in sorted order.
func (a *App) LedgerNames() []string {
	ledgers := a.Ledgers()
	names := make([]string, 0, len(ledgers))
	for name := range ledgers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ledger looks up the schedule service for a namespace.
func (a *App) Ledger(name string) (ScheduleService, error) {
	svc, ok := a.Ledgers()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLedger, name)
	}
	return svc, nil
}

// Caller resolves the principal the current command acts for on ledger.
func (a *App) Caller(ctx context.Context, ledger string) (sharedDomain.Principal, error) {
	credential := a.DefaultCredential
	switch {
	case authToken != "":
		credential = authToken
	case asPrincipal != "":
		credential = asPrincipal
	}
	if a.Auth == nil {
		p := sharedDomain.NewPrincipal(credential)
		if p.IsEmpty() {
			return p, services.ErrUnauthenticated
		}
		return p, nil
	}
	p, err := a.Auth.Authenticate(ctx, ledger, credential)
	if err != nil {
		return sharedDomain.Principal{}, fmt.Errorf("%w (set --as, --token or AUTOPAY_PRINCIPAL)", err)
	}
	return p, nil
}

// Now returns the current ledger time in seconds.
func (a *App) Now() uint64 {
	if a.Clock == nil {
		return services.LedgerSeconds(services.SystemClock{})
	}
	return services.LedgerSeconds(a.Clock)
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// SetCredentials overrides the --as and --token flags. Tests use it to
// switch callers between command runs.
func SetCredentials(principal, token string) {
	asPrincipal = principal
	authToken = token
}

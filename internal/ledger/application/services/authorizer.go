package services

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/autopay/internal/shared/domain"
)

// ErrUnauthenticated is returned when a credential does not identify a principal.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authorizer resolves the principal an invocation acts for.
type Authorizer interface {
	Authenticate(ctx context.Context, credential string) (domain.Principal, error)
}

// LocalAuthorizer trusts the credential as the principal itself. It serves
// single-user installs where the operator is the only caller.
type LocalAuthorizer struct{}

func (LocalAuthorizer) Authenticate(_ context.Context, credential string) (domain.Principal, error) {
	p := domain.NewPrincipal(credential)
	if p.IsEmpty() {
		return domain.Principal{}, ErrUnauthenticated
	}
	return p, nil
}

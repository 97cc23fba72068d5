// Package auth resolves callers from signed bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/autopay/internal/ledger/application/services"
	"github.com/felixgeelhaar/autopay/internal/shared/domain"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is the issuer stamped on tokens when none is configured.
const DefaultIssuer = "autopay"

var ErrMissingSecret = errors.New("token secret is required")

// Claims are the JWT claims of an autopay caller. The subject is the
// principal the caller acts for.
type Claims struct {
	jwt.RegisteredClaims
	Ledgers []string `json:"ledgers,omitempty"`
}

// TokenIssuer signs caller tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	clock  services.Clock
}

// NewTokenIssuer creates an issuer. An empty issuer falls back to DefaultIssuer.
func NewTokenIssuer(secret, issuer string, clock services.Clock) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, clock: clock}, nil
}

// Issue creates a token for principal valid for ttl. Ledgers restricts the
// token to the named ledger namespaces; none means all of them.
func (i *TokenIssuer) Issue(principal domain.Principal, ttl time.Duration, ledgers ...string) (string, error) {
	if principal.IsEmpty() {
		return "", services.ErrUnauthenticated
	}
	now := i.clock.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Ledgers: ledgers,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// TokenAuthorizer authenticates callers by validating their bearer token.
type TokenAuthorizer struct {
	secret []byte
	issuer string
	ledger string
	clock  services.Clock
}

// NewTokenAuthorizer creates an authorizer for the ledger with the given
// namespace. Tokens scoped to other ledgers are rejected.
func NewTokenAuthorizer(secret, issuer, ledger string, clock services.Clock) (*TokenAuthorizer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &TokenAuthorizer{secret: []byte(secret), issuer: issuer, ledger: ledger, clock: clock}, nil
}

// Authenticate implements services.Authorizer.
func (a *TokenAuthorizer) Authenticate(_ context.Context, credential string) (domain.Principal, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, a.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", services.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Principal{}, services.ErrUnauthenticated
	}
	if !claims.allows(a.ledger) {
		return domain.Principal{}, fmt.Errorf("%w: token not valid for ledger %q", services.ErrUnauthenticated, a.ledger)
	}

	principal := domain.NewPrincipal(claims.Subject)
	if principal.IsEmpty() {
		return domain.Principal{}, fmt.Errorf("%w: token has no subject", services.ErrUnauthenticated)
	}
	return principal, nil
}

func (a *TokenAuthorizer) key(*jwt.Token) (any, error) {
	return a.secret, nil
}

func (c *Claims) allows(ledger string) bool {
	if len(c.Ledgers) == 0 || ledger == "" {
		return true
	}
	for _, l := range c.Ledgers {
		if l == ledger {
			return true
		}
	}
	return false
}

package web

import (
	"context"
	"net/http"
	"strings"

	"chorus/internal/fault"
	"chorus/internal/store"
)

// AccountSource resolves secrets to accounts. Satisfied by *store.Store;
// authentication runs on the request goroutine, before any message crosses
// to the worker pool.
type AccountSource interface {
	AccountForKeySecret(ctx context.Context, secret string) (*store.Account, error)
	AccountForSessionSecret(ctx context.Context, secret string) (*store.Account, error)
}

// Authenticator extracts a principal from a request. A nil account with a
// nil error means the request carried no credentials this authenticator
// understands; the next one in the chain gets a look.
type Authenticator interface {
	Authenticate(r *http.Request) (*store.Account, error)
}

// KeyAuthenticator accepts API clients presenting a bearer key.
type KeyAuthenticator struct {
	Accounts AccountSource
}

func (a *KeyAuthenticator) Authenticate(r *http.Request) (*store.Account, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, nil
	}
	secret := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if secret == "" {
		return nil, fault.ErrUnauthorized
	}
	account, err := a.Accounts.AccountForKeySecret(r.Context(), secret)
	if err != nil {
		return nil, fault.Wrap(err, "Error looking up account key")
	}
	if account == nil {
		return nil, fault.ErrUnauthorized
	}
	return account, nil
}

// SessionAuthenticator accepts browser clients presenting a session cookie.
type SessionAuthenticator struct {
	Accounts   AccountSource
	CookieName string
}

func (a *SessionAuthenticator) Authenticate(r *http.Request) (*store.Account, error) {
	cookie, err := r.Cookie(a.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	account, err := a.Accounts.AccountForSessionSecret(r.Context(), cookie.Value)
	if err != nil {
		return nil, fault.Wrap(err, "Error looking up account session")
	}
	if account == nil {
		return nil, fault.ErrUnauthorized
	}
	return account, nil
}

// StaticAuthenticator vouches for every request as a fixed account. Wired
// in by tests; never part of the production chain.
type StaticAuthenticator struct {
	Account *store.Account
}

func (a *StaticAuthenticator) Authenticate(r *http.Request) (*store.Account, error) {
	return a.Account, nil
}

// authenticate walks the chain in order. The first authenticator that
// recognizes the request decides the outcome; a request nobody recognizes
// is unauthorized.
func authenticate(r *http.Request, chain []Authenticator) (*store.Account, error) {
	for _, auth := range chain {
		account, err := auth.Authenticate(r)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}
	return nil, fault.ErrUnauthorized
}

// ABOUTME: Account list operations over persisted session state
// ABOUTME: Switch and remove accounts, and inspect stored token expiry

package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2389/skystate/internal/persisted"
)

// ErrAccountNotFound is returned when no stored account has the requested DID
var ErrAccountNotFound = errors.New("account not found")

// Service manages accounts in a persisted store.
type Service struct {
	store  *persisted.Store
	logger *slog.Logger
}

// NewService creates a session service. Pass nil logger for default.
func NewService(store *persisted.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "session"),
	}
}

// Accounts returns the stored accounts in order.
func (s *Service) Accounts() []persisted.Account {
	return s.store.Get().Session.Accounts
}

// CurrentAccount returns the signed-in account, or nil when signed out.
func (s *Service) CurrentAccount() *persisted.Account {
	return s.store.Get().Session.CurrentAccount
}

// SwitchAccount makes the stored account with the given DID current.
func (s *Service) SwitchAccount(ctx context.Context, did string) error {
	if !s.has(did) {
		return ErrAccountNotFound
	}
	err := s.store.Update(ctx, func(state *persisted.Schema) {
		i := slices.IndexFunc(state.Session.Accounts, matchDID(did))
		if i < 0 {
			return
		}
		acct := state.Session.Accounts[i]
		state.Session.CurrentAccount = &acct
	})
	if err != nil {
		return err
	}
	s.logger.Info("switched account", "did", did)
	return nil
}

// RemoveAccount forgets the account with the given DID. If it was the
// current account, the user is signed out.
func (s *Service) RemoveAccount(ctx context.Context, did string) error {
	cur := s.CurrentAccount()
	if !s.has(did) && (cur == nil || cur.DID != did) {
		return ErrAccountNotFound
	}
	err := s.store.Update(ctx, func(state *persisted.Schema) {
		state.Session.Accounts = slices.DeleteFunc(state.Session.Accounts, matchDID(did))
		if cur := state.Session.CurrentAccount; cur != nil && cur.DID == did {
			state.Session.CurrentAccount = nil
		}
	})
	if err != nil {
		return err
	}
	s.logger.Info("removed account", "did", did)
	return nil
}

func (s *Service) has(did string) bool {
	return slices.ContainsFunc(s.Accounts(), matchDID(did))
}

func matchDID(did string) func(persisted.Account) bool {
	return func(a persisted.Account) bool {
		return a.DID == did
	}
}

// TokenState describes a stored token.
type TokenState string

// TokenState values
const (
	TokenMissing   TokenState = "missing"
	TokenMalformed TokenState = "malformed"
	TokenNoExpiry  TokenState = "no_expiry"
	TokenValid     TokenState = "valid"
	TokenExpired   TokenState = "expired"
)

// TokenInfo is the result of inspecting one token.
type TokenInfo struct {
	State     TokenState
	ExpiresAt time.Time // zero unless State is valid or expired
}

// TokenStatus describes an account's stored tokens.
type TokenStatus struct {
	Access  TokenInfo
	Refresh TokenInfo
}

// NeedsLogin reports whether the account can no longer resume its session:
// the refresh token is not usable.
func (ts TokenStatus) NeedsLogin() bool {
	return ts.Refresh.State != TokenValid && ts.Refresh.State != TokenNoExpiry
}

// Inspect reports the expiry of an account's access and refresh tokens as of now.
func Inspect(account persisted.Account, now time.Time) TokenStatus {
	return TokenStatus{
		Access:  inspectToken(account.AccessJwt, now),
		Refresh: inspectToken(account.RefreshJwt, now),
	}
}

func inspectToken(raw string, now time.Time) TokenInfo {
	if raw == "" {
		return TokenInfo{State: TokenMissing}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{State: TokenMalformed}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{State: TokenMalformed}
	}
	if exp == nil {
		return TokenInfo{State: TokenNoExpiry}
	}
	if !now.Before(exp.Time) {
		return TokenInfo{State: TokenExpired, ExpiresAt: exp.Time}
	}
	return TokenInfo{State: TokenValid, ExpiresAt: exp.Time}
}

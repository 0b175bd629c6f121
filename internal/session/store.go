// Package session owns "who is acting": the signed-in user, the bearer
// token and their persisted copies.  Exactly one Store exists per
// storefront process; the UI bridge and the other stores receive it by
// injection.
//
// The user and the token are always present together.  Every path that
// sets one sets the other, and every teardown clears both, in memory and
// in the persisted state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/repository"
	"github.com/iliyamo/jewelry-storefront/internal/utils"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("not signed in")

// Reason says why the UI should send the user to the sign-in surface.
type Reason string

const (
	ReasonLogout     Reason = "logout"
	ReasonRevoked    Reason = "revoked"    // backend answered 401/403
	ReasonRegistered Reason = "registered" // account created, explicit login needed
)

// Backend is the part of the gateway the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (model.User, error)
	Signup(ctx context.Context, name, email, password string) (gateway.SignupResult, error)
	UpdateMe(ctx context.Context, upd gateway.ProfileUpdate) (model.User, error)
	OnInvalidate(h gateway.InvalidationHook)
}

// SignupResult tells the caller whether the new account is already
// signed in.  SignInRequired is true when the backend issued no token.
type SignupResult struct {
	User           model.User `json:"user"`
	SignInRequired bool       `json:"signInRequired"`
}

// Snapshot is a consistent read of the session.  The token itself is
// never part of it.
type Snapshot struct {
	Authenticated  bool        `json:"authenticated"`
	User           *model.User `json:"user,omitempty"`
	TokenExpiresAt *time.Time  `json:"tokenExpiresAt,omitempty"`
}

type Store struct {
	backend Backend
	state   repository.StateStore
	log     *zap.Logger

	mu    sync.RWMutex
	user  *model.User
	token string
	info  utils.TokenInfo

	lmu      sync.Mutex
	onAuth   []func(context.Context, model.User)
	onSignIn []func(context.Context, Reason)
}

// New builds an anonymous store and registers its teardown with the
// gateway, so a 401 or 403 on any request signs the user out.
func New(backend Backend, state repository.StateStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{backend: backend, state: state, log: logger.Named("session")}
	backend.OnInvalidate(func(ctx context.Context, status int) {
		s.log.Info("backend rejected credential", zap.Int("status", status))
		s.teardown(ctx, ReasonRevoked)
	})
	return s
}

// OnAuthenticated registers fn to run after every successful sign-in.
func (s *Store) OnAuthenticated(fn func(context.Context, model.User)) {
	s.lmu.Lock()
	s.onAuth = append(s.onAuth, fn)
	s.lmu.Unlock()
}

// OnSignInRequired registers fn to run whenever the session ends or a new
// account needs an explicit login.
func (s *Store) OnSignInRequired(fn func(context.Context, Reason)) {
	s.lmu.Lock()
	s.onSignIn = append(s.onSignIn, fn)
	s.lmu.Unlock()
}

// Restore loads the persisted token and user snapshot.  When both are
// present the session is authenticated without asking the backend; a
// revoked token is discovered by the first request that gets a 401.  A
// lone token or a lone snapshot leaves the session anonymous.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.read(ctx, repository.KeyToken)
	if err != nil {
		return err
	}
	raw, err := s.read(ctx, repository.KeyUser)
	if err != nil {
		return err
	}
	if token == "" || raw == "" {
		if token != "" || raw != "" {
			s.log.Warn("persisted session incomplete, staying anonymous",
				zap.Bool("has_token", token != ""), zap.Bool("has_user", raw != ""))
		}
		return nil
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Warn("persisted user snapshot unreadable, staying anonymous", zap.Error(err))
		return nil
	}

	info, _ := utils.InspectToken(token)
	if info.Expired(time.Now()) {
		s.log.Info("restored token is past its exp claim", zap.Time("exp", info.ExpiresAt))
	}
	s.mu.Lock()
	s.user, s.token, s.info = &u, token, info
	s.mu.Unlock()
	s.log.Info("session restored", zap.String("user_id", u.ID))
	return nil
}

func (s *Store) read(ctx context.Context, key string) (string, error) {
	v, err := s.state.Get(ctx, key)
	if errors.Is(err, repository.ErrStateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: read %s: %w", key, err)
	}
	return v, nil
}

// Login exchanges credentials for a token, fetches the profile with that
// token and only then commits both.  Bad credentials come back as
// gateway.ErrInvalidCredentials with the backend's message.
func (s *Store) Login(ctx context.Context, email, password string) (model.User, error) {
	token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.backend.Me(ctx, token)
	if err != nil {
		return model.User{}, err
	}
	if err := s.establish(ctx, token, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Signup creates an account.  The backend normally issues no token on
// signup, in which case the session stays anonymous and the caller must
// route to sign-in.  If a token does come back the account is signed in.
func (s *Store) Signup(ctx context.Context, name, email, password string) (SignupResult, error) {
	res, err := s.backend.Signup(ctx, name, email, password)
	if err != nil {
		return SignupResult{}, err
	}
	if res.Token == "" {
		s.notifySignIn(ctx, ReasonRegistered)
		return SignupResult{User: res.User, SignInRequired: true}, nil
	}
	u, err := s.backend.Me(ctx, res.Token)
	if err != nil {
		return SignupResult{}, err
	}
	if err := s.establish(ctx, res.Token, u); err != nil {
		return SignupResult{}, err
	}
	return SignupResult{User: u}, nil
}

// establish persists token and user, then publishes them in memory.  If
// persisting fails the in-memory session is unchanged and the persisted
// keys are put back to match it.
func (s *Store) establish(ctx context.Context, token string, u model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	info, _ := utils.InspectToken(token)

	s.mu.Lock()
	if err := s.state.Set(ctx, repository.KeyToken, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session: persist token: %w", err)
	}
	if err := s.state.Set(ctx, repository.KeyUser, string(raw)); err != nil {
		s.rollbackToken(context.WithoutCancel(ctx))
		s.mu.Unlock()
		return fmt.Errorf("session: persist user: %w", err)
	}
	s.user, s.token, s.info = &u, token, info
	s.mu.Unlock()

	s.log.Info("signed in", zap.String("user_id", u.ID), zap.String("role", u.Role))
	s.lmu.Lock()
	fns := slices.Clone(s.onAuth)
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(ctx, u)
	}
	return nil
}

// rollbackToken restores the persisted token of the session still held in
// memory, or removes it when there is none.  Callers hold mu.
func (s *Store) rollbackToken(ctx context.Context) {
	var err error
	if s.token != "" && s.user != nil {
		err = s.state.Set(ctx, repository.KeyToken, s.token)
	} else {
		err = s.state.Delete(ctx, repository.KeyToken, repository.KeyUser)
	}
	if err != nil {
		s.log.Error("roll back persisted token", zap.Error(err))
	}
}

// Logout clears the persisted and in-memory session.  Calling it while
// already signed out is a no-op that still succeeds.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.state.Delete(ctx, repository.KeyToken, repository.KeyUser); err != nil {
		s.clear()
		return fmt.Errorf("session: clear persisted state: %w", err)
	}
	if s.clear() {
		s.log.Info("signed out")
		s.notifySignIn(ctx, ReasonLogout)
	}
	return nil
}

// teardown runs after the gateway already removed the persisted keys.
func (s *Store) teardown(ctx context.Context, reason Reason) {
	s.clear()
	s.notifySignIn(ctx, reason)
}

// clear drops the in-memory session and reports whether one existed.
func (s *Store) clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != "" || s.user != nil
	s.user, s.token, s.info = nil, "", utils.TokenInfo{}
	return had
}

func (s *Store) notifySignIn(ctx context.Context, reason Reason) {
	s.lmu.Lock()
	fns := slices.Clone(s.onSignIn)
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(ctx, reason)
	}
}

// UpdateProfile sends a partial profile edit.  The session user changes
// only after the backend accepted it and the new snapshot is persisted.
func (s *Store) UpdateProfile(ctx context.Context, upd gateway.ProfileUpdate) (model.User, error) {
	cur, ok := s.User()
	if !ok {
		return model.User{}, ErrNotAuthenticated
	}
	if upd.Empty() {
		return cur, nil
	}
	u, err := s.backend.UpdateMe(ctx, upd)
	if err != nil {
		return model.User{}, err
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return model.User{}, fmt.Errorf("session: encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// signed out while the request was in flight
	if s.token == "" {
		return model.User{}, ErrNotAuthenticated
	}
	if err := s.state.Set(ctx, repository.KeyUser, string(raw)); err != nil {
		return model.User{}, fmt.Errorf("session: persist user: %w", err)
	}
	s.user = &u
	return u, nil
}

// User returns the signed-in user and true, or false when anonymous.
func (s *Store) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// TokenInfo is the unverified content of the current token, if it is a JWT.
func (s *Store) TokenInfo() utils.TokenInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.token == "" {
		return Snapshot{}
	}
	u := *s.user
	snap := Snapshot{Authenticated: true, User: &u}
	if !s.info.ExpiresAt.IsZero() {
		exp := s.info.ExpiresAt
		snap.TokenExpiresAt = &exp
	}
	return snap
}

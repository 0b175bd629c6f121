// Package addressbook keeps the signed-in user's saved addresses.  The
// backend owns the list; this store mirrors it and changes its copy only
// after the backend accepted a mutation.
package addressbook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/session"
)

var ErrInvalidAddress = errors.New("invalid address")

type Backend interface {
	ListAddresses(ctx context.Context) ([]model.Address, error)
	CreateAddress(ctx context.Context, a model.Address) (model.Address, error)
	UpdateAddress(ctx context.Context, a model.Address) (model.Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

type Identity interface {
	Authenticated() bool
}

type Store struct {
	backend  Backend
	identity Identity
	log      *zap.Logger

	mu    sync.RWMutex
	items []model.Address
}

func New(backend Backend, identity Identity, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, identity: identity, log: logger.Named("addressbook")}
}

func (s *Store) requireSession() error {
	if !s.identity.Authenticated() {
		return session.ErrNotAuthenticated
	}
	return nil
}

func validate(a model.Address) error {
	if missing := a.Shipping().Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}
	return nil
}

// Load replaces the local list with the backend's.
func (s *Store) Load(ctx context.Context) ([]model.Address, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	list, err := s.backend.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.items = list
	s.mu.Unlock()
	return append([]model.Address(nil), list...), nil
}

func (s *Store) Create(ctx context.Context, a model.Address) (model.Address, error) {
	if err := s.requireSession(); err != nil {
		return model.Address{}, err
	}
	if err := validate(a); err != nil {
		return model.Address{}, err
	}
	saved, err := s.backend.CreateAddress(ctx, a)
	if err != nil {
		return model.Address{}, err
	}
	s.mu.Lock()
	s.items = append(s.items, saved)
	s.settleDefault(saved)
	s.mu.Unlock()
	return saved, nil
}

func (s *Store) Update(ctx context.Context, a model.Address) (model.Address, error) {
	if err := s.requireSession(); err != nil {
		return model.Address{}, err
	}
	if a.ID == "" {
		return model.Address{}, fmt.Errorf("%w: id is required", ErrInvalidAddress)
	}
	if err := validate(a); err != nil {
		return model.Address{}, err
	}
	saved, err := s.backend.UpdateAddress(ctx, a)
	if err != nil {
		return model.Address{}, err
	}
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == saved.ID {
			s.items[i] = saved
		}
	}
	s.settleDefault(saved)
	s.mu.Unlock()
	return saved, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if err := s.backend.DeleteAddress(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	out := s.items[:0:0]
	for _, a := range s.items {
		if a.ID != id {
			out = append(out, a)
		}
	}
	s.items = out
	s.mu.Unlock()
	return nil
}

// settleDefault keeps at most one default: a saved default demotes the
// others.  Caller holds s.mu.
func (s *Store) settleDefault(saved model.Address) {
	if !saved.IsDefault {
		return
	}
	for i := range s.items {
		if s.items[i].ID != saved.ID {
			s.items[i].IsDefault = false
		}
	}
}

func (s *Store) Addresses() []model.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Address{}, s.items...)
}

// Default returns the default address, or the first one when none is
// flagged.
func (s *Store) Default() (model.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.items {
		if a.IsDefault {
			return a, true
		}
	}
	if len(s.items) > 0 {
		return s.items[0], true
	}
	return model.Address{}, false
}

// Reset forgets the list; wired to session sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	s.log.Debug("address book cleared")
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/store"
	"tfashion-storefront/internal/task"
)

// Service owns the current user of each client scope.
type Service struct {
	store   store.Store
	notices *notify.Emitter
	logger  *zap.Logger
	locks   *task.Locks
}

func New(st store.Store, sink notify.Sink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   st,
		notices: notify.NewEmitter(sink, "session"),
		logger:  logger,
		locks:   task.NewLocks(),
	}
}

// Current returns the signed-in user of scope, or nil. An unreadable record is
// deleted and the scope reads as logged out.
func (s *Service) Current(ctx context.Context, scope string) (*domain.User, error) {
	unlock := s.locks.Lock(scope)
	defer unlock()
	return s.load(ctx, scope)
}

func (s *Service) load(ctx context.Context, scope string) (*domain.User, error) {
	raw, err := s.store.Get(ctx, scope, store.SessionKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var user *domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.logger.Warn("clearing unreadable session", zap.String("scope", scope), zap.Error(err))
		if err := s.store.Delete(ctx, scope, store.SessionKey); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return nil, nil
	}
	return user, nil
}

func (s *Service) save(ctx context.Context, scope string, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Put(ctx, scope, store.SessionKey, raw); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Service) IsAuthenticated(ctx context.Context, scope string) (bool, error) {
	user, err := s.Current(ctx, scope)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// Login makes user the current user of scope, replacing any previous one.
func (s *Service) Login(ctx context.Context, scope string, user domain.User) (notify.Notice, error) {
	unlock := s.locks.Lock(scope)
	defer unlock()
	if err := s.save(ctx, scope, user); err != nil {
		return notify.Notice{}, err
	}
	s.logger.Info("session started", zap.String("scope", scope), zap.String("user_id", user.ID))
	return s.notices.Emit(ctx, scope, "login", notify.Successf("Welcome back, %s!", user.Name)), nil
}

func (s *Service) Logout(ctx context.Context, scope string) (notify.Notice, error) {
	unlock := s.locks.Lock(scope)
	defer unlock()
	if err := s.store.Delete(ctx, scope, store.SessionKey); err != nil {
		return notify.Notice{}, fmt.Errorf("clear session: %w", err)
	}
	return s.notices.Emit(ctx, scope, "logout", notify.Infof("You have been logged out.")), nil
}

// UpdateUser merges patch into the current user. It returns nil without error when
// nobody is signed in.
func (s *Service) UpdateUser(ctx context.Context, scope string, patch domain.UserPatch) (*domain.User, error) {
	unlock := s.locks.Lock(scope)
	defer unlock()
	user, err := s.load(ctx, scope)
	if err != nil || user == nil {
		return nil, err
	}
	updated := patch.Apply(*user)
	if err := s.save(ctx, scope, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

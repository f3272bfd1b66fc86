package auth

import (
	"context"
	"fmt"

	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/notify"
	"tfashion-storefront/internal/task"
)

type sessionManager interface {
	Login(ctx context.Context, scope string, user domain.User) (notify.Notice, error)
}

// Service runs the sign-in forms: one submission per form and scope at a time,
// and a successful result starts the scope's session.
type Service struct {
	auth     Authenticator
	sessions sessionManager
	guard    *task.Guard
	notices  *notify.Emitter
}

func NewService(auth Authenticator, sessions sessionManager, sink notify.Sink) *Service {
	return &Service{
		auth:     auth,
		sessions: sessions,
		guard:    task.NewGuard(),
		notices:  notify.NewEmitter(sink, "auth"),
	}
}

func (s *Service) Login(ctx context.Context, scope string, in LoginInput) (domain.User, []notify.Notice, error) {
	return s.signIn(ctx, scope, "login", notify.Successf("Successfully logged in!"), func(ctx context.Context) (domain.User, error) {
		return s.auth.Login(ctx, in)
	})
}

func (s *Service) Register(ctx context.Context, scope string, in RegisterInput) (domain.User, []notify.Notice, error) {
	return s.signIn(ctx, scope, "register", notify.Successf("Account created successfully!"), func(ctx context.Context) (domain.User, error) {
		return s.auth.Register(ctx, in)
	})
}

func (s *Service) SocialLogin(ctx context.Context, scope string, provider Provider) (domain.User, []notify.Notice, error) {
	return s.signIn(ctx, scope, "social", notify.Successf("Successfully logged in with %s!", provider), func(ctx context.Context) (domain.User, error) {
		return s.auth.SocialLogin(ctx, provider)
	})
}

func (s *Service) RequestPasswordReset(ctx context.Context, scope string, in ResetInput) (notify.Notice, error) {
	release, err := s.guard.Acquire(scope + ":password-reset")
	if err != nil {
		return notify.Notice{}, err
	}
	defer release()
	if err := s.auth.RequestPasswordReset(ctx, in); err != nil {
		return notify.Notice{}, err
	}
	return s.notices.Emit(ctx, scope, "password-reset", notify.Successf("Reset instructions sent to your %s!", in.Method)), nil
}

// Busy reports whether form has a submission pending for scope.
func (s *Service) Busy(scope, form string) bool {
	return s.guard.Busy(scope + ":" + form)
}

func (s *Service) signIn(ctx context.Context, scope, form string, ok notify.Notice, fn func(context.Context) (domain.User, error)) (domain.User, []notify.Notice, error) {
	release, err := s.guard.Acquire(scope + ":" + form)
	if err != nil {
		return domain.User{}, nil, err
	}
	defer release()

	user, err := fn(ctx)
	if err != nil {
		return domain.User{}, nil, err
	}
	welcome, err := s.sessions.Login(ctx, scope, user)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("start session: %w", err)
	}
	return user, []notify.Notice{s.notices.Emit(ctx, scope, form, ok), welcome}, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/task"
)

const (
	minPasswordLen = 6
	defaultAvatar  = "https://github.com/shadcn.png"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordMismatch    = fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
	ErrUnsupportedProvider = fmt.Errorf("%w: unsupported provider", domain.ErrValidation)
)

// Authenticator resolves credentials to a user. Implementations may block; all
// calls honour ctx cancellation.
type Authenticator interface {
	Login(ctx context.Context, in LoginInput) (domain.User, error)
	Register(ctx context.Context, in RegisterInput) (domain.User, error)
	SocialLogin(ctx context.Context, provider Provider) (domain.User, error)
	RequestPasswordReset(ctx context.Context, in ResetInput) error
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGoogle, ProviderApple:
		return p, nil
	default:
		return "", ErrUnsupportedProvider
	}
}

type ResetMethod string

const (
	ResetByEmail ResetMethod = "email"
	ResetByPhone ResetMethod = "phone"
)

type ResetInput struct {
	Method ResetMethod `json:"method"`
	Email  string      `json:"email"`
	Phone  string      `json:"phone"`
}

type account struct {
	hash []byte
	user domain.User
}

// Mock is an in-process Authenticator that simulates a remote identity provider.
// Every call waits for the configured delay. Accounts created through Register are
// kept in memory with a bcrypt hash; any other well-formed login is accepted.
type Mock struct {
	delay time.Duration
	cost  int

	mu       sync.RWMutex
	accounts map[string]account
}

func NewMock(delay time.Duration) *Mock {
	return &Mock{delay: delay, cost: bcrypt.DefaultCost, accounts: make(map[string]account)}
}

func (m *Mock) Login(ctx context.Context, in LoginInput) (domain.User, error) {
	if err := task.Sleep(ctx, m.delay); err != nil {
		return domain.User{}, err
	}
	email := normalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLen {
		return domain.User{}, ErrInvalidCredentials
	}

	m.mu.RLock()
	acct, known := m.accounts[email]
	m.mu.RUnlock()
	if known {
		if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(in.Password)); err != nil {
			return domain.User{}, ErrInvalidCredentials
		}
		return acct.user, nil
	}
	return domain.User{
		ID:     stableID(email),
		Name:   "John Doe",
		Email:  email,
		Avatar: defaultAvatar,
	}, nil
}

func (m *Mock) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	switch {
	case in.Password != in.ConfirmPassword:
		return domain.User{}, ErrPasswordMismatch
	case name == "":
		return domain.User{}, fmt.Errorf("%w: name required", domain.ErrValidation)
	case email == "":
		return domain.User{}, fmt.Errorf("%w: email required", domain.ErrValidation)
	case len(in.Password) < minPasswordLen:
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	if err := task.Sleep(ctx, m.delay); err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), m.cost)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  email,
		Phone:  strings.TrimSpace(in.Phone),
		Avatar: "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(name),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[email]; exists {
		return domain.User{}, domain.ErrAlreadyExists
	}
	m.accounts[email] = account{hash: hash, user: user}
	return user, nil
}

func (m *Mock) SocialLogin(ctx context.Context, provider Provider) (domain.User, error) {
	if _, err := ParseProvider(string(provider)); err != nil {
		return domain.User{}, err
	}
	if err := task.Sleep(ctx, m.delay); err != nil {
		return domain.User{}, err
	}
	email := fmt.Sprintf("user@%s.com", provider)
	return domain.User{
		ID:     stableID(email),
		Name:   fmt.Sprintf("Social User (%s)", provider),
		Email:  email,
		Avatar: defaultAvatar,
	}, nil
}

func (m *Mock) RequestPasswordReset(ctx context.Context, in ResetInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return task.Sleep(ctx, m.delay)
}

func (in ResetInput) validate() error {
	switch in.Method {
	case ResetByEmail:
		if normalizeEmail(in.Email) == "" {
			return fmt.Errorf("%w: email required", domain.ErrValidation)
		}
	case ResetByPhone:
		if strings.TrimSpace(in.Phone) == "" {
			return fmt.Errorf("%w: phone required", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: method must be email or phone", domain.ErrValidation)
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stableID gives the same user id to every login with the same email.
func stableID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

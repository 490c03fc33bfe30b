package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"welfare-advisor/internal/domain"
	"welfare-advisor/internal/session"
)

// AccountBackend is satisfied by *backend.Client.
type AccountBackend interface {
	RegisterUser(ctx context.Context, in domain.RegisterUserInput) (domain.User, error)
	Login(ctx context.Context, name string) (domain.User, error)
	GetUser(ctx context.Context, id domain.UserID) (domain.User, error)
}

// AccountService signs users in and out of the session.
type AccountService struct {
	backend AccountBackend
	session *session.Context
}

func NewAccountService(b AccountBackend, sess *session.Context) (*AccountService, error) {
	if b == nil {
		return nil, errors.New("usecase: account backend must not be nil")
	}
	if sess == nil {
		return nil, errors.New("usecase: session must not be nil")
	}
	return &AccountService{backend: b, session: sess}, nil
}

// Register creates the user and signs them in.
func (s *AccountService) Register(ctx context.Context, in domain.RegisterUserInput) (domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Residence = strings.TrimSpace(in.Residence)
	if in.Name == "" {
		return domain.User{}, newError(ErrorInvalidInput, "empty_name", nil)
	}
	if in.Age < 0 {
		return domain.User{}, newError(ErrorInvalidInput, "negative_age", nil)
	}
	tags := make([]string, 0, len(in.BaseTags))
	for _, t := range in.BaseTags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	in.BaseTags = tags

	u, err := s.backend.RegisterUser(ctx, in)
	if err != nil {
		return domain.User{}, newError(ErrorRegistration, "register_user", err)
	}
	if err := s.session.SignIn(ctx, u); err != nil {
		return domain.User{}, newError(ErrorRegistration, "session_save", err)
	}
	slog.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login signs in the user registered under name.
func (s *AccountService) Login(ctx context.Context, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, newError(ErrorInvalidInput, "empty_name", nil)
	}
	u, err := s.backend.Login(ctx, name)
	if err != nil {
		return domain.User{}, lookupError("login", err)
	}
	return s.signIn(ctx, u)
}

// LoginByID signs in an existing user by id.
func (s *AccountService) LoginByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	id = domain.UserID(strings.TrimSpace(string(id)))
	if id == "" || id == "0" {
		return domain.User{}, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	u, err := s.backend.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, lookupError("get_user", err)
	}
	return s.signIn(ctx, u)
}

// Logout forgets the signed-in user.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.session.SignOut(ctx); err != nil {
		return fmt.Errorf("usecase: logout: %w", err)
	}
	slog.Info("user signed out")
	return nil
}

// SignedIn reports whether the session holds a user id.
func (s *AccountService) SignedIn() bool {
	return s.session.Authenticated()
}

func (s *AccountService) signIn(ctx context.Context, u domain.User) (domain.User, error) {
	if err := s.session.SignIn(ctx, u); err != nil {
		return domain.User{}, newError(ErrorNotFound, "session_save", err)
	}
	slog.Info("user signed in", "user_id", u.ID)
	return u, nil
}

// lookupError reports every failed lookup as NOT_FOUND; the reason keeps the
// upstream status for logs.
func lookupError(op string, err error) *Error {
	reason := op + "_failed"
	if status, ok := upstreamStatusCode(err); ok {
		reason = fmt.Sprintf("%s_status_%d", op, status)
	}
	return newError(ErrorNotFound, reason, err)
}

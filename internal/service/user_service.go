package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tasklytics/tasklytics-api/internal/delivery"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/service/auth"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

// RegisterParams holds the fields of a new account.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Age       int
}

// Outbox queues outbound messages. *delivery.Pool satisfies it.
type Outbox interface {
	Enqueue(job delivery.Job) error
}

// UserService provides account operations.
type UserService interface {
	// Register creates an account. Returns store.ErrEmailExists for a taken e-mail.
	Register(ctx context.Context, params RegisterParams) (*domain.User, error)

	// Authenticate checks credentials. Returns ErrInvalidCredentials on any mismatch.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// RequestPasswordReset mails a reset link when the account exists.
	// It reports success either way so callers cannot probe for accounts.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword sets a new password using a reset token.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore    store.UserStore
	db           *sql.DB
	passwords    *auth.BcryptVerifier
	tokens       auth.JWTService
	outbox       Outbox
	resetURLBase string
	logger       *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	passwords *auth.BcryptVerifier,
	tokens auth.JWTService,
	outbox Outbox,
	resetURLBase string,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore:    userStore,
		db:           db,
		passwords:    passwords,
		tokens:       tokens,
		outbox:       outbox,
		resetURLBase: resetURLBase,
		logger:       logger.With(slog.String("component", "user_service")),
	}
}

var _ UserService = (*UserServiceImpl)(nil)

// Register implements UserService.Register
func (s *UserServiceImpl) Register(ctx context.Context, params RegisterParams) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(params.Email, params.Password, params.FirstName, params.LastName, params.Age)
	if err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	user.HashedPassword, err = s.passwords.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, err
	}
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register an existing email")
		} else {
			log.Error("failed to save user", slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Authenticate implements UserService.Authenticate
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("password mismatch", slog.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// GetUser implements UserService.GetUser
func (s *UserServiceImpl) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset implements UserService.RequestPasswordReset
func (s *UserServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := s.tokens.GenerateResetToken(ctx, user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	link, err := s.resetLink(token)
	if err != nil {
		return err
	}

	job := delivery.Job{
		Kind:    delivery.KindPasswordReset,
		To:      user.Email,
		Subject: "Reset your Tasklytics password",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>Use the link below to choose a new password.</p><p><a href=\"%s\">Reset password</a></p>",
			html.EscapeString(user.FirstName), html.EscapeString(link)),
	}
	if err := s.outbox.Enqueue(job); err != nil {
		log.Error("failed to queue password reset email",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to queue password reset email: %w", err)
	}

	log.Info("password reset email queued", slog.Int64("user_id", user.ID))
	return nil
}

func (s *UserServiceImpl) resetLink(token string) (string, error) {
	u, err := url.Parse(s.resetURLBase)
	if err != nil {
		return "", fmt.Errorf("invalid reset url base: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ResetPassword implements UserService.ResetPassword
func (s *UserServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	hashed, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)

		user, err := txUsers.GetByID(ctx, claims.UserID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user for password reset: %w", err)
		}
		// the account's e-mail must not have changed since the token was issued
		if !strings.EqualFold(user.Email, claims.Email) {
			return auth.ErrInvalidResetToken
		}
		return txUsers.UpdatePassword(ctx, user.ID, hashed)
	})
	if err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("password reset", slog.Int64("user_id", claims.UserID))
	return nil
}

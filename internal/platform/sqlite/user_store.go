package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
	"github.com/tasklytics/tasklytics-api/internal/store"
)

type userRow struct {
	ID             int64     `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Age            int       `db:"age"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// SQLiteUserStore implements store.UserStore on SQLite.
type SQLiteUserStore struct {
	handle
}

// NewSQLiteUserStore creates a user store on db.
func NewSQLiteUserStore(db *sqlx.DB, logger *slog.Logger) *SQLiteUserStore {
	return &SQLiteUserStore{handle: newHandle(db, logger, "user_store")}
}

var _ store.UserStore = (*SQLiteUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *SQLiteUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &SQLiteUserStore{handle: s.withTx(tx)}
}

// Create implements store.UserStore.Create
func (s *SQLiteUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt, user.UpdatedAt = now, now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, hashed_password, first_name, last_name, age, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.HashedPassword, user.FirstName, user.LastName,
		user.Age, user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to create user", slog.String("error", err.Error()))
		return MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return MapError(err)
	}
	user.ID = id

	log.Info("user created", slog.Int64("user_id", user.ID))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *SQLiteUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.getOne(ctx, `id = ?`, id)
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *SQLiteUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, `email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *SQLiteUserStore) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, s.db, &row, `
		SELECT id, email, hashed_password, first_name, last_name, age, is_active, created_at, updated_at
		FROM users WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return &domain.User{
		ID:             row.ID,
		Email:          row.Email,
		HashedPassword: row.HashedPassword,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		Age:            row.Age,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}, nil
}

// UpdatePassword implements store.UserStore.UpdatePassword
func (s *SQLiteUserStore) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	if hashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET hashed_password = ?, updated_at = ? WHERE id = ?`,
		hashedPassword, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}
	return rowsAffected(result, store.ErrUserNotFound)
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/homeinspect/internal/domain"
)

// UserRecord is a user together with its password hash. It never leaves the
// backend.
type UserRecord struct {
	domain.User
	PasswordHash string
}

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, user.ID, user.Email, passwordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*UserRecord, error) {
	rec := &UserRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?
	`, email).Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &rec.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return rec, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user := &domain.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, created_at FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Email, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

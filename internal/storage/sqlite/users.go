package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// CreateUser inserts a new account. The email must be unique.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	_, err := s.db.ExecContext(ctx, `INSERT INTO users(id, email, name, password_hash, role) VALUES(?, ?, ?, ?, ?)`,
		u.ID, u.Email, strings.TrimSpace(u.Name), u.PasswordHash, u.Role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.User{}, apperr.Conflict("email already exists")
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.FindUserByID(ctx, u.ID)
}

// FindUserByID retrieves a user by id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT id, email, name, password_hash, role, created_at FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("user")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// FindUserByEmail retrieves a user by email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT id, email, name, password_hash, role, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("user")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListSolvers returns all solver accounts ordered by name, for task
// assignment pickers.
func (s *Store) ListSolvers(ctx context.Context) ([]models.PublicUser, error) {
	var users []models.PublicUser
	err := s.db.SelectContext(ctx, &users, `SELECT id, email, name, role FROM users WHERE role = ? ORDER BY name ASC`, models.RoleSolver)
	if err != nil {
		return nil, fmt.Errorf("list solvers: %w", err)
	}
	return users, nil
}

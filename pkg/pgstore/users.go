package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

func (s *Store) CreateUser(ctx context.Context, user models.User) (_ models.User, err error) {
	defer observe("CreateUser", time.Now(), &err)
	if err = insertUser(ctx, s.db, user); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, user.ID)
}

func insertUser(ctx context.Context, q sqlx.ExtContext, user models.User) error {
	query := `
INSERT INTO users (id, email, password_hash, nombre, role)
VALUES ($1, $2, $3, $4, $5);`
	_, err := q.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.Nombre, user.Role)
	switch {
	case isUniqueViolation(err):
		return ErrEmailTaken
	case err != nil:
		return fmt.Errorf("err creating user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (_ models.User, err error) {
	defer observe("GetUser", time.Now(), &err)
	var user models.User
	query := `
SELECT id, email, password_hash, nombre, role, created_at FROM users
WHERE id = $1;`
	err = s.retry(ctx, "GetUser", func() error {
		return s.db.GetContext(ctx, &user, query, id)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.User{}, ErrUserNotFound
	case err != nil:
		return models.User{}, fmt.Errorf("err getting user %s: %w", id, err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (_ models.User, err error) {
	defer observe("GetUserByEmail", time.Now(), &err)
	var user models.User
	query := `
SELECT id, email, password_hash, nombre, role, created_at FROM users
WHERE email = $1;`
	err = s.retry(ctx, "GetUserByEmail", func() error {
		return s.db.GetContext(ctx, &user, query, email)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.User{}, ErrUserNotFound
	case err != nil:
		return models.User{}, fmt.Errorf("err getting user by email: %w", err)
	}
	return user, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

const tokenIssuer = "labloans"

func (s *LoanService) Register(ctx context.Context, req models.UserRequest) (models.User, error) {
	req.Normalize()
	if err := s.check(req); err != nil {
		return models.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("err hashing password: %w", err)
	}
	user, err := s.store.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Nombre:       req.Nombre,
		Role:         req.Role,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("err registering user: %w", err)
	}
	s.log.Infof("user %s registered as %s", user.ID, user.Role)
	return user, nil
}

// Login checks the credentials and issues a signed bearer token.
func (s *LoanService) Login(ctx context.Context, creds models.Credentials) (models.TokenResponse, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := s.check(creds); err != nil {
		return models.TokenResponse{}, err
	}
	user, err := s.store.GetUserByEmail(ctx, creds.Email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.TokenResponse{}, models.ErrInvalidCredentials
	case err != nil:
		return models.TokenResponse{}, fmt.Errorf("err getting user: %w", err)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return models.TokenResponse{}, models.ErrInvalidCredentials
	}
	token, err := s.issueToken(user)
	if err != nil {
		return models.TokenResponse{}, err
	}
	return models.TokenResponse{Token: token, User: user}, nil
}

func (s *LoanService) issueToken(user models.User) (string, error) {
	now := s.now()
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokens.TTL)),
		},
		UserID: user.ID,
		Role:   user.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokens.Secret)
	if err != nil {
		return "", fmt.Errorf("err signing token: %w", err)
	}
	return token, nil
}

// Me returns the account behind caller.
func (s *LoanService) Me(ctx context.Context, caller models.Caller) (models.User, error) {
	user, err := s.store.GetUser(ctx, caller.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("err getting user %s: %w", caller.ID, err)
	}
	return user, nil
}

// Package auth provides the credential and token services: bcrypt password
// hashing and HS256-signed bearer tokens carrying the username as identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/minipress-io/minipress/internal/model"
	"github.com/minipress-io/minipress/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown-username and wrong-password
	// logins; callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Service struct {
	store    store.Store
	secret   []byte
	tokenTTL time.Duration
}

func NewService(store store.Store, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register hashes the password and creates the user record. Duplicate
// usernames surface as store.ErrDuplicateUsername.
func (s *Service) Register(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := model.User{Username: username, PasswordHash: string(hash)}
	return s.store.CreateUser(ctx, &user)
}

// Login verifies the password and returns a signed token. Unknown users and
// bad passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(user.Username)
}

func (s *Service) issueToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Authenticate verifies a bearer token and returns the identity it carries.
// Bad signature, expiry, malformed tokens, and identities with no user record
// all yield ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, bearer string) (string, error) {
	token, err := jwt.ParseWithClaims(bearer, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if _, err := s.store.GetUserByUsername(ctx, claims.Subject); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

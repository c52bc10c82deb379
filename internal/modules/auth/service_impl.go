package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/georgemunganga/tindahan-pos/internal/modules/user"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	userRepo user.Repository
	jwtKey   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a new auth service signing tokens with secret.
func NewService(userRepo user.Repository, secret string, ttl time.Duration) Service {
	return &service{userRepo: userRepo, jwtKey: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, user.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", ErrInactiveAccount
	}

	now := s.now()
	claims := &jwt.StandardClaims{
		Subject:   u.ID.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

func (s *service) Authenticate(ctx context.Context, tokenString string) (uuid.UUID, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	u, err := s.userRepo.GetUserByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, err
	}
	if !u.IsActive {
		return uuid.Nil, ErrInactiveAccount
	}
	return id, nil
}

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type service struct {
	repo Repository
}

// NewService creates a new store account service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	req.StoreName = strings.TrimSpace(req.StoreName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			switch verrs[0].Field() {
			case "Email":
				return nil, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
			case "StoreName":
				return nil, fmt.Errorf("%w: store_name must be 2-100 characters", ErrInvalidInput)
			case "Password":
				return nil, fmt.Errorf("%w: password must be 8-72 characters", ErrInvalidInput)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !strongPassword(req.Password) {
		return nil, fmt.Errorf("%w: password must include an uppercase letter, a lowercase letter and a special character", ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		StoreName:    req.StoreName,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

func strongPassword(pw string) bool {
	var lower, upper, special bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune("!@#$%^&*", r):
			special = true
		}
	}
	return lower && upper && special
}

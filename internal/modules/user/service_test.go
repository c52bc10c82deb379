package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	u, err := svc.RegisterUser(ctx, RegisterRequest{
		StoreName: " Aling Nena's Store ",
		Email:     "Nena@Example.com",
		Password:  "Tindahan#1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Aling Nena's Store", u.StoreName)
	assert.Equal(t, "nena@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Tindahan#1")))

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())
	req := RegisterRequest{StoreName: "Store", Email: "a@b.co", Password: "Tindahan#1"}

	_, err := svc.RegisterUser(ctx, req)
	require.NoError(t, err)
	_, err = svc.RegisterUser(ctx, req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_Invalid(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	cases := map[string]RegisterRequest{
		"bad email":      {StoreName: "Store", Email: "nope", Password: "Tindahan#1"},
		"short name":     {StoreName: "S", Email: "a@b.co", Password: "Tindahan#1"},
		"short password": {StoreName: "Store", Email: "a@b.co", Password: "T#1a"},
		"weak password":  {StoreName: "Store", Email: "a@b.co", Password: "tindahan11"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RegisterUser(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())
	u, err := svc.RegisterUser(ctx, RegisterRequest{StoreName: "Store", Email: "a@b.co", Password: "Tindahan#1"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, u.ID))
	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, svc.Deactivate(ctx, uuid.New()), ErrNotFound)
}

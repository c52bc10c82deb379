package sale

import (
	"context"
	"time"

	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/google/uuid"
)

// Service exposes the committed sales of the store bound to ctx.
type Service interface {
	GetSale(ctx context.Context, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, from, to time.Time) ([]*Sale, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *service) ListSales(ctx context.Context, from, to time.Time) ([]*Sale, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ownerID, from, to)
}

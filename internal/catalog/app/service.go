package app

import (
	"context"
	"strings"

	"github.com/dwikikusuma/freshcart/internal/catalog/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
)

var (
	ErrInvalidInput = apperr.Validation("invalid product id")
	ErrNotFound     = apperr.NotFound("product not found")
)

type Service struct {
	repo ProductRepo
}

func NewService(repo ProductRepo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

// GetSellableProduct hides inactive products behind the same NotFound a
// missing one produces.
func (s *Service) GetSellableProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !p.IsActive {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

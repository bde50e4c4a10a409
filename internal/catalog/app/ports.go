package app

import (
	"context"

	"github.com/dwikikusuma/freshcart/internal/catalog/domain"
)

type ProductRepo interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

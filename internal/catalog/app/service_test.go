package app

import (
	"context"
	"testing"

	"github.com/dwikikusuma/freshcart/internal/catalog/domain"
	"github.com/shopspring/decimal"
)

type fakeRepo map[string]domain.Product

func (r fakeRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	p, ok := r[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func TestGetSellableProduct(t *testing.T) {
	svc := NewService(fakeRepo{
		"p1": {ID: "p1", Name: "Keyboard", Price: decimal.NewFromInt(10), IsActive: true},
		"p2": {ID: "p2", Name: "Retired", Price: decimal.NewFromInt(5), IsActive: false},
	})

	t.Run("empty id -> invalid", func(t *testing.T) {
		_, err := svc.GetSellableProduct(context.Background(), "   ")
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("missing -> not found", func(t *testing.T) {
		_, err := svc.GetSellableProduct(context.Background(), "nope")
		if err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("inactive -> not found", func(t *testing.T) {
		_, err := svc.GetSellableProduct(context.Background(), "p2")
		if err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("active -> product", func(t *testing.T) {
		p, err := svc.GetSellableProduct(context.Background(), "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Keyboard" {
			t.Fatalf("unexpected product %+v", p)
		}
	})
}

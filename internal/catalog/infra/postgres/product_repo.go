package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dwikikusuma/freshcart/internal/catalog/app"
	"github.com/dwikikusuma/freshcart/internal/catalog/domain"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
	"github.com/google/uuid"
)

type ProductRepo struct {
	db postgres.DBTX
}

func NewProductRepo(db postgres.DBTX) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	prodID, err := uuid.Parse(id)
	if err != nil {
		return domain.Product{}, app.ErrInvalidInput
	}

	var p domain.Product
	err = r.db.QueryRowContext(ctx, `
		SELECT id, name, price, is_active, created_at, updated_at
		FROM products
		WHERE id = $1`, prodID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

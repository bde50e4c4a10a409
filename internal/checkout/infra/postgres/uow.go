package postgres

import (
	"context"
	"database/sql"

	addressapp "github.com/dwikikusuma/freshcart/internal/address/app"
	addresspg "github.com/dwikikusuma/freshcart/internal/address/infra/postgres"
	cartpg "github.com/dwikikusuma/freshcart/internal/cart/infra/postgres"
	"github.com/dwikikusuma/freshcart/internal/checkout/app"
	orderpg "github.com/dwikikusuma/freshcart/internal/order/infra/postgres"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
)

// UnitOfWork binds the cart, order and address stores to one read-committed
// transaction.
type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(r app.Repos) error) error {
	return postgres.WithTx(ctx, u.db, func(tx *sql.Tx) error {
		return fn(app.Repos{
			Carts:     cartpg.NewCartRepo(tx),
			Orders:    orderpg.NewOrderRepo(tx),
			Addresses: addressapp.NewResolver(addresspg.NewAddressRepo(tx)),
		})
	})
}

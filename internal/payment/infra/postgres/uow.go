package postgres

import (
	"context"
	"database/sql"

	orderpg "github.com/dwikikusuma/freshcart/internal/order/infra/postgres"
	"github.com/dwikikusuma/freshcart/internal/payment/app"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
)

type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(r app.Repos) error) error {
	return postgres.WithTx(ctx, u.db, func(tx *sql.Tx) error {
		return fn(app.Repos{
			Orders:   orderpg.NewOrderRepo(tx),
			Payments: NewPaymentRepo(tx),
		})
	})
}

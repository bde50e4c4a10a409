package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dwikikusuma/freshcart/internal/address/app"
	"github.com/dwikikusuma/freshcart/internal/address/domain"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
	"github.com/google/uuid"
)

const addressColumns = `id, user_id, line1, line2, city, state, postal_code, country, is_default`

type AddressRepo struct {
	db postgres.DBTX
}

func NewAddressRepo(db postgres.DBTX) *AddressRepo {
	return &AddressRepo{db: db}
}

func scanAddress(row *sql.Row) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Address{}, fmt.Errorf("scan address: %w", err)
	}
	return a, nil
}

func (r *AddressRepo) Get(ctx context.Context, id string) (domain.Address, error) {
	addrID, err := uuid.Parse(id)
	if err != nil {
		return domain.Address{}, app.ErrBadAddressID
	}
	return scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, addrID))
}

func (r *AddressRepo) GetDefault(ctx context.Context, userID string) (domain.Address, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.Address{}, app.ErrNotFound
	}
	return scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND is_default LIMIT 1`, userUUID))
}

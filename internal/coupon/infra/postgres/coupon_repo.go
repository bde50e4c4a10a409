package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dwikikusuma/freshcart/internal/coupon/app"
	"github.com/dwikikusuma/freshcart/internal/coupon/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
)

const couponColumns = `id, code, discount_type, amount, active, valid_from, valid_to, created_at, updated_at`

type CouponRepo struct {
	db postgres.DBTX
}

func NewCouponRepo(db postgres.DBTX) *CouponRepo {
	return &CouponRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (domain.Coupon, error) {
	var (
		c        domain.Coupon
		kind     string
		from, to sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Code, &kind, &c.Amount, &c.Active, &from, &to, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Coupon{}, err
	}
	c.DiscountType = domain.DiscountType(kind)
	c.ValidFrom = nullTime(from)
	c.ValidTo = nullTime(to)
	return c, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *CouponRepo) Create(ctx context.Context, c domain.Coupon) (domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO coupons (code, discount_type, amount, active, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+couponColumns,
		c.Code, string(c.DiscountType), c.Amount, c.Active, c.ValidFrom, c.ValidTo,
	)

	created, err := scanCoupon(row)
	if postgres.IsUniqueViolation(err) {
		return domain.Coupon{}, apperr.InvalidState("coupon code %q already exists", c.Code)
	}
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("insert coupon: %w", err)
	}
	return created, nil
}

func (r *CouponRepo) Update(ctx context.Context, c domain.Coupon) (domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE coupons
		SET discount_type = $2, amount = $3, active = $4, valid_from = $5, valid_to = $6, updated_at = now()
		WHERE lower(code) = lower($1)
		RETURNING `+couponColumns,
		c.Code, string(c.DiscountType), c.Amount, c.Active, c.ValidFrom, c.ValidTo,
	)

	updated, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coupon{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("update coupon: %w", err)
	}
	return updated, nil
}

func (r *CouponRepo) Delete(ctx context.Context, code string) (domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM coupons WHERE lower(code) = lower($1) RETURNING `+couponColumns, code)

	deleted, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coupon{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("delete coupon: %w", err)
	}
	return deleted, nil
}

func (r *CouponRepo) GetByCode(ctx context.Context, code string) (domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE lower(code) = lower($1)`, code)

	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coupon{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

func (r *CouponRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

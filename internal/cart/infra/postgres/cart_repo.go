package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dwikikusuma/freshcart/internal/cart/app"
	"github.com/dwikikusuma/freshcart/internal/cart/domain"
	couponapp "github.com/dwikikusuma/freshcart/internal/coupon/app"
	couponpg "github.com/dwikikusuma/freshcart/internal/coupon/infra/postgres"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
	"github.com/google/uuid"
)

type CartRepo struct {
	db      postgres.DBTX
	coupons *couponpg.CouponRepo
}

// NewCartRepo accepts a *sql.DB or a *sql.Tx; checkout builds one per
// transaction.
func NewCartRepo(db postgres.DBTX) *CartRepo {
	return &CartRepo{
		db:      db,
		coupons: couponpg.NewCouponRepo(db),
	}
}

const selectOpenCart = `
	SELECT id, user_id, status, COALESCE(coupon_code, ''), created_at, updated_at
	FROM carts
	WHERE user_id = $1 AND status = 'open'`

func (r *CartRepo) getOpen(ctx context.Context, userID uuid.UUID, lock bool) (domain.Cart, error) {
	query := selectOpenCart
	if lock {
		query += ` FOR UPDATE`
	}

	var (
		cart   domain.Cart
		status string
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID, &cart.UserID, &status, &cart.CouponCode, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Status = domain.Status(status)

	if err := r.loadItems(ctx, &cart); err != nil {
		return domain.Cart{}, err
	}
	if err := r.loadCoupon(ctx, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (r *CartRepo) loadItems(ctx context.Context, cart *domain.Cart) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.product_id`, cart.ID)
	if err != nil {
		return fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity); err != nil {
			return fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cart.Items = items
	return nil
}

// loadCoupon resolves the attached code. A code whose coupon was deleted
// leaves Coupon nil.
func (r *CartRepo) loadCoupon(ctx context.Context, cart *domain.Cart) error {
	if cart.CouponCode == "" {
		return nil
	}
	c, err := r.coupons.GetByCode(ctx, cart.CouponCode)
	if errors.Is(err, couponapp.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	cart.Coupon = &c
	return nil
}

func (r *CartRepo) GetOrCreateOpen(ctx context.Context, userID string) (domain.Cart, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.Cart{}, app.ErrInvalidUser
	}

	// 1) Try get
	cart, err := r.getOpen(ctx, userUUID, false)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, fmt.Errorf("get open cart: %w", err)
	}

	// 2) Not found => try create
	_, createErr := r.db.ExecContext(ctx, `INSERT INTO carts (user_id) VALUES ($1)`, userUUID)

	// 3) If someone else created concurrently => re-get
	if createErr != nil && !postgres.IsUniqueViolation(createErr) {
		return domain.Cart{}, fmt.Errorf("create cart: %w", createErr)
	}

	cart, err = r.getOpen(ctx, userUUID, false)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("get created cart: %w", err)
	}
	return cart, nil
}

// LockOpen loads the user's open cart and holds a row lock on it until the
// surrounding transaction ends.
func (r *CartRepo) LockOpen(ctx context.Context, userID string) (domain.Cart, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.Cart{}, app.ErrInvalidUser
	}

	cart, err := r.getOpen(ctx, userUUID, true)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, app.ErrNoOpenCart
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("lock open cart: %w", err)
	}
	return cart, nil
}

func parseLine(cartID, productID string) (uuid.UUID, uuid.UUID, error) {
	cartUUID, err := uuid.Parse(cartID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid cart id: %w", err)
	}
	productUUID, err := uuid.Parse(productID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Validation("invalid product id")
	}
	return cartUUID, productUUID, nil
}

// AddItem only writes into an open cart. The share lock on the cart row
// orders the insert against a checkout holding the row FOR UPDATE: once that
// checkout commits, the cart no longer matches and nothing is written.
func (r *CartRepo) AddItem(ctx context.Context, cartID, productID string, quantity int32) error {
	cartUUID, productUUID, err := parseLine(cartID, productID)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		SELECT c.id, $2, $3
		FROM carts c
		WHERE c.id = $1 AND c.status = 'open'
		FOR SHARE
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartUUID, productUUID, quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return requireOneRow(res)
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID, productID string, quantity int32) (bool, error) {
	cartUUID, productUUID, err := parseLine(cartID, productID)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items ci
		SET quantity = $3
		FROM carts c
		WHERE ci.cart_id = $1 AND ci.product_id = $2
		  AND c.id = ci.cart_id AND c.status = 'open'`,
		cartUUID, productUUID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("set item quantity: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	cartUUID, productUUID, err := parseLine(cartID, productID)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartUUID, productUUID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (r *CartRepo) SetCoupon(ctx context.Context, cartID, code string) error {
	cartUUID, err := uuid.Parse(cartID)
	if err != nil {
		return fmt.Errorf("invalid cart id: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE carts SET coupon_code = NULLIF($2, ''), updated_at = now()
		WHERE id = $1 AND status = 'open'`, cartUUID, code)
	if err != nil {
		return fmt.Errorf("set cart coupon: %w", err)
	}
	return requireOneRow(res)
}

// requireOneRow maps a write that matched no open cart to ErrNoOpenCart.
func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return app.ErrNoOpenCart
	}
	return nil
}

// MarkCheckedOut empties the cart, detaches its coupon and closes it. It is
// the only code path that moves a cart out of open.
func (r *CartRepo) MarkCheckedOut(ctx context.Context, cartID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET status = 'checked_out', coupon_code = NULL, updated_at = now()
		WHERE id = $1 AND status = 'open'`, cartID)
	if err != nil {
		return fmt.Errorf("close cart: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return app.ErrNoOpenCart
	}
	return nil
}

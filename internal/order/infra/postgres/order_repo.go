package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dwikikusuma/freshcart/internal/order/app"
	"github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OrderRepo struct {
	db postgres.DBTX
}

// NewOrderRepo accepts a *sql.DB or a *sql.Tx. Create and LockForUpdate are
// meant to run inside a caller-owned transaction.
func NewOrderRepo(db postgres.DBTX) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `
	id, user_id, address_id, status, COALESCE(coupon_code, ''),
	discount_amount, stripe_session_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.AddressID, &status, &o.CouponCode,
		&o.DiscountAmount, &o.StripeSessionID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.Status(status)
	return o, nil
}

// Create inserts the order header and its items and returns the stored order.
func (r *OrderRepo) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, address_id, status, coupon_code, discount_amount)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING `+orderColumns,
		order.UserID, order.AddressID, string(domain.StatusPending), order.CouponCode, order.DiscountAmount,
	)
	created, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(order.Items))
	for i, item := range order.Items {
		pUUID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("item %d: invalid product UUID: %w", i, err)
		}

		stored := item
		stored.OrderID = created.ID
		err = r.db.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			created.ID, pUUID, item.ProductName, item.UnitPrice, item.Quantity,
		).Scan(&stored.ID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("failed to insert item %d: %w", i, err)
		}
		items = append(items, stored)
	}

	created.Items = items
	return created, nil
}

func (r *OrderRepo) get(ctx context.Context, orderID string, lock bool) (domain.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return domain.Order{}, app.ErrNotFound
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	byOrder, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = byOrder[o.ID]
	return o, nil
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, error) {
	return r.get(ctx, orderID, false)
}

// LockForUpdate loads the order and holds its row lock until the surrounding
// transaction ends.
func (r *OrderRepo) LockForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	return r.get(ctx, orderID, true)
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []domain.Order{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, uid)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	byOrder, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, product_name, id`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *OrderRepo) SetStripeSession(ctx context.Context, orderID, sessionID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET stripe_session_id = $2, updated_at = now() WHERE id = $1`, orderID, sessionID)
	if err != nil {
		return fmt.Errorf("set stripe session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return app.ErrNotFound
	}
	return nil
}

func (r *OrderRepo) TransitionStatus(ctx context.Context, orderID string, from, to domain.Status) (bool, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return false, app.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

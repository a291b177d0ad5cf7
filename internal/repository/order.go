package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/laundry-orders/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
			id, store_id, customer_id, staff_id, received_at, return_at,
			pickup_address, delivery_address, status, promotion_id,
			total_amount, discount_amount, amount_paid, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	getOrderSQL = `SELECT id, store_id, customer_id, staff_id, received_at, return_at,
			pickup_address, delivery_address, status, promotion_id,
			total_amount, discount_amount, amount_paid, created_at
		FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT service_id, goods_id, quantity, price, sub_total, note
		FROM order_items WHERE order_id = $1 ORDER BY line_no`
)

var orderItemColumns = []string{
	"order_id", "line_no", "service_id", "goods_id", "quantity", "price", "sub_total", "note",
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and its line items in one transaction.
// Line items are bulk loaded with COPY.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	for i, li := range o.LineItems {
		if li.Quantity <= 0 || li.Quantity > order.MaxQuantity {
			return errors.Errorf("item %d of order %q: quantity %d out of range", i, o.ID, li.Quantity)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.StoreID, o.CustomerID, o.StaffID, o.ReceivedAt, o.ReturnAt,
		o.PickupAddress, o.DeliveryAddress, string(o.Status), nullIfEmpty(o.PromotionID),
		o.TotalAmount, o.DiscountAmount, o.AmountPaid, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}

	rows := make([][]any, len(o.LineItems))
	for i, li := range o.LineItems {
		rows[i] = []any{
			o.ID, int32(i + 1), li.ServiceID, nullIfEmpty(li.GoodsID),
			int32(li.Quantity), li.UnitPrice, li.Subtotal, li.Note,
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, orderItemColumns, pgx.CopyFromRows(rows)); err != nil {
		return errors.Wrapf(err, "copy items of order %q", o.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrapf(err, "commit order %q", o.ID)
	}
	return nil
}

// Get loads an order with its line items. It returns order.ErrNotFound when
// no order has the given ID.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var (
		o           order.Order
		status      string
		promotionID *string
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.StoreID, &o.CustomerID, &o.StaffID, &o.ReceivedAt, &o.ReturnAt,
		&o.PickupAddress, &o.DeliveryAddress, &status, &promotionID,
		&o.TotalAmount, &o.DiscountAmount, &o.AmountPaid, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query order %q", id)
	}
	o.Status = order.Status(status)
	o.PromotionID = fromNull(promotionID)
	o.ReceivedAt = o.ReceivedAt.UTC()
	o.ReturnAt = o.ReturnAt.UTC()
	o.CreatedAt = o.CreatedAt.UTC()

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query items of order %q", id)
	}
	o.LineItems, err = pgx.CollectRows(rows, scanLineItem)
	if err != nil {
		return nil, errors.Wrapf(err, "scan items of order %q", id)
	}

	return &o, nil
}

func scanLineItem(row pgx.CollectableRow) (order.LineItem, error) {
	var (
		li       order.LineItem
		goodsID  *string
		quantity int32
		price    decimal.Decimal
		subtotal decimal.Decimal
	)
	if err := row.Scan(&li.ServiceID, &goodsID, &quantity, &price, &subtotal, &li.Note); err != nil {
		return li, err
	}
	li.GoodsID = fromNull(goodsID)
	li.Quantity = int(quantity)
	li.UnitPrice = price
	li.Subtotal = subtotal
	return li, nil
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// OrderRepository reads orders together with their lines.
type OrderRepository struct {
	db *bun.DB
}

// NewOrderRepository creates an order repository over db.
func NewOrderRepository(db *bun.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// ListWithDetails returns all orders ordered by id, each with its lines and
// the pie of every line.
func (r *OrderRepository) ListWithDetails(ctx context.Context) ([]*Order, error) {
	var orders []*Order
	err := withDetails(r.db.NewSelect().Model(&orders)).
		OrderExpr("o.order_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list orders: %w", err)
	}
	return orders, nil
}

// GetWithDetails returns one order with its lines.
func (r *OrderRepository) GetWithDetails(ctx context.Context, id int64) (*Order, error) {
	order := new(Order)
	err := withDetails(r.db.NewSelect().Model(order)).
		Where("o.order_id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get order %d: %w", id, err)
	}
	return order, nil
}

// Create inserts order and its lines in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *Order) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("catalog: create order: %w", err)
		}
		for _, line := range order.OrderDetails {
			line.OrderID = order.OrderID
		}
		if len(order.OrderDetails) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&order.OrderDetails).Exec(ctx); err != nil {
			return fmt.Errorf("catalog: create order lines: %w", err)
		}
		return nil
	})
}

func withDetails(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("OrderDetails", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("od.order_detail_id ASC")
		}).
		Relation("OrderDetails.Pie")
}

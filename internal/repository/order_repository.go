package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"commerce-service/internal/entity"
)

// OrderTx is the set of statements the order engine runs inside one transaction.
type OrderTx interface {
	InsertOrder(ctx context.Context, order *entity.Order) (int64, error)
	// GetProductForUpdate locks the product row until the transaction ends. It returns nil when absent.
	GetProductForUpdate(ctx context.Context, productID int64) (*entity.Product, error)
	// DecrementStock reports false when the product had less than quantity in stock.
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	InsertOrderItem(ctx context.Context, item *entity.OrderItem) (int64, error)
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithinTx runs fn in a transaction, committing only when fn returns nil.
func (r *OrderRepository) WithinTx(ctx context.Context, fn func(tx OrderTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, customer_name, customer_email, customer_phone, created_at FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	index := map[int64]int{}
	for rows.Next() {
		order := entity.Order{Items: []entity.OrderItem{}}
		if err := rows.Scan(&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `SELECT id, order_id, product_id, product_name, quantity, price FROM order_items ORDER BY order_id, id`)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanOrderItem(itemRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, itemRows.Err()
}

// GetOrder returns nil when no order has the given id.
func (r *OrderRepository) GetOrder(ctx context.Context, id int64) (*entity.Order, error) {
	order := &entity.Order{Items: []entity.OrderItem{}}
	err := r.db.QueryRowContext(ctx, `SELECT id, customer_name, customer_email, customer_phone, created_at FROM orders WHERE id = ?`, id).
		Scan(&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, product_id, product_name, quantity, price FROM order_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

// DeleteOrder removes the order; its items go with it through the cascade.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete order %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func scanOrderItem(rows *sql.Rows) (entity.OrderItem, error) {
	var item entity.OrderItem
	if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
		return item, fmt.Errorf("scan order item: %w", err)
	}
	return item, nil
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, order *entity.Order) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (customer_name, customer_email, customer_phone, created_at)
		VALUES (?, ?, ?, ?)`,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone, order.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return res.LastInsertId()
}

func (t *orderTx) GetProductForUpdate(ctx context.Context, productID int64) (*entity.Product, error) {
	var (
		p    entity.Product
		name sql.NullString
	)
	err := t.tx.QueryRowContext(ctx, `SELECT id, name, price, stock_quantity FROM products WHERE id = ? FOR UPDATE`, productID).
		Scan(&p.ID, &name, &p.Price, &p.StockQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}
	p.Name = name.String
	return &p, nil
}

func (t *orderTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?
		WHERE id = ? AND stock_quantity >= ?`,
		quantity, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("update stock of product %d: %w", productID, err)
	}

	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

func (t *orderTx) InsertOrderItem(ctx context.Context, item *entity.OrderItem) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
		VALUES (?, ?, ?, ?, ?)`,
		item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order item: %w", err)
	}
	return res.LastInsertId()
}

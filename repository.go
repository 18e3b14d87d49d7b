package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados de pedidos,
// itens e estoque de produtos
type Repository interface {
	BeginTx(ctx context.Context) (Tx, error)

	ListOrders(ctx context.Context, status string) ([]Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	OrderExists(ctx context.Context, orderID string) (bool, error)
	CreateOrder(ctx context.Context, tx Tx, order *Order) error
	UpdateOrderStatus(ctx context.Context, orderID string, status string) error
	DeleteOrder(ctx context.Context, tx Tx, orderID string) error

	GetOrderItems(ctx context.Context, tx Tx, orderID string) ([]OrderItem, error)
	CreateOrderItem(ctx context.Context, tx Tx, item *OrderItem) error
	UpdateOrderItemQuantity(ctx context.Context, tx Tx, itemID string, quantity int) error
	DeleteOrderItem(ctx context.Context, tx Tx, itemID string) error

	GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error)
	// AdjustStock aplica o delta direto no banco (read-modify-write na camada
	// de storage). Com allowOversell=false o decremento é rejeitado quando
	// deixaria o estoque negativo, retornando ErrInsufficientStock.
	AdjustStock(ctx context.Context, tx Tx, productID string, delta int, allowOversell bool) error
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// PostgresOrderRepository implementa Repository usando PostgreSQL
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository cria uma nova instância de PostgresOrderRepository
func NewOrderRepository(db *pgxpool.Pool) Repository {
	return &PostgresOrderRepository{
		db: db,
	}
}

// BeginTx inicia uma nova transação
func (r *PostgresOrderRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

// ListOrders busca todos os pedidos, opcionalmente filtrados por status,
// com itens e produtos anexados
func (r *PostgresOrderRepository) ListOrders(ctx context.Context, status string) ([]Order, error) {
	query := `
		SELECT id, order_number, status, created_at, updated_at
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	index := make(map[string]int)
	ids := []string{}
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		order.Items = []OrderItem{}
		index[order.ID] = len(orders)
		ids = append(ids, order.ID)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.queryItems(ctx, `WHERE oi.order_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	return orders, nil
}

// GetOrder busca um pedido pelo ID com itens e produtos anexados
func (r *PostgresOrderRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT id, order_number, status, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &order.OrderNumber, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	order.Items, err = r.queryItems(ctx, `WHERE oi.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// queryItems busca itens com o produto referenciado anexado
func (r *PostgresOrderRepository) queryItems(ctx context.Context, where string, arg any) ([]OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.created_at, oi.updated_at,
		       p.id, p.name, p.description, p.stock_quantity, p.price, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		` + where + `
		ORDER BY oi.created_at
	`

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var item OrderItem
		var product Product
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt,
			&product.ID, &product.Name, &product.Description, &product.StockQuantity, &product.Price, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		item.Product = &product
		items = append(items, item)
	}
	return items, rows.Err()
}

// OrderExists verifica se um pedido existe
func (r *PostgresOrderRepository) OrderExists(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", orderID).Scan(&exists)
	return exists, err
}

// CreateOrder cria um novo pedido no banco de dados
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, tx Tx, order *Order) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		INSERT INTO orders (id, order_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, order.ID, order.OrderNumber, order.Status, order.CreatedAt, order.UpdatedAt)
	return err
}

// UpdateOrderStatus atualiza o status de um pedido
func (r *PostgresOrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return nil
}

// DeleteOrder remove o pedido e todos os seus itens
func (r *PostgresOrderRepository) DeleteOrder(ctx context.Context, tx Tx, orderID string) error {
	pgTx := tx.(*PostgresTx).tx

	if _, err := pgTx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	ct, err := pgTx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return nil
}

// GetOrderItems busca os itens de um pedido dentro da transação
func (r *PostgresOrderRepository) GetOrderItems(ctx context.Context, tx Tx, orderID string) ([]OrderItem, error) {
	pgTx := tx.(*PostgresTx).tx

	rows, err := pgTx.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price, created_at, updated_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateOrderItem insere um novo item de pedido
func (r *PostgresOrderRepository) CreateOrderItem(ctx context.Context, tx Tx, item *OrderItem) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price, item.CreatedAt, item.UpdatedAt)
	return err
}

// UpdateOrderItemQuantity atualiza a quantidade de um item; o snapshot de
// preço não é tocado
func (r *PostgresOrderRepository) UpdateOrderItemQuantity(ctx context.Context, tx Tx, itemID string, quantity int) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		UPDATE order_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
	`, quantity, itemID)
	return err
}

// DeleteOrderItem remove um item de pedido
func (r *PostgresOrderRepository) DeleteOrderItem(ctx context.Context, tx Tx, itemID string) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	return err
}

// GetProductForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresOrderRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	pgTx := tx.(*PostgresTx).tx

	query := `
		SELECT id, name, description, stock_quantity, price, created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	var product Product
	err := pgTx.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.StockQuantity,
		&product.Price,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}

	return &product, nil
}

// AdjustStock aplica o delta de estoque em um único UPDATE. O guard de
// não-negatividade fica no WHERE: com a linha bloqueada por FOR UPDATE,
// RowsAffected == 0 significa estoque insuficiente.
func (r *PostgresOrderRepository) AdjustStock(ctx context.Context, tx Tx, productID string, delta int, allowOversell bool) error {
	pgTx := tx.(*PostgresTx).tx

	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	if !allowOversell && delta < 0 {
		query += ` AND stock_quantity + $2 >= 0`
	}

	ct, err := pgTx.Exec(ctx, query, productID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if !allowOversell && delta < 0 {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
		}
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order representa um pedido no sistema
type Order struct {
	ID          string      `json:"id" db:"id"`
	OrderNumber string      `json:"order_number" db:"order_number"`
	Status      string      `json:"status" db:"status"`
	Items       []OrderItem `json:"items" db:"-"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// NewOrder cria uma nova instância de Order com status pending
func NewOrder(id, orderNumber string) *Order {
	return &Order{
		ID:          id,
		OrderNumber: orderNumber,
		Status:      OrderStatusPending,
		Items:       []OrderItem{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// OrderItem representa um item de um pedido
type OrderItem struct {
	ID        string          `json:"id" db:"id"`
	OrderID   string          `json:"order_id" db:"order_id"`
	ProductID string          `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	// Price é o snapshot do preço do produto no momento da criação do item;
	// nunca é relido em updates posteriores
	Price     decimal.Decimal `json:"price" db:"price"`
	Product   *Product        `json:"product,omitempty" db:"-"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// NewOrderItem cria uma nova instância de OrderItem
func NewOrderItem(id, orderID, productID string, quantity int, price decimal.Decimal) *OrderItem {
	return &OrderItem{
		ID:        id,
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// Product representa um produto com seu estoque disponível
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	Price         decimal.Decimal `json:"price" db:"price"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product
func NewProduct(id, name, description string, stockQuantity int, price decimal.Decimal) *Product {
	return &Product{
		ID:            id,
		Name:          name,
		Description:   description,
		StockQuantity: stockQuantity,
		Price:         price,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// OrderStatus representa os possíveis status de um pedido
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatuses lista os status aceitos pela API
var ValidOrderStatuses = []string{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled}

// IsValidOrderStatus verifica se o status informado é aceito
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// GenerateOrderNumber gera um número de pedido único no formato ORD-<unix>-<sufixo>
func GenerateOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/stretchr/testify/mock"
)

// MockTx simula uma transação
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockRepository simula o Repository para testes de orquestração
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) BeginTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context, status string) ([]Order, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) OrderExists(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CreateOrder(ctx context.Context, tx Tx, order *Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockRepository) DeleteOrder(ctx context.Context, tx Tx, orderID string) error {
	args := m.Called(ctx, tx, orderID)
	return args.Error(0)
}

func (m *MockRepository) GetOrderItems(ctx context.Context, tx Tx, orderID string) ([]OrderItem, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderItem), args.Error(1)
}

func (m *MockRepository) CreateOrderItem(ctx context.Context, tx Tx, item *OrderItem) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

func (m *MockRepository) UpdateOrderItemQuantity(ctx context.Context, tx Tx, itemID string, quantity int) error {
	args := m.Called(ctx, tx, itemID, quantity)
	return args.Error(0)
}

func (m *MockRepository) DeleteOrderItem(ctx context.Context, tx Tx, itemID string) error {
	args := m.Called(ctx, tx, itemID)
	return args.Error(0)
}

func (m *MockRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	args := m.Called(ctx, tx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) AdjustStock(ctx context.Context, tx Tx, productID string, delta int, allowOversell bool) error {
	args := m.Called(ctx, tx, productID, delta, allowOversell)
	return args.Error(0)
}

// fakeRepository é um Repository em memória com rollback por snapshot,
// usado para verificar o comportamento transacional de ponta a ponta
type fakeState struct {
	products map[string]Product
	orders   map[string]Order
	items    map[string]OrderItem
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		products: make(map[string]Product, len(s.products)),
		orders:   make(map[string]Order, len(s.orders)),
		items:    make(map[string]OrderItem, len(s.items)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

type fakeRepository struct {
	state fakeState
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{state: fakeState{
		products: map[string]Product{},
		orders:   map[string]Order{},
		items:    map[string]OrderItem{},
	}}
}

func (f *fakeRepository) addProduct(p Product) {
	f.state.products[p.ID] = p
}

func (f *fakeRepository) addOrder(o Order) {
	o.Items = nil
	f.state.orders[o.ID] = o
}

func (f *fakeRepository) addItem(i OrderItem) {
	i.Product = nil
	f.state.items[i.ID] = i
}

func (f *fakeRepository) stockOf(productID string) int {
	return f.state.products[productID].StockQuantity
}

type fakeTx struct {
	repo     *fakeRepository
	snapshot fakeState
	done     bool
}

func (t *fakeTx) Commit() error {
	t.done = true
	return nil
}

func (t *fakeTx) Rollback() error {
	if !t.done {
		t.repo.state = t.snapshot
		t.done = true
	}
	return nil
}

func (f *fakeRepository) BeginTx(ctx context.Context) (Tx, error) {
	return &fakeTx{repo: f, snapshot: f.state.clone()}, nil
}

func (f *fakeRepository) ListOrders(ctx context.Context, status string) ([]Order, error) {
	orders := []Order{}
	for _, o := range f.state.orders {
		if status != "" && o.Status != status {
			continue
		}
		o.Items = f.itemsOf(o.ID)
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderNumber < orders[j].OrderNumber })
	return orders, nil
}

func (f *fakeRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, ok := f.state.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	o.Items = f.itemsOf(orderID)
	return &o, nil
}

func (f *fakeRepository) itemsOf(orderID string) []OrderItem {
	items := []OrderItem{}
	for _, item := range f.state.items {
		if item.OrderID != orderID {
			continue
		}
		if p, ok := f.state.products[item.ProductID]; ok {
			product := p
			item.Product = &product
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (f *fakeRepository) OrderExists(ctx context.Context, orderID string) (bool, error) {
	_, ok := f.state.orders[orderID]
	return ok, nil
}

func (f *fakeRepository) CreateOrder(ctx context.Context, tx Tx, order *Order) error {
	o := *order
	o.Items = nil
	f.state.orders[order.ID] = o
	return nil
}

func (f *fakeRepository) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	o, ok := f.state.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	o.Status = status
	f.state.orders[orderID] = o
	return nil
}

func (f *fakeRepository) DeleteOrder(ctx context.Context, tx Tx, orderID string) error {
	if _, ok := f.state.orders[orderID]; !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	for id, item := range f.state.items {
		if item.OrderID == orderID {
			delete(f.state.items, id)
		}
	}
	delete(f.state.orders, orderID)
	return nil
}

func (f *fakeRepository) GetOrderItems(ctx context.Context, tx Tx, orderID string) ([]OrderItem, error) {
	items := f.itemsOf(orderID)
	for i := range items {
		items[i].Product = nil
	}
	return items, nil
}

func (f *fakeRepository) CreateOrderItem(ctx context.Context, tx Tx, item *OrderItem) error {
	i := *item
	i.Product = nil
	f.state.items[item.ID] = i
	return nil
}

func (f *fakeRepository) UpdateOrderItemQuantity(ctx context.Context, tx Tx, itemID string, quantity int) error {
	item, ok := f.state.items[itemID]
	if !ok {
		return fmt.Errorf("order item %s not found", itemID)
	}
	item.Quantity = quantity
	f.state.items[itemID] = item
	return nil
}

func (f *fakeRepository) DeleteOrderItem(ctx context.Context, tx Tx, itemID string) error {
	delete(f.state.items, itemID)
	return nil
}

func (f *fakeRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	p, ok := f.state.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return &p, nil
}

func (f *fakeRepository) AdjustStock(ctx context.Context, tx Tx, productID string, delta int, allowOversell bool) error {
	p, ok := f.state.products[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if !allowOversell && delta < 0 && p.StockQuantity+delta < 0 {
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
	}
	p.StockQuantity += delta
	f.state.products[productID] = p
	return nil
}

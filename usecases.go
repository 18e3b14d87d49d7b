package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// OrderUseCase contém a lógica de negócio dos pedidos
type OrderUseCase struct {
	repository Repository
	reconciler *OrderReconciler
}

// NewOrderUseCase cria uma nova instância de OrderUseCase
func NewOrderUseCase(repository Repository, reconciler *OrderReconciler) *OrderUseCase {
	return &OrderUseCase{
		repository: repository,
		reconciler: reconciler,
	}
}

// ListOrders busca os pedidos, opcionalmente filtrados por status, com
// itens e produtos anexados
func (uc *OrderUseCase) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	if errs := req.Validate(); !errs.Empty() {
		return nil, errs
	}

	orders, err := uc.repository.ListOrders(ctx, req.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CreateOrder cria um pedido com status pending e reconcilia os itens
// requisitados contra um estado atual vazio, tudo em uma única transação
func (uc *OrderUseCase) CreateOrder(ctx context.Context, req OrderItemsRequest) (*Order, error) {
	if errs := req.Validate(); !errs.Empty() {
		return nil, errs
	}

	order := NewOrder(uuid.New().String(), GenerateOrderNumber())
	log.Printf("➡️ [CREATE ORDER] OrderID: %s | OrderNumber: %s", order.ID, order.OrderNumber)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	if err := uc.repository.CreateOrder(ctx, tx, order); err != nil {
		log.Printf("❌ Failed to create order: %v", err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := uc.reconciler.Reconcile(ctx, tx, order, nil, req.Items); err != nil {
		log.Printf("❌ [CREATE ORDER] Reconcile failed | OrderID=%s | Error=%v", order.ID, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("erro ao comitar pedido: %w", err)
	}

	log.Printf("✅ Order created: %s", order.ID)
	return uc.repository.GetOrder(ctx, order.ID)
}

// UpdateOrderItems reconcilia os itens de um pedido existente com a lista
// requisitada, ajustando o estoque pelos deltas de quantidade
func (uc *OrderUseCase) UpdateOrderItems(ctx context.Context, orderID string, req OrderItemsRequest) (*Order, error) {
	if errs := req.Validate(); !errs.Empty() {
		return nil, errs
	}

	// Falha com not found antes de abrir a transação
	exists, err := uc.repository.OrderExists(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	log.Printf("➡️ [UPDATE ITEMS] OrderID: %s", orderID)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	// O estado atual é relido dentro da transação
	current, err := uc.repository.GetOrderItems(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	order := &Order{ID: orderID}
	if err := uc.reconciler.Reconcile(ctx, tx, order, current, req.Items); err != nil {
		log.Printf("❌ [UPDATE ITEMS] Reconcile failed | OrderID=%s | Error=%v", orderID, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("erro ao comitar atualização: %w", err)
	}

	log.Printf("✅ Order items updated: %s", orderID)
	return uc.repository.GetOrder(ctx, orderID)
}

// UpdateOrderStatus troca o status de um pedido; nenhum efeito sobre
// estoque ou itens
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest) (*Order, error) {
	if errs := req.Validate(); !errs.Empty() {
		return nil, errs
	}

	log.Printf("➡️ [UPDATE STATUS] OrderID: %s | Status: %s", orderID, req.Status)

	if err := uc.repository.UpdateOrderStatus(ctx, orderID, req.Status); err != nil {
		log.Printf("❌ Failed to update order status: %v", err)
		return nil, err
	}

	log.Printf("✅ Order status updated: %s -> %s", orderID, req.Status)
	return uc.repository.GetOrder(ctx, orderID)
}

// DeleteOrder devolve ao estoque a quantidade de cada item do pedido,
// independente do status, e remove o pedido com seus itens
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, orderID string) error {
	exists, err := uc.repository.OrderExists(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	log.Printf("➡️ [DELETE ORDER] OrderID: %s", orderID)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	items, err := uc.repository.GetOrderItems(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	// Restauração integral: um incremento por item, com a linha do produto
	// bloqueada até o commit
	for _, item := range items {
		if _, err := uc.repository.GetProductForUpdate(ctx, tx, item.ProductID); err != nil {
			return err
		}
		if err := uc.repository.AdjustStock(ctx, tx, item.ProductID, item.Quantity, true); err != nil {
			return fmt.Errorf("failed to restore stock for product %s: %w", item.ProductID, err)
		}
	}

	if err := uc.repository.DeleteOrder(ctx, tx, orderID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("erro ao comitar exclusão: %w", err)
	}

	log.Printf("✅ Order deleted: %s", orderID)
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ItemRemoval remove um item do pedido e devolve sua quantidade ao estoque
type ItemRemoval struct {
	Item OrderItem
}

// ItemUpdate ajusta a quantidade de um item retido no pedido
type ItemUpdate struct {
	Item        OrderItem
	NewQuantity int
}

// StockDelta retorna o ajuste de estoque do update (negativo = decremento)
func (u ItemUpdate) StockDelta() int {
	return u.Item.Quantity - u.NewQuantity
}

// ItemAddition cria um novo item no pedido, decrementando o estoque
type ItemAddition struct {
	ProductID string
	Quantity  int
}

// ReconcilePlan descreve as mutações de itens e estoque necessárias para
// levar os itens de um pedido do estado atual ao estado requisitado
type ReconcilePlan struct {
	Removals  []ItemRemoval
	Updates   []ItemUpdate
	Additions []ItemAddition
}

// Empty indica se o plano não contém nenhuma mutação
func (p *ReconcilePlan) Empty() bool {
	return len(p.Removals) == 0 && len(p.Updates) == 0 && len(p.Additions) == 0
}

// BuildReconcilePlan computa o diff de três vias entre os itens atuais de um
// pedido e a lista requisitada, ambos chaveados por product_id:
//   - removed: item atual cujo produto não aparece na requisição
//   - retained: produto presente nos dois lados; gera update somente se a
//     quantidade mudou (delta zero não produz mutação)
//   - new: produto requisitado que não existe no pedido
func BuildReconcilePlan(current []OrderItem, target []OrderItemRequest) (*ReconcilePlan, error) {
	requested := make(map[string]int, len(target))
	for _, item := range target {
		if _, ok := requested[item.ProductID]; ok {
			return nil, fmt.Errorf("duplicate product %s in requested items", item.ProductID)
		}
		requested[item.ProductID] = item.Quantity
	}

	plan := &ReconcilePlan{}

	for _, existing := range current {
		quantity, retained := requested[existing.ProductID]
		if !retained {
			plan.Removals = append(plan.Removals, ItemRemoval{Item: existing})
			continue
		}
		if quantity != existing.Quantity {
			plan.Updates = append(plan.Updates, ItemUpdate{Item: existing, NewQuantity: quantity})
		}
		// Consumimos o produto para rastrear os que sobram como novos
		delete(requested, existing.ProductID)
	}

	// Preserva a ordem da requisição para os itens novos
	for _, item := range target {
		if _, ok := requested[item.ProductID]; !ok {
			continue
		}
		plan.Additions = append(plan.Additions, ItemAddition{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return plan, nil
}

// OrderReconciler aplica planos de reconciliação dentro de uma transação
type OrderReconciler struct {
	repository    Repository
	allowOversell bool
}

// NewOrderReconciler cria uma nova instância de OrderReconciler
func NewOrderReconciler(repository Repository, allowOversell bool) *OrderReconciler {
	return &OrderReconciler{
		repository:    repository,
		allowOversell: allowOversell,
	}
}

// Reconcile computa e aplica o plano que leva os itens do pedido ao estado
// requisitado. Deve ser chamado dentro de uma transação aberta pelo caller;
// qualquer erro deve causar rollback para que nenhum ajuste parcial de
// estoque fique visível.
func (rc *OrderReconciler) Reconcile(ctx context.Context, tx Tx, order *Order, current []OrderItem, target []OrderItemRequest) error {
	plan, err := BuildReconcilePlan(current, target)
	if err != nil {
		return err
	}
	return rc.Apply(ctx, tx, order, plan)
}

// Apply executa as mutações do plano. Cada produto tocado é lido com
// SELECT FOR UPDATE antes do ajuste, mantendo a linha bloqueada até o
// commit ou rollback do caller.
func (rc *OrderReconciler) Apply(ctx context.Context, tx Tx, order *Order, plan *ReconcilePlan) error {
	for _, removal := range plan.Removals {
		if _, err := rc.repository.GetProductForUpdate(ctx, tx, removal.Item.ProductID); err != nil {
			return err
		}
		if err := rc.repository.AdjustStock(ctx, tx, removal.Item.ProductID, removal.Item.Quantity, rc.allowOversell); err != nil {
			return fmt.Errorf("failed to restore stock for product %s: %w", removal.Item.ProductID, err)
		}
		if err := rc.repository.DeleteOrderItem(ctx, tx, removal.Item.ID); err != nil {
			return fmt.Errorf("failed to delete order item %s: %w", removal.Item.ID, err)
		}
		log.Printf("♻️  [RECONCILE] Removed item | OrderID=%s ProductID=%s Restored=%d", order.ID, removal.Item.ProductID, removal.Item.Quantity)
	}

	for _, update := range plan.Updates {
		if _, err := rc.repository.GetProductForUpdate(ctx, tx, update.Item.ProductID); err != nil {
			return err
		}
		// Delta negativo decrementa o estoque; positivo devolve
		if err := rc.repository.AdjustStock(ctx, tx, update.Item.ProductID, update.StockDelta(), rc.allowOversell); err != nil {
			return fmt.Errorf("failed to adjust stock for product %s: %w", update.Item.ProductID, err)
		}
		if err := rc.repository.UpdateOrderItemQuantity(ctx, tx, update.Item.ID, update.NewQuantity); err != nil {
			return fmt.Errorf("failed to update order item %s: %w", update.Item.ID, err)
		}
		log.Printf("🔁 [RECONCILE] Updated item | OrderID=%s ProductID=%s %d -> %d", order.ID, update.Item.ProductID, update.Item.Quantity, update.NewQuantity)
	}

	for _, addition := range plan.Additions {
		product, err := rc.repository.GetProductForUpdate(ctx, tx, addition.ProductID)
		if err != nil {
			return err
		}
		if err := rc.repository.AdjustStock(ctx, tx, addition.ProductID, -addition.Quantity, rc.allowOversell); err != nil {
			return fmt.Errorf("failed to decrease stock for product %s: %w", addition.ProductID, err)
		}
		item := NewOrderItem(uuid.New().String(), order.ID, addition.ProductID, addition.Quantity, product.Price)
		if err := rc.repository.CreateOrderItem(ctx, tx, item); err != nil {
			return fmt.Errorf("failed to create order item for product %s: %w", addition.ProductID, err)
		}
		log.Printf("➕ [RECONCILE] Added item | OrderID=%s ProductID=%s Quantity=%d", order.ID, addition.ProductID, addition.Quantity)
	}

	return nil
}

package main

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Métricas de negócio do serviço de pedidos
type orderMetrics struct {
	ordersCreated metric.Int64Counter
	ordersDeleted metric.Int64Counter
	stockMoves    metric.Int64Counter
}

func newOrderMetrics() *orderMetrics {
	meter := otel.Meter("order-management-api")

	created, err := meter.Int64Counter("orders_created_total",
		metric.WithDescription("Total de pedidos criados"))
	if err != nil {
		log.Printf("⚠️ Failed to create orders_created counter: %v", err)
	}
	deleted, err := meter.Int64Counter("orders_deleted_total",
		metric.WithDescription("Total de pedidos excluídos"))
	if err != nil {
		log.Printf("⚠️ Failed to create orders_deleted counter: %v", err)
	}
	moves, err := meter.Int64Counter("stock_movements_total",
		metric.WithDescription("Total de movimentações de estoque aplicadas"))
	if err != nil {
		log.Printf("⚠️ Failed to create stock_movements counter: %v", err)
	}

	return &orderMetrics{
		ordersCreated: created,
		ordersDeleted: deleted,
		stockMoves:    moves,
	}
}

func (m *orderMetrics) recordOrderCreated(ctx context.Context) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1)
	}
}

func (m *orderMetrics) recordOrderDeleted(ctx context.Context) {
	if m.ordersDeleted != nil {
		m.ordersDeleted.Add(ctx, 1)
	}
}

func (m *orderMetrics) recordStockMovements(ctx context.Context, operation string, count int) {
	if m.stockMoves != nil && count > 0 {
		m.stockMoves.Add(ctx, int64(count),
			metric.WithAttributes(attribute.String("operation", operation)))
	}
}

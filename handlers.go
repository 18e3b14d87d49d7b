package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OrderUseCaseInterface define a interface para o use case
type OrderUseCaseInterface interface {
	ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error)
	CreateOrder(ctx context.Context, req OrderItemsRequest) (*Order, error)
	UpdateOrderItems(ctx context.Context, orderID string, req OrderItemsRequest) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest) (*Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

// OrderHandler contém os handlers HTTP
type OrderHandler struct {
	useCase OrderUseCaseInterface
	tracer  trace.Tracer
	metrics *orderMetrics
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderUseCaseInterface, tracer trace.Tracer, metrics *orderMetrics) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		tracer:  tracer,
		metrics: metrics,
	}
}

// ListOrders lista os pedidos com filtro opcional de status
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_orders")
	defer span.End()

	req := ListOrdersRequest{Status: c.Query("status")}
	span.SetAttributes(attribute.String("filter.status", req.Status))

	orders, err := h.useCase.ListOrders(ctx, req)
	if err != nil {
		h.renderError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// CreateOrder cria um novo pedido decrementando o estoque de cada produto
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()

	var req OrderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.Int("items.count", len(req.Items)))

	order, err := h.useCase.CreateOrder(ctx, req)
	if err != nil {
		h.renderError(c, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("order_number", order.OrderNumber),
	)
	h.metrics.recordOrderCreated(ctx)
	h.metrics.recordStockMovements(ctx, "create", len(req.Items))

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// UpdateOrderItems reconcilia os itens de um pedido com a lista requisitada
func (h *OrderHandler) UpdateOrderItems(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_order_items")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order_id", orderID))

	var req OrderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.Int("items.count", len(req.Items)))

	order, err := h.useCase.UpdateOrderItems(ctx, orderID, req)
	if err != nil {
		h.renderError(c, span, err)
		return
	}

	h.metrics.recordStockMovements(ctx, "update", len(req.Items))

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// UpdateOrderStatus troca o status de um pedido
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_order_status")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order_id", orderID))

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.String("order.status", req.Status))

	order, err := h.useCase.UpdateOrderStatus(ctx, orderID, req)
	if err != nil {
		h.renderError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// DeleteOrder exclui um pedido restaurando o estoque de cada item
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "delete_order")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order_id", orderID))

	if err := h.useCase.DeleteOrder(ctx, orderID); err != nil {
		h.renderError(c, span, err)
		return
	}

	h.metrics.recordOrderDeleted(ctx)

	c.JSON(http.StatusOK, gin.H{"message": "order deleted successfully"})
}

// HealthCheck verifica a saúde do serviço
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "order-management-api",
	})
}

// renderError mapeia erros de domínio para o payload de erro da API.
// Toda falha responde 422: o caller deve tratar qualquer não-2xx como
// "nada mudou".
func (h *OrderHandler) renderError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"errors":  verrs,
		})
		return
	}

	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}

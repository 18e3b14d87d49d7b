package main

import "fmt"

// ListOrdersRequest representa a requisição de listagem de pedidos
type ListOrdersRequest struct {
	// Status filtra os pedidos pelo status; vazio retorna todos
	Status string `form:"status"`
}

// Validate verifica o filtro de status antes de qualquer consulta
func (r ListOrdersRequest) Validate() ValidationErrors {
	errs := ValidationErrors{}
	if r.Status != "" && !IsValidOrderStatus(r.Status) {
		errs.Add("status", "the selected status is invalid")
	}
	return errs
}

// OrderItemRequest representa um par (produto, quantidade) requisitado
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderItemsRequest representa a requisição de criação ou atualização
// dos itens de um pedido
type OrderItemsRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// Validate verifica os itens requisitados antes de abrir a transação.
// Um product_id duplicado na mesma requisição é rejeitado: o reconciler
// processa cada produto exatamente uma vez.
func (r OrderItemsRequest) Validate() ValidationErrors {
	errs := ValidationErrors{}

	if len(r.Items) == 0 {
		errs.Add("items", "the items field is required")
		return errs
	}

	seen := make(map[string]bool, len(r.Items))
	for i, item := range r.Items {
		if item.ProductID == "" {
			errs.Add(fmt.Sprintf("items.%d.product_id", i), "the product_id field is required")
		} else if seen[item.ProductID] {
			errs.Add(fmt.Sprintf("items.%d.product_id", i), "the product_id field has a duplicate value")
		}
		seen[item.ProductID] = true

		if item.Quantity < 1 {
			errs.Add(fmt.Sprintf("items.%d.quantity", i), "the quantity must be at least 1")
		}
	}

	return errs
}

// UpdateOrderStatusRequest representa a requisição de troca de status
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// Validate verifica o novo status
func (r UpdateOrderStatusRequest) Validate() ValidationErrors {
	errs := ValidationErrors{}
	if r.Status == "" {
		errs.Add("status", "the status field is required")
	} else if !IsValidOrderStatus(r.Status) {
		errs.Add("status", "the selected status is invalid")
	}
	return errs
}

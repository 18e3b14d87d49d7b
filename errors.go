package main

import (
	"errors"
	"strings"
)

// Erros de domínio retornados pelos use cases
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationErrors agrupa mensagens de validação por campo
type ValidationErrors map[string][]string

// Add registra uma mensagem de validação para o campo informado
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Empty indica se nenhum erro foi registrado
func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, messages := range v {
		parts = append(parts, field+": "+strings.Join(messages, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

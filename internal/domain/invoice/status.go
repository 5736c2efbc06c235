package invoice

import (
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// transitions es la tabla de la máquina de estados: origen -> destinos permitidos.
// delivered y cancelled son terminales.
var transitions = map[string][]string{
	entity.InvoiceStatusPending:   {entity.InvoiceStatusInTransit, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusInTransit: {entity.InvoiceStatusDelivered, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusDelivered: nil,
	entity.InvoiceStatusCancelled: nil,
}

// ValidStatus indica si s es un estado conocido.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal indica si no hay transiciones de salida desde s.
func IsTerminal(s string) bool {
	return ValidStatus(s) && len(transitions[s]) == 0
}

// CanTransition indica si from -> to está permitido. Mismo estado no es una transición.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition devuelve *domain.TransitionError si from -> to no está permitido.
func CheckTransition(from, to string) error {
	if !ValidStatus(to) {
		return domain.NewValidationError("status", "estado desconocido: "+to)
	}
	if !CanTransition(from, to) {
		return &domain.TransitionError{From: from, To: to}
	}
	return nil
}

// HoldsReservation indica si en ese estado el stock de la factura sigue reservado (aún no entregado).
func HoldsReservation(s string) bool {
	return s == entity.InvoiceStatusPending || s == entity.InvoiceStatusInTransit
}

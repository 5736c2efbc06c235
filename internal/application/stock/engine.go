// Package stock implementa el motor de reservas de inventario: reserva al crear la factura,
// descuento al entregar y liberación al cancelar. Toda lectura-escritura sobre un registro de
// stock ocurre con la fila bloqueada dentro de la transacción del caller.
package stock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReserveLine cantidad a reservar de un producto en una ubicación.
type ReserveLine struct {
	ProductID string
	Location  string
	Quantity  decimal.Decimal
}

// Engine motor de reservas. Reserve/Deduct/Release reciben los repos de la tx del caller;
// Adjust y las lecturas usan el store directamente.
type Engine struct {
	store           repository.Store
	defaultLocation string
	now             func() time.Time
}

// NewEngine construye el motor. defaultLocation se usa para líneas sin ubicación.
func NewEngine(store repository.Store, defaultLocation string) *Engine {
	if defaultLocation == "" {
		defaultLocation = "main"
	}
	return &Engine{store: store, defaultLocation: defaultLocation, now: func() time.Time { return time.Now().UTC() }}
}

// DefaultLocation ubicación usada cuando una línea no indica una.
func (e *Engine) DefaultLocation() string { return e.defaultLocation }

type key struct {
	productID string
	location  string
}

type amount struct {
	key
	qty decimal.Decimal
}

// aggregate suma cantidades por (producto, ubicación) y devuelve el resultado en orden de clave.
// Bloquear siempre en este orden evita deadlocks entre transacciones concurrentes.
func (e *Engine) aggregate(lines []ReserveLine) []amount {
	byKey := make(map[key]decimal.Decimal, len(lines))
	for _, l := range lines {
		loc := l.Location
		if loc == "" {
			loc = e.defaultLocation
		}
		k := key{productID: l.ProductID, location: loc}
		byKey[k] = byKey[k].Add(l.Quantity)
	}
	out := make([]amount, 0, len(byKey))
	for k, q := range byKey {
		out = append(out, amount{key: k, qty: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].productID != out[j].productID {
			return out[i].productID < out[j].productID
		}
		return out[i].location < out[j].location
	})
	return out
}

func itemLines(items []*entity.InvoiceItem) []ReserveLine {
	lines := make([]ReserveLine, 0, len(items))
	for _, it := range items {
		if !it.Stocked() {
			continue
		}
		lines = append(lines, ReserveLine{ProductID: it.ProductID, Location: it.Location, Quantity: it.Quantity})
	}
	return lines
}

// Reserve reserva todas las líneas o ninguna: ante el primer faltante devuelve
// *domain.InsufficientStockError y el caller hace rollback de su transacción.
func (e *Engine) Reserve(ctx context.Context, repos repository.Repositories, invoiceID, actorID string, lines []ReserveLine) error {
	for _, l := range lines {
		if l.ProductID == "" {
			return domain.NewValidationError("product_id", "es requerido para reservar stock")
		}
		if !l.Quantity.IsPositive() {
			return domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
	}
	now := e.now()
	for _, a := range e.aggregate(lines) {
		rec, err := repos.Stock.GetForUpdate(ctx, a.productID, a.location)
		if err != nil {
			return err
		}
		available := decimal.Zero
		if rec != nil {
			available = rec.Available()
		}
		if rec == nil || available.LessThan(a.qty) {
			return &domain.InsufficientStockError{
				ProductID: a.productID,
				Location:  a.location,
				Requested: a.qty,
				Available: available,
			}
		}
		rec.ReservedQuantity = rec.ReservedQuantity.Add(a.qty)
		rec.UpdatedAt = now
		if err := e.save(ctx, repos, rec); err != nil {
			return err
		}
		if err := e.record(ctx, repos, a.key, entity.MovementTypeReserved, a.qty, invoiceID, actorID, "reserva por factura", now); err != nil {
			return err
		}
	}
	return nil
}

// Deduct descuenta las cantidades despachadas de la factura y consume su reserva.
func (e *Engine) Deduct(ctx context.Context, repos repository.Repositories, invoiceID, actorID string) error {
	items, err := repos.Invoices.GetItems(ctx, invoiceID)
	if err != nil {
		return err
	}
	now := e.now()
	for _, a := range e.aggregate(itemLines(items)) {
		rec, err := repos.Stock.GetForUpdate(ctx, a.productID, a.location)
		if err != nil {
			return err
		}
		if rec == nil || rec.Quantity.LessThan(a.qty) {
			available := decimal.Zero
			if rec != nil {
				available = rec.Quantity
			}
			return &domain.InsufficientStockError{
				ProductID: a.productID,
				Location:  a.location,
				Requested: a.qty,
				Available: available,
			}
		}
		rec.Quantity = rec.Quantity.Sub(a.qty)
		rec.ReservedQuantity = rec.ReservedQuantity.Sub(decimal.Min(rec.ReservedQuantity, a.qty))
		rec.UpdatedAt = now
		if err := e.save(ctx, repos, rec); err != nil {
			return err
		}
		if err := e.record(ctx, repos, a.key, entity.MovementTypeOut, a.qty.Neg(), invoiceID, actorID, "salida por entrega", now); err != nil {
			return err
		}
	}
	return nil
}

// Release devuelve al disponible lo que la factura aún tiene reservado según el ledger.
// Si no hay reservas abiertas no hace nada. quantity no cambia.
func (e *Engine) Release(ctx context.Context, repos repository.Repositories, invoiceID, actorID string) error {
	open, err := e.openReservations(ctx, repos, invoiceID)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}
	now := e.now()
	for _, a := range open {
		rec, err := repos.Stock.GetForUpdate(ctx, a.productID, a.location)
		if err != nil {
			return err
		}
		if rec == nil {
			continue
		}
		qty := decimal.Min(rec.ReservedQuantity, a.qty)
		if !qty.IsPositive() {
			continue
		}
		rec.ReservedQuantity = rec.ReservedQuantity.Sub(qty)
		rec.UpdatedAt = now
		if err := e.save(ctx, repos, rec); err != nil {
			return err
		}
		if err := e.record(ctx, repos, a.key, entity.MovementTypeReleased, qty.Neg(), invoiceID, actorID, "liberación por cancelación", now); err != nil {
			return err
		}
	}
	return nil
}

// openReservations calcula, desde el ledger de la factura, lo reservado que aún no se cerró con
// una salida o una liberación. Devuelve solo claves con saldo positivo, en orden de clave.
func (e *Engine) openReservations(ctx context.Context, repos repository.Repositories, invoiceID string) ([]amount, error) {
	movs, err := repos.Movements.ListByReference(ctx, entity.ReferenceInvoice, invoiceID)
	if err != nil {
		return nil, err
	}
	var lines []ReserveLine
	for _, m := range movs {
		switch m.Type {
		case entity.MovementTypeReserved:
			lines = append(lines, ReserveLine{ProductID: m.ProductID, Location: m.Location, Quantity: m.Quantity.Abs()})
		case entity.MovementTypeOut, entity.MovementTypeReleased:
			lines = append(lines, ReserveLine{ProductID: m.ProductID, Location: m.Location, Quantity: m.Quantity.Abs().Neg()})
		}
	}
	var open []amount
	for _, a := range e.aggregate(lines) {
		if a.qty.IsPositive() {
			open = append(open, a)
		}
	}
	return open, nil
}

// HasOpenReservations indica si la factura tiene reservas sin cerrar.
func (e *Engine) HasOpenReservations(ctx context.Context, repos repository.Repositories, invoiceID string) (bool, error) {
	open, err := e.openReservations(ctx, repos, invoiceID)
	return len(open) > 0, err
}

func (e *Engine) save(ctx context.Context, repos repository.Repositories, rec *entity.Stock) error {
	if !rec.Valid() {
		return fmt.Errorf("stock %s/%s quedaría inconsistente (cantidad %s, reservado %s)",
			rec.ProductID, rec.Location, rec.Quantity, rec.ReservedQuantity)
	}
	return repos.Stock.Upsert(ctx, rec)
}

func (e *Engine) record(ctx context.Context, repos repository.Repositories, k key, typ string, qty decimal.Decimal, invoiceID, actorID, notes string, at time.Time) error {
	return repos.Movements.Create(ctx, &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     k.productID,
		Location:      k.location,
		Type:          typ,
		Quantity:      qty,
		ReferenceType: entity.ReferenceInvoice,
		ReferenceID:   invoiceID,
		Notes:         notes,
		CreatedBy:     actorID,
		CreatedAt:     at,
	})
}

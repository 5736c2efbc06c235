package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// InvoiceFilter filtros para listar facturas.
type InvoiceFilter struct {
	ClientID string
	Status   string
	Limit    int
	Offset   int
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus ítems.
type InvoiceRepository interface {
	// Create devuelve domain.ErrDuplicate si invoice_number ya existe.
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la fila de la factura (SELECT FOR UPDATE). nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	GetItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
	// RecomputeTotal fija total_amount = SUM(line_total) de los ítems persistidos y lo devuelve.
	RecomputeTotal(ctx context.Context, invoiceID string) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	// Delete borra la factura; ítems y comentarios caen en cascada. false si no existía.
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
}

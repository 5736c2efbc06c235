package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo facturas e ítems en memoria.
type InvoiceRepo struct{ v view }

func (r *InvoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	return r.v.do(func(st *state) error {
		for _, inv := range st.invoices {
			if inv.InvoiceNumber == invoice.InvoiceNumber {
				return domain.ErrDuplicate
			}
		}
		st.invoices[invoice.ID] = *invoice
		return nil
	})
}

func (r *InvoiceRepo) CreateItem(_ context.Context, item *entity.InvoiceItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	return r.v.do(func(st *state) error {
		if _, ok := st.invoices[item.InvoiceID]; !ok {
			return domain.ErrNotFound
		}
		st.items[item.InvoiceID] = append(st.items[item.InvoiceID], *item)
		return nil
	})
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.v.do(func(st *state) error {
		if inv, ok := st.invoices[id]; ok {
			out = &inv
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: la transacción completa ya es exclusiva.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *InvoiceRepo) GetItems(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	var out []*entity.InvoiceItem
	err := r.v.do(func(st *state) error {
		for _, it := range st.items[invoiceID] {
			it := it
			out = append(out, &it)
		}
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) RecomputeTotal(_ context.Context, invoiceID string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.v.do(func(st *state) error {
		inv, ok := st.invoices[invoiceID]
		if !ok {
			return domain.ErrNotFound
		}
		total := decimal.Zero
		for _, it := range st.items[invoiceID] {
			total = total.Add(it.LineTotal)
		}
		inv.TotalAmount = total
		st.invoices[invoiceID] = inv
		out = &inv
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) Update(_ context.Context, invoice *entity.Invoice) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.invoices[invoice.ID]
		if !ok {
			return domain.ErrNotFound
		}
		upd := *invoice
		upd.InvoiceDate = cur.InvoiceDate
		upd.CreatedAt = cur.CreatedAt
		upd.TotalAmount = cur.TotalAmount
		st.invoices[invoice.ID] = upd
		return nil
	})
}

func (r *InvoiceRepo) Delete(_ context.Context, id string) (bool, error) {
	var existed bool
	err := r.v.do(func(st *state) error {
		if _, ok := st.invoices[id]; !ok {
			return nil
		}
		existed = true
		delete(st.invoices, id)
		delete(st.items, id)
		kept := st.comments[:0:0]
		for _, c := range st.comments {
			if c.InvoiceID != id {
				kept = append(kept, c)
			}
		}
		st.comments = kept
		return nil
	})
	return existed, err
}

func (r *InvoiceRepo) List(_ context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var all []*entity.Invoice
	err := r.v.do(func(st *state) error {
		for _, inv := range st.invoices {
			if filter.ClientID != "" && inv.ClientID != filter.ClientID {
				continue
			}
			if filter.Status != "" && inv.Status != filter.Status {
				continue
			}
			inv := inv
			all = append(all, &inv)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, filter.Limit, filter.Offset), err
}

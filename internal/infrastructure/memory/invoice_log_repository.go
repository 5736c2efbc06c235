package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.InvoiceLogRepository = (*InvoiceLogRepo)(nil)

// InvoiceLogRepo bitácora en memoria (orden de inserción).
type InvoiceLogRepo struct{ v view }

func (r *InvoiceLogRepo) Create(_ context.Context, log *entity.InvoiceLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	return r.v.do(func(st *state) error {
		st.logs = append(st.logs, *log)
		return nil
	})
}

func (r *InvoiceLogRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.InvoiceLog, error) {
	var out []*entity.InvoiceLog
	err := r.v.do(func(st *state) error {
		for _, l := range st.logs {
			if l.InvoiceID == invoiceID {
				l := l
				out = append(out, &l)
			}
		}
		return nil
	})
	return out, err
}

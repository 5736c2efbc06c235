package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.InvoiceLogRepository = (*InvoiceLogRepo)(nil)

// InvoiceLogRepo bitácora de auditoría (usable con pool o tx).
type InvoiceLogRepo struct {
	q Querier
}

// NewInvoiceLogRepository construye el adaptador.
func NewInvoiceLogRepository(q Querier) *InvoiceLogRepo {
	return &InvoiceLogRepo{q: q}
}

// Create agrega una entrada. invoice_logs no tiene FK a invoices: la bitácora sobrevive al borrado.
func (r *InvoiceLogRepo) Create(ctx context.Context, l *entity.InvoiceLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_logs (id, invoice_id, user_id, action, old_status, new_status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.InvoiceID, nullIfEmpty(l.UserID), l.Action,
		nullIfEmpty(l.OldStatus), nullIfEmpty(l.NewStatus), l.Description, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice log: %w", err)
	}
	return nil
}

// ListByInvoice devuelve la bitácora en orden (created_at, seq).
func (r *InvoiceLogRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.InvoiceLog, error) {
	query := `
		SELECT id, invoice_id, user_id, action, old_status, new_status, description, created_at
		FROM invoice_logs WHERE invoice_id = $1 ORDER BY created_at, seq`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceLog
	for rows.Next() {
		var l entity.InvoiceLog
		var userID, oldStatus, newStatus *string
		if err := rows.Scan(&l.ID, &l.InvoiceID, &userID, &l.Action, &oldStatus, &newStatus,
			&l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice log: %w", err)
		}
		l.UserID = derefStr(userID)
		l.OldStatus = derefStr(oldStatus)
		l.NewStatus = derefStr(newStatus)
		list = append(list, &l)
	}
	return list, rows.Err()
}

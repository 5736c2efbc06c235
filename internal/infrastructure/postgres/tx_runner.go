package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.Store = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL y expone los repos sobre el pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Repos devuelve repositorios en autocommit sobre el pool.
func (r *TxRunner) Repos() repository.Repositories {
	return reposFor(r.pool)
}

// RunInTx inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func reposFor(q Querier) repository.Repositories {
	return repository.Repositories{
		Invoices:      NewInvoiceRepository(q),
		Stock:         NewStockRepository(q),
		Movements:     NewStockMovementRepository(q),
		Logs:          NewInvoiceLogRepository(q),
		Comments:      NewCommentRepository(q),
		Notifications: NewNotificationRepository(q),
		Users:         NewUserRepository(q),
		Outbox:        NewOutboxRepository(q),
	}
}

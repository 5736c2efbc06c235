package repository

import "context"

// Repositories agrupa los repositorios atados a una misma conexión o transacción.
type Repositories struct {
	Invoices      InvoiceRepository
	Stock         StockRepository
	Movements     StockMovementRepository
	Logs          InvoiceLogRepository
	Comments      CommentRepository
	Notifications NotificationRepository
	Users         UserRepository
	Outbox        OutboxRepository
}

// TxRunner ejecuta fn dentro de una transacción, con repos atados a ella.
// Commit si fn retorna nil; Rollback en cualquier otro caso.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(repos Repositories) error) error
}

// Store es el Ledger Store: repos fuera de transacción (autocommit) más el TxRunner.
type Store interface {
	TxRunner
	Repos() Repositories
}

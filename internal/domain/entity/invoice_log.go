package entity

import "time"

// Acciones registradas en la bitácora de la factura.
const (
	LogActionCreated       = "created"
	LogActionUpdated       = "updated"
	LogActionStatusChanged = "status_changed"
	LogActionComment       = "comment"
	LogActionCommentEdit   = "comment_edit"
	LogActionCommentDelete = "comment_delete"
)

// InvoiceLog es una entrada inmutable de la bitácora de auditoría.
type InvoiceLog struct {
	ID          string
	InvoiceID   string
	UserID      string
	Action      string
	OldStatus   string
	NewStatus   string
	Description string
	CreatedAt   time.Time
}

package entity

import "time"

// Tipos de notificación.
const (
	NotificationNewInvoice    = "new_invoice"
	NotificationInvoiceStatus = "invoice_status"
	NotificationInvoiceUpdate = "invoice_update"
	NotificationComment       = "comment"
)

// Notification pertenece a un único destinatario. InvoiceID es una referencia débil para deep-linking.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	InvoiceID string    `json:"invoice_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

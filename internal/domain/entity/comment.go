package entity

import "time"

// Comment es un mensaje del hilo de una factura. IsInternal = visible solo para staff.
type Comment struct {
	ID          string
	InvoiceID   string
	UserID      string
	CommentText string
	IsInternal  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

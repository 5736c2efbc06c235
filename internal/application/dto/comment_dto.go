package dto

import "time"

// PostCommentRequest body para POST /comments. user_id, si viene, debe ser el del token.
type PostCommentRequest struct {
	InvoiceID   string `json:"invoice_id" validate:"required"`
	UserID      string `json:"user_id,omitempty"`
	CommentText string `json:"comment_text" validate:"required,max=5000"`
	IsInternal  bool   `json:"is_internal"`
}

// EditCommentRequest body para PUT /comments/:id.
type EditCommentRequest struct {
	CommentText string `json:"comment_text" validate:"required,max=5000"`
}

// CommentResponse comentario en respuestas.
type CommentResponse struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	UserID      string    `json:"user_id"`
	CommentText string    `json:"comment_text"`
	IsInternal  bool      `json:"is_internal"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostCommentResponse respuesta 201 de POST /comments.
type PostCommentResponse struct {
	Message string          `json:"message"`
	Comment CommentResponse `json:"comment"`
}

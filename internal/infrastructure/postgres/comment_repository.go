package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.CommentRepository = (*CommentRepo)(nil)

// CommentRepo comentarios de facturas (usable con pool o tx).
type CommentRepo struct {
	q Querier
}

// NewCommentRepository construye el adaptador.
func NewCommentRepository(q Querier) *CommentRepo {
	return &CommentRepo{q: q}
}

func (r *CommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_comments (id, invoice_id, user_id, comment_text, is_internal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, c.ID, c.InvoiceID, c.UserID, c.CommentText, c.IsInternal, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	query := `
		SELECT id, invoice_id, user_id, comment_text, is_internal, created_at, updated_at
		FROM invoice_comments WHERE id = $1`
	var c entity.Comment
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.InvoiceID, &c.UserID, &c.CommentText, &c.IsInternal, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepo) Update(ctx context.Context, c *entity.Comment) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoice_comments SET comment_text = $2, updated_at = $3 WHERE id = $1`,
		c.ID, c.CommentText, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoice_comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByInvoice aplica el filtro de visibilidad en la consulta, no en la capa de presentación.
func (r *CommentRepo) ListByInvoice(ctx context.Context, invoiceID string, includeInternal bool) ([]*entity.Comment, error) {
	query := `
		SELECT id, invoice_id, user_id, comment_text, is_internal, created_at, updated_at
		FROM invoice_comments
		WHERE invoice_id = $1 AND ($2 OR is_internal = false)
		ORDER BY created_at, seq`
	rows, err := r.q.Query(ctx, query, invoiceID, includeInternal)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Comment
	for rows.Next() {
		var c entity.Comment
		if err := rows.Scan(&c.ID, &c.InvoiceID, &c.UserID, &c.CommentText, &c.IsInternal, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

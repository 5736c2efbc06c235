package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.CommentRepository = (*CommentRepo)(nil)

// CommentRepo comentarios en memoria.
type CommentRepo struct{ v view }

func (r *CommentRepo) Create(_ context.Context, c *entity.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.v.do(func(st *state) error {
		if _, ok := st.invoices[c.InvoiceID]; !ok {
			return domain.ErrNotFound
		}
		st.comments = append(st.comments, *c)
		return nil
	})
}

func (r *CommentRepo) GetByID(_ context.Context, id string) (*entity.Comment, error) {
	var out *entity.Comment
	err := r.v.do(func(st *state) error {
		for _, c := range st.comments {
			if c.ID == id {
				c := c
				out = &c
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *CommentRepo) Update(_ context.Context, c *entity.Comment) error {
	return r.v.do(func(st *state) error {
		for i := range st.comments {
			if st.comments[i].ID == c.ID {
				st.comments[i].CommentText = c.CommentText
				st.comments[i].UpdatedAt = c.UpdatedAt
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *CommentRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		for i := range st.comments {
			if st.comments[i].ID == id {
				st.comments = append(st.comments[:i:i], st.comments[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *CommentRepo) ListByInvoice(_ context.Context, invoiceID string, includeInternal bool) ([]*entity.Comment, error) {
	var out []*entity.Comment
	err := r.v.do(func(st *state) error {
		for _, c := range st.comments {
			if c.InvoiceID != invoiceID || (c.IsInternal && !includeInternal) {
				continue
			}
			c := c
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

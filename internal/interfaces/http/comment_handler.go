package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/internal/application/comment"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// CommentHandler hilo de comentarios de facturas.
type CommentHandler struct {
	svc *comment.Service
	log *logger.Logger
}

// NewCommentHandler construye el handler.
func NewCommentHandler(svc *comment.Service, log *logger.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: log}
}

// Post godoc
// @Summary      Publicar comentario
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.PostCommentRequest  true  "invoice_id, comment_text, is_internal"
// @Success      201   {object}  dto.PostCommentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /comments [post]
func (h *CommentHandler) Post(c *fiber.Ctx) error {
	var in dto.PostCommentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Post(c.Context(), Actor(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PostCommentResponse{Message: "comentario publicado", Comment: *out})
}

// ListByInvoice godoc
// @Summary      Comentarios de una factura
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        invoiceId  path  string  true  "ID de la factura"
// @Success      200 {array}  dto.CommentResponse
// @Router       /comments/invoice/{invoiceId} [get]
func (h *CommentHandler) ListByInvoice(c *fiber.Ctx) error {
	out, err := h.svc.List(c.Context(), Actor(c), c.Params("invoiceId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Edit PUT /comments/:id (solo el autor).
func (h *CommentHandler) Edit(c *fiber.Ctx) error {
	var in dto.EditCommentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Edit(c.Context(), Actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete DELETE /comments/:id (autor o admin).
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), Actor(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Message: "comentario eliminado"})
}

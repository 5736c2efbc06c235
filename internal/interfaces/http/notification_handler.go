package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/notification"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// NotificationHandler feed de notificaciones por usuario.
type NotificationHandler struct {
	feed *notification.FeedService
	log  *logger.Logger
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(feed *notification.FeedService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{feed: feed, log: log}
}

// ListByUser godoc
// @Summary      Notificaciones del usuario (más recientes primero)
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path   string  true   "ID del usuario"
// @Param        limit   query  int     false  "máximo 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200 {array}  entity.Notification
// @Router       /notifications/user/{userId} [get]
func (h *NotificationHandler) ListByUser(c *fiber.Ctx) error {
	out, err := h.feed.ListForUser(c.Context(), Actor(c), c.Params("userId"), pageFrom(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// UnreadCount GET /notifications/user/:userId/unread-count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.feed.UnreadCount(c.Context(), Actor(c), c.Params("userId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.UnreadCountResponse{Count: n})
}

// MarkRead PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.feed.MarkRead(c.Context(), Actor(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Message: "notificación marcada como leída"})
}

// MarkAllRead PUT /notifications/user/:userId/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.feed.MarkAllRead(c.Context(), Actor(c), c.Params("userId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.BulkResultResponse{Message: strconv.Itoa(n) + " notificaciones marcadas como leídas", Affected: n})
}

// Delete DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	if err := h.feed.Delete(c.Context(), Actor(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Message: "notificación eliminada"})
}

// ClearRead DELETE /notifications/user/:userId/read
func (h *NotificationHandler) ClearRead(c *fiber.Ctx) error {
	n, err := h.feed.ClearRead(c.Context(), Actor(c), c.Params("userId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.BulkResultResponse{Message: strconv.Itoa(n) + " notificaciones leídas eliminadas", Affected: n})
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/invoice"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// InvoiceHandler maneja las peticiones HTTP de facturas (protegido).
type InvoiceHandler struct {
	svc *invoice.Service
	log *logger.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(svc *invoice.Service, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, log: log}
}

func pageFrom(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
}

// Create godoc
// @Summary      Crear factura y reservar stock
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateInvoiceRequest  true  "factura con ítems"
// @Success      201   {object}  dto.CreateInvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Create(c.Context(), Actor(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateInvoiceResponse{
		ID:      out.ID,
		Message: "factura " + out.InvoiceNumber + " creada",
	})
}

// Update godoc
// @Summary      Cambiar estado o editar factura (staff)
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "ID de la factura"
// @Param        body  body  dto.UpdateInvoiceRequest  true  "nuevo estado y campos editables"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.ChangeStatus(c.Context(), Actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Message: "factura " + out.InvoiceNumber + " en estado " + out.Status})
}

// Delete godoc
// @Summary      Eliminar factura (admin)
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "ID de la factura"
// @Success      200 {object}  dto.MessageResponse
// @Failure      404 {object}  dto.ErrorResponse
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), Actor(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Message: "factura eliminada"})
}

// GetByID godoc
// @Summary      Detalle de factura con ítems
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "ID de la factura"
// @Success      200 {object}  dto.InvoiceResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.Context(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "pending | in_transit | delivered | cancelled"
// @Param        client_id  query  string  false  "solo staff"
// @Param        limit      query  int     false  "máximo 100"
// @Param        offset     query  int     false  "desplazamiento"
// @Success      200 {array}  dto.InvoiceResponse
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.List(c.Context(), Actor(c), dto.ListInvoicesQuery{
		Status:      c.Query("status"),
		ClientID:    c.Query("client_id"),
		PageRequest: pageFrom(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Logs godoc
// @Summary      Bitácora de la factura
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "ID de la factura"
// @Success      200 {array}  dto.InvoiceLogResponse
// @Router       /invoices/{id}/logs [get]
func (h *InvoiceHandler) Logs(c *fiber.Ctx) error {
	out, err := h.svc.Logs(c.Context(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

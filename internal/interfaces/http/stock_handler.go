package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/application/stock"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// StockHandler consulta de stock y ajustes manuales (staff).
type StockHandler struct {
	engine *stock.Engine
	log    *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(engine *stock.Engine, log *logger.Logger) *StockHandler {
	return &StockHandler{engine: engine, log: log}
}

// Get godoc
// @Summary      Stock de un producto
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path   string  true   "ID del producto"
// @Param        location   query  string  false  "ubicación (por defecto la configurada)"
// @Success      200 {object}  dto.StockResponse
// @Failure      404 {object}  dto.ErrorResponse
// @Router       /stock/{productId} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	out, err := h.engine.GetStock(c.Context(), c.Params("productId"), c.Query("location"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Movements GET /stock/:productId/movements
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	out, err := h.engine.ListMovements(c.Context(), c.Params("productId"), pageFrom(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajuste manual de stock (admin)
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.AdjustStockRequest  true  "delta con signo"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.engine.Adjust(c.Context(), Actor(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

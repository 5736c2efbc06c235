package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

const internalMessage = "error interno del servidor"

// statusFor traduce errores de dominio a (status HTTP, mensaje para el cliente).
func statusFor(err error) (int, string) {
	var verr *domain.ValidationError
	var terr *domain.TransitionError
	var serr *domain.InsufficientStockError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Error()
	case errors.As(err, &terr):
		return fiber.StatusBadRequest, terr.Error()
	case errors.As(err, &serr):
		return fiber.StatusConflict, serr.Error()
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "credenciales inválidas"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "acceso denegado"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, err.Error()
	}
	return fiber.StatusInternalServerError, internalMessage
}

// writeError responde {"error": ...}. Los 500 se registran con el detalle y salen con mensaje genérico.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, msg := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("request_id", requestID(c)).
			Msg("error interno")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "cuerpo inválido"})
}

// ErrorHandler para fiber.Config: errores no manejados por los handlers (404 de ruta, 426, panics).
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Error: fe.Message})
		}
		return writeError(c, log, err)
	}
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/pkg/jwt"
)

// Locals keys con la identidad del token.
const (
	LocalUserID   = "user_id"
	LocalRole     = "role"
	LocalClientID = "client_id"
)

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: msg})
}

// bearerToken extrae el token de "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", "Authorization header requerido"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "formato: Bearer <token>"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "token vacío"
	}
	return token, ""
}

func authenticate(c *fiber.Ctx, jwtSecret, token string) error {
	userID, clientID, role, err := jwt.Parse(jwtSecret, token)
	if err != nil {
		return unauthorized(c, "token inválido o expirado")
	}
	c.Locals(LocalUserID, userID)
	c.Locals(LocalRole, role)
	c.Locals(LocalClientID, clientID)
	return c.Next()
}

// AuthMiddleware valida el Bearer Token JWT y deja user_id, role y client_id en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, problem := bearerToken(c)
		if problem != "" {
			return unauthorized(c, problem)
		}
		return authenticate(c, jwtSecret, token)
	}
}

// RequireRole autoriza solo a los roles indicados. Usar después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return unauthorized(c, "el token no incluye rol")
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "acceso denegado para el rol " + role})
	}
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetClientID devuelve el client_id del token (vacío para staff).
func GetClientID(c *fiber.Ctx) string { return localString(c, LocalClientID) }

// Actor arma la identidad explícita que reciben los casos de uso.
func Actor(c *fiber.Ctx) entity.Actor {
	return entity.Actor{UserID: GetUserID(c), Role: GetRole(c), ClientID: GetClientID(c)}
}

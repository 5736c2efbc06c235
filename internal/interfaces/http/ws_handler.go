package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/logistica-api/internal/infrastructure/realtime"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// WSHandler une cada conexión WebSocket a la sala de su usuario en el hub.
type WSHandler struct {
	hub *realtime.Hub
	log *logger.Logger
}

// NewWSHandler construye el handler.
func NewWSHandler(hub *realtime.Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

// Upgrade exige un upgrade WebSocket y un JWT válido en ?token= (o en Authorization).
// Los navegadores no pueden enviar headers en el handshake, de ahí el query param.
func (h *WSHandler) Upgrade(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		token := c.Query("token")
		if token == "" {
			var problem string
			if token, problem = bearerToken(c); problem != "" {
				return unauthorized(c, "token requerido en ?token=")
			}
		}
		return authenticate(c, jwtSecret, token)
	}
}

// Serve mantiene la sesión abierta hasta que el cliente cierra. El servidor solo emite
// {"event":"new_notification","data":...}; los mensajes entrantes se descartan.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(LocalUserID).(string)
		if userID == "" {
			_ = conn.Close()
			return
		}
		leave := h.hub.Join(userID, conn)
		defer leave()
		h.log.Debug().Str("user_id", userID).Int("sessions", h.hub.Online(userID)).Msg("websocket conectado")

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.log.Debug().Str("user_id", userID).Err(err).Msg("websocket cerrado")
				return
			}
		}
	})
}

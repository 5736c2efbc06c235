package notification

// EventNewNotification nombre del evento que recibe el cliente WebSocket.
const EventNewNotification = "new_notification"

// Push mensaje entregado a una sesión en vivo: {"event": "...", "data": ...}.
type Push struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

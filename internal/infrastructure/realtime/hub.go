// Package realtime mantiene el directorio de presencia: sesiones WebSocket abiertas por usuario.
// Es un directorio en memoria de un solo proceso.
package realtime

import (
	"errors"
	"fmt"
	"sync"

	domainnotif "github.com/jhoicas/logistica-api/internal/domain/notification"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// Conn es lo que el hub necesita de una conexión (websocket.Conn lo cumple).
type Conn interface {
	WriteJSON(v interface{}) error
}

// session serializa las escrituras: una conexión WebSocket no admite escritores concurrentes.
type session struct {
	mu   sync.Mutex
	conn Conn
}

func (s *session) write(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub sala por usuario: cada usuario tiene cero o más sesiones abiertas.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*session]struct{}
	log   *logger.Logger
}

// NewHub construye un hub vacío.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{rooms: make(map[string]map[*session]struct{}), log: log.Named("realtime")}
}

// Join agrega la conexión a la sala del usuario. La función devuelta la retira (idempotente).
func (h *Hub) Join(userID string, conn Conn) (leave func()) {
	s := &session{conn: conn}
	h.mu.Lock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*session]struct{})
		h.rooms[userID] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Str("user_id", userID).Msg("sesión unida")

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(userID, s) })
	}
}

func (h *Hub) remove(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[userID]
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, userID)
	}
}

// Online número de sesiones abiertas del usuario.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Publish entrega el push a todas las sesiones del usuario. Sin sesiones no es error.
// Las sesiones que fallan al escribir se retiran de la sala.
func (h *Hub) Publish(userID string, push domainnotif.Push) error {
	h.mu.RLock()
	sessions := make([]*session, 0, len(h.rooms[userID]))
	for s := range h.rooms[userID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	var errs []error
	for _, s := range sessions {
		if err := s.write(push); err != nil {
			h.remove(userID, s)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("push a %s: %d de %d sesiones fallaron: %w", userID, len(errs), len(sessions), errors.Join(errs...))
	}
	return nil
}

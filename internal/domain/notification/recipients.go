// Package notification contiene las reglas puras de destinatarios del fanout de notificaciones.
package notification

import (
	"sort"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// Event es un evento de dominio que produce notificaciones.
type Event struct {
	Type          string       `json:"type"`
	InvoiceID     string       `json:"invoice_id"`
	InvoiceNumber string       `json:"invoice_number,omitempty"`
	ClientID      string       `json:"client_id"`
	Actor         entity.Actor `json:"actor"`
	Title         string       `json:"title"`
	Message       string       `json:"message"`
	IsInternal    bool         `json:"is_internal,omitempty"`
}

// Recipients calcula el conjunto de destinatarios de un evento.
// staff son los usuarios admin/accountant; clientUsers los usuarios del cliente dueño de la factura.
// El resultado no tiene duplicados, excluye al actor y va ordenado por id.
func Recipients(evt Event, staff, clientUsers []*entity.User) []string {
	var pool []*entity.User
	switch evt.Type {
	case entity.NotificationNewInvoice:
		if evt.Actor.IsClient() {
			pool = staff
		}
	case entity.NotificationInvoiceStatus, entity.NotificationInvoiceUpdate:
		pool = clientUsers
	case entity.NotificationComment:
		switch {
		case evt.Actor.IsClient():
			pool = staff
		case evt.Actor.IsStaff() && !evt.IsInternal:
			pool = clientUsers
		}
	}
	return collect(evt, pool)
}

// NeedsStaff indica si Recipients puede necesitar la lista de staff para este evento.
func NeedsStaff(evt Event) bool {
	switch evt.Type {
	case entity.NotificationNewInvoice, entity.NotificationComment:
		return evt.Actor.IsClient()
	}
	return false
}

// NeedsClientUsers indica si Recipients puede necesitar los usuarios del cliente.
func NeedsClientUsers(evt Event) bool {
	switch evt.Type {
	case entity.NotificationInvoiceStatus, entity.NotificationInvoiceUpdate:
		return evt.ClientID != ""
	case entity.NotificationComment:
		return evt.Actor.IsStaff() && !evt.IsInternal && evt.ClientID != ""
	}
	return false
}

func collect(evt Event, pool []*entity.User) []string {
	seen := make(map[string]struct{}, len(pool))
	out := make([]string, 0, len(pool))
	for _, u := range pool {
		if u == nil || u.ID == "" || u.ID == evt.Actor.UserID {
			continue
		}
		if !eligible(evt, u) {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u.ID)
	}
	sort.Strings(out)
	return out
}

// eligible filtra por rol aunque el llamador pase listas mezcladas:
// un comentario interno nunca llega a un usuario client.
func eligible(evt Event, u *entity.User) bool {
	switch evt.Type {
	case entity.NotificationNewInvoice:
		return entity.IsStaffRole(u.Role)
	case entity.NotificationInvoiceStatus, entity.NotificationInvoiceUpdate:
		return u.Role == entity.RoleClient && u.ClientID == evt.ClientID
	case entity.NotificationComment:
		if u.Role == entity.RoleClient {
			return !evt.IsInternal && u.ClientID == evt.ClientID
		}
		return entity.IsStaffRole(u.Role)
	}
	return false
}

package entity

// Actor identifica a quien ejecuta una operación. Se pasa explícitamente por cada llamada.
type Actor struct {
	UserID   string
	Role     string
	ClientID string
}

// IsClient indica si el actor es un usuario del lado del cliente.
func (a Actor) IsClient() bool { return a.Role == RoleClient }

// IsStaff indica si el actor es admin o accountant.
func (a Actor) IsStaff() bool { return IsStaffRole(a.Role) }

// IsAdmin indica si el actor es administrador.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanSeeClient indica si el actor puede operar sobre datos del cliente dado.
func (a Actor) CanSeeClient(clientID string) bool {
	if a.IsStaff() {
		return true
	}
	return a.IsClient() && a.ClientID != "" && a.ClientID == clientID
}

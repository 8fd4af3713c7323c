package entity

import "time"

// Roles de usuario.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User usuario de la aplicación. El ledger solo registra su ID como actor;
// autenticación y autorización viven en la capa HTTP.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package auth

// Operator roles stored in admin_users.role.
const (
	RoleViewer = "viewer" // event list and wallet audits
	RoleTrader = "trader" // creates events and sets results
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is a known operator role.
func ValidRole(role string) bool {
	switch role {
	case RoleViewer, RoleTrader, RoleAdmin:
		return true
	}
	return false
}

// EventWriteRoles returns the roles allowed to create events and grade them
// by setting a final score.
func EventWriteRoles() []string {
	return []string{RoleTrader, RoleAdmin}
}

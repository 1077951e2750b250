package auth

// Role is the portal role of an account.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may manage facilities: approve bookings,
// block resources for maintenance and schedule exams.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

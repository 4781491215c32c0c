package identity

// Role is the system-wide role of an authenticated user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Actor is the already-authenticated caller of an operation.
// It is produced by the transport layer (JWT claims) and handed down;
// services never resolve identity themselves.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

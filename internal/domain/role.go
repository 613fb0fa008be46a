package domain

import "strings"

// Role is the closed set of user roles
type Role string

const (
	RoleStudent Role = "Student" // Posts tuition requests and pays tutors
	RoleTutor   Role = "Tutor"   // Applies to tuition posts
	RoleAdmin   Role = "Admin"   // Moderates posts and users
)

// ParseRole returns the Role matching s, or false when s is not a known role
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return r, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// NormalizeEmail lower-cases and trims an email for identity comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

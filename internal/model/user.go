package model

// Role identifies the permission level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an identity participating in mail exchange. Accounts are
// append-only: once created they are never removed, and only an explicit
// admin update may change them.
type User struct {
	// ID is the unique identifier for this user.
	ID string `json:"id"`

	// Name is the display name shown in lists and message headers.
	Name string `json:"name"`

	// Email is the address as entered; it is not validated against a
	// real domain.
	Email string `json:"email"`

	// Role controls access to the admin views.
	Role Role `json:"role"`

	// Avatar is an image reference (URL or data URL). Empty means the
	// placeholder derived from the user ID.
	Avatar string `json:"avatar,omitempty"`

	// Certified marks accounts carrying the verified badge.
	Certified bool `json:"certified,omitempty"`
}

// IsAdmin reports whether the user may open the admin views.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

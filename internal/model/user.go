package model

import "time"

// Role names as the backend reports them in users.role.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the authenticated identity held by the session store and
// persisted as the user snapshot.  It is the client-side shape of the
// backend's user record: Name maps to full_name and Phone to
// phone_number on the wire.
//
// Fields:
//
//	ID        – backend user id (opaque string).
//	Email     – login email.
//	Name      – display name.
//	Role      – customer or admin.
//	Phone     – optional phone number.
//	Address   – optional free-text address.
//	CreatedAt – account creation timestamp.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone_number,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may use the admin console.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

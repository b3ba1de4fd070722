package model

import "time"

// User represents an account as stored in the `users` table.  Employees and
// administrators share the table and are told apart by IsAdmin.  The json
// tags shape the record returned by login; the credential is never
// serialized.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hash (legacy rows may still hold an MD5 digest).
//	Department   – free-form department label.
//	IsAdmin      – administrators review leave and cannot apply for it.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Department   string    `json:"department"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role returns the JWT role claim for the user.
func (u User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleEmployee
}

// Role names carried in access tokens.
const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token handed to the client is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Stats summarizes the store for the health endpoint.
type Stats struct {
	Users  int64
	Leaves int64
}

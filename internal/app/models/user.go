package models

type Role string

const (
	RoleOwner  Role = "owner"
	RoleWalker Role = "walker"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleWalker
}

// UserCredential carries the stored bcrypt hash and must never be serialised.
type UserCredential struct {
	ID           int64
	Username     string
	Email        string
	Role         Role
	PasswordHash string
}

// SessionUser is the identity snapshot kept in a session.
type SessionUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

type RegisterUserParams struct {
	Username string
	Email    string
	Password string
	Role     Role
}

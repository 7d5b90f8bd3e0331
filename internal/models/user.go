package models

import "time"

// Role gates catalog administration.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN_USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserProfile maps an identity-provider principal to an application role.
type UserProfile struct {
	ID       string `json:"id" bson:"_id"`
	UserID   string `json:"userId" bson:"userId"`
	Username string `json:"username" bson:"username"`
	Role     Role   `json:"role" bson:"role"`
}

// WithID returns a copy of the profile carrying the given identifier.
func (p UserProfile) WithID(id string) UserProfile {
	p.ID = id
	return p
}

// Credential is an email/password account held by the built-in identity provider.
type Credential struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"passwordHash" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// WithID returns a copy of the credential carrying the given identifier.
func (c Credential) WithID(id string) Credential {
	c.ID = id
	return c
}

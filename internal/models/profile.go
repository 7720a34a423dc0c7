package models

import "time"

// Profile is the public identity of a registered user.
type Profile struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Credential carries the stored password hash alongside the profile. It never
// leaves the repository layer.
type Credential struct {
	Profile
	PasswordHash string `db:"password_hash" json:"-"`
}

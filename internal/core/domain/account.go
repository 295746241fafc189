package domain

import "time"

// Account models the authentication identity behind a profile. The account
// and its profile are separate documents; the account carries credentials,
// the profile carries marketplace data.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfileID    string    `json:"profile_id"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

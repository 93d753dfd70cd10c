package account

import "time"

// Account is a registered user. The prediction and scoring layers only
// ever see the username key.
type Account struct {
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}

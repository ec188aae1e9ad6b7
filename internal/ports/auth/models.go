package auth

import "time"

// Claims representa la información extraída del token.
type Claims struct {
	UserID    string
	Username  string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

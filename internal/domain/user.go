package domain

import "time"

// User represents a registered member of the site.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	AvatarURL    string
	MemberSince  time.Time
}

// Identity is the caller resolved for a single request. The zero value is anonymous.
type Identity struct {
	UserID int64
}

// Anonymous reports whether no user is attached to the request.
func (i Identity) Anonymous() bool {
	return i.UserID <= 0
}

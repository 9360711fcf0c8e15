package domain

import "time"

// Session is server-side login state keyed by an opaque token.
type Session struct {
	Token     string
	UserID    int64
	LoggedIn  bool
	ExpiresAt time.Time
}

// Active reports whether the session still authenticates its user at t.
func (s Session) Active(t time.Time) bool {
	return s.LoggedIn && s.UserID > 0 && t.Before(s.ExpiresAt)
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"sharestuff/internal/domain"
	"sharestuff/internal/session"
)

// CookieName carries the opaque session token.
const CookieName = "sharestuff_session"

// Resolver resolves the identity of the caller of a request.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) (domain.Identity, bool)
}

// SessionResolver resolves identity from the session cookie.
type SessionResolver struct {
	Sessions session.Store
}

func (s SessionResolver) Resolve(ctx context.Context, r *http.Request) (domain.Identity, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return domain.Identity{}, false
	}
	return s.ResolveToken(ctx, c.Value)
}

// ResolveToken is the gate itself: a function of the session store and a token.
func (s SessionResolver) ResolveToken(ctx context.Context, token string) (domain.Identity, bool) {
	sess, ok := s.Sessions.Get(ctx, token)
	if !ok || !sess.LoggedIn || sess.UserID <= 0 {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: sess.UserID}, true
}

// UserLookup finds the stored user behind a token subject.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// BearerResolver resolves identity from an "Authorization: Bearer <jwt>" header.
// A token only counts when its subject is a stored user with the same username.
type BearerResolver struct {
	Tokens *TokenIssuer
	Users  UserLookup
}

func (b BearerResolver) Resolve(ctx context.Context, r *http.Request) (domain.Identity, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return domain.Identity{}, false
	}
	if b.Tokens == nil || b.Users == nil {
		return domain.Identity{}, false
	}
	userID, username, err := b.Tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
	if err != nil {
		return domain.Identity{}, false
	}
	user, err := b.Users.GetByID(ctx, userID)
	if err != nil || user == nil || user.Username != username {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: user.ID}, true
}

// Chain returns the first identity any of its resolvers produces.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, r *http.Request) (domain.Identity, bool) {
	for _, resolver := range c {
		if resolver == nil {
			continue
		}
		if id, ok := resolver.Resolve(ctx, r); ok {
			return id, true
		}
	}
	return domain.Identity{}, false
}

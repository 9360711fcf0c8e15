package domain

import "time"

// Post is a text post shown on the home feed.
type Post struct {
	ID             int64
	Title          string
	Content        string
	AuthorUsername string
	AuthorID       int64
	CreatedAt      time.Time
	Likes          int
}

// OwnedBy reports whether userID authored the post.
func (p Post) OwnedBy(userID int64) bool {
	return userID > 0 && p.AuthorID == userID
}

// Like records that a user currently likes a post.
type Like struct {
	UserID int64
	PostID int64
}

// LikeToggle is the state of a (user, post) pair after a toggle.
type LikeToggle struct {
	Liked bool
	Likes int
}

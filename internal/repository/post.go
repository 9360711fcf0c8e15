package repository

import (
	"context"

	"sharestuff/internal/domain"
)

// PostRepository exposes persistence operations for posts.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	// List returns every post, most recent first.
	List(ctx context.Context) ([]domain.Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]domain.Post, error)
	// DeleteOwned removes the post only when authorID wrote it.
	DeleteOwned(ctx context.Context, id, authorID int64) (bool, error)
}

// LikeRepository is the ledger of (user, post) likes. Implementations keep
// Post.Likes equal to the number of ledger entries for the post.
type LikeRepository interface {
	Init(ctx context.Context) error
	Toggle(ctx context.Context, userID, postID int64) (domain.LikeToggle, error)
	Exists(ctx context.Context, userID, postID int64) (bool, error)
	LikedPostIDs(ctx context.Context, userID int64) ([]int64, error)
}

package memory

import (
	"context"
	"fmt"

	"sharestuff/internal/domain"
	"sharestuff/internal/repository"
)

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	return nil
}

// Create assigns the next id from a counter that only grows, so ids of
// deleted posts are never handed out again.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.lastPostID++
	post.ID = r.db.lastPostID
	post.CreatedAt = r.db.now()
	post.Likes = 0

	stored := *post
	r.db.posts = append(r.db.posts, &stored)
	return post.ID, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, stored := r.db.findPost(id)
	if stored == nil {
		return nil, fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}
	post := *stored
	return &post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	posts := make([]domain.Post, 0, len(r.db.posts))
	for i := len(r.db.posts) - 1; i >= 0; i-- {
		posts = append(posts, *r.db.posts[i])
	}
	return posts, nil
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]domain.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var posts []domain.Post
	for i := len(r.db.posts) - 1; i >= 0; i-- {
		if r.db.posts[i].AuthorID == authorID {
			posts = append(posts, *r.db.posts[i])
		}
	}
	return posts, nil
}

func (r *PostRepository) DeleteOwned(ctx context.Context, id, authorID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	idx, stored := r.db.findPost(id)
	if stored == nil || !stored.OwnedBy(authorID) {
		return false, nil
	}

	r.db.posts = append(r.db.posts[:idx], r.db.posts[idx+1:]...)
	for like := range r.db.likes {
		if like.PostID == id {
			delete(r.db.likes, like)
		}
	}
	return true, nil
}

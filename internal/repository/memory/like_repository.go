package memory

import (
	"context"
	"fmt"
	"sort"

	"sharestuff/internal/domain"
	"sharestuff/internal/repository"
)

type LikeRepository struct {
	db *DB
}

func NewLikeRepository(db *DB) repository.LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Init(ctx context.Context) error {
	return nil
}

// Toggle flips the (userID, postID) pair and adjusts the post counter while
// holding the write lock for both.
func (r *LikeRepository) Toggle(ctx context.Context, userID, postID int64) (domain.LikeToggle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, post := r.db.findPost(postID)
	if post == nil {
		return domain.LikeToggle{}, fmt.Errorf("post %d: %w", postID, repository.ErrNotFound)
	}

	key := domain.Like{UserID: userID, PostID: postID}
	if _, liked := r.db.likes[key]; liked {
		delete(r.db.likes, key)
		if post.Likes > 0 {
			post.Likes--
		}
		return domain.LikeToggle{Liked: false, Likes: post.Likes}, nil
	}

	r.db.likes[key] = struct{}{}
	post.Likes++
	return domain.LikeToggle{Liked: true, Likes: post.Likes}, nil
}

func (r *LikeRepository) Exists(ctx context.Context, userID, postID int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.likes[domain.Like{UserID: userID, PostID: postID}]
	return ok, nil
}

func (r *LikeRepository) LikedPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var ids []int64
	for like := range r.db.likes {
		if like.UserID == userID {
			ids = append(ids, like.PostID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

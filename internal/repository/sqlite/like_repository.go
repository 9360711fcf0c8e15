package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sharestuff/internal/domain"
	"sharestuff/internal/repository"
)

const createLikesTable = `
CREATE TABLE IF NOT EXISTS likes (
	user_id INTEGER NOT NULL REFERENCES users(id),
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, post_id)
);
`

type LikeRepository struct {
	db *sql.DB
}

func NewLikeRepository(db *sql.DB) repository.LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLikesTable); err != nil {
		return fmt.Errorf("create likes table: %w", err)
	}
	return nil
}

// Toggle runs the ledger change and the counter change in one transaction.
func (r *LikeRepository) Toggle(ctx context.Context, userID, postID int64) (domain.LikeToggle, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.LikeToggle{}, fmt.Errorf("begin toggle like: %w", err)
	}
	defer tx.Rollback()

	var likes int
	if err := tx.QueryRowContext(ctx, `SELECT likes FROM posts WHERE id = ?`, postID).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LikeToggle{}, fmt.Errorf("post %d: %w", postID, repository.ErrNotFound)
		}
		return domain.LikeToggle{}, fmt.Errorf("load post likes: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE user_id = ? AND post_id = ?`, userID, postID)
	if err != nil {
		return domain.LikeToggle{}, fmt.Errorf("delete like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return domain.LikeToggle{}, fmt.Errorf("delete like rows affected: %w", err)
	}

	liked := removed == 0
	if liked {
		if _, err := tx.ExecContext(ctx, `INSERT INTO likes (user_id, post_id) VALUES (?, ?)`, userID, postID); err != nil {
			return domain.LikeToggle{}, fmt.Errorf("insert like: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET likes = likes + 1 WHERE id = ?`, postID); err != nil {
			return domain.LikeToggle{}, fmt.Errorf("increment likes: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET likes = likes - 1 WHERE id = ? AND likes > 0`, postID); err != nil {
			return domain.LikeToggle{}, fmt.Errorf("decrement likes: %w", err)
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT likes FROM posts WHERE id = ?`, postID).Scan(&likes); err != nil {
		return domain.LikeToggle{}, fmt.Errorf("reload post likes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.LikeToggle{}, fmt.Errorf("commit toggle like: %w", err)
	}
	return domain.LikeToggle{Liked: liked, Likes: likes}, nil
}

func (r *LikeRepository) Exists(ctx context.Context, userID, postID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM likes WHERE user_id = ? AND post_id = ?`, userID, postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return true, nil
}

func (r *LikeRepository) LikedPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT post_id FROM likes WHERE user_id = ? ORDER BY post_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked posts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan liked post: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked posts: %w", err)
	}
	return ids, nil
}

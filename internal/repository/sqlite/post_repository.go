package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sharestuff/internal/domain"
	"sharestuff/internal/repository"
)

// AUTOINCREMENT keeps ids of deleted posts from being reused.
const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES users(id),
	author_username TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0)
);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
`

const selectPostColumns = `SELECT id, title, content, author_id, author_username, created_at, likes FROM posts`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	post.CreatedAt = time.Now().UTC()
	post.Likes = 0

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (title, content, author_id, author_username, created_at, likes)
VALUES (?, ?, ?, ?, ?, 0)`,
		post.Title,
		post.Content,
		post.AuthorID,
		post.AuthorUsername,
		post.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, selectPostColumns+` WHERE id = ?`, id)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
		}
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	return r.query(ctx, selectPostColumns+` ORDER BY id DESC`)
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]domain.Post, error) {
	return r.query(ctx, selectPostColumns+` WHERE author_id = ? ORDER BY id DESC`, authorID)
}

func (r *PostRepository) DeleteOwned(ctx context.Context, id, authorID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete post: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete post likes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete post: %w", err)
	}
	return true, nil
}

func (r *PostRepository) query(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func scanPost(row interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&post.AuthorUsername,
		&post.CreatedAt,
		&post.Likes,
	); err != nil {
		return nil, err
	}
	return &post, nil
}

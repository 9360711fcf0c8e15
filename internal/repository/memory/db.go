package memory

import (
	"sync"
	"time"

	"sharestuff/internal/domain"
)

// DB is the shared in-process state behind the memory repositories. One lock
// covers users, posts and the like ledger so a toggle can update the ledger
// and the post counter together.
type DB struct {
	mu sync.RWMutex

	users     map[int64]*domain.User
	usernames map[string]int64
	maxUserID int64

	posts      []*domain.Post // insertion order
	lastPostID int64

	likes map[domain.Like]struct{}

	now func() time.Time
}

// Open returns an empty in-memory database.
func Open() *DB {
	return &DB{
		users:     make(map[int64]*domain.User),
		usernames: make(map[string]int64),
		likes:     make(map[domain.Like]struct{}),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for MemberSince and CreatedAt.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	db.now = now
	db.mu.Unlock()
}

func (db *DB) findPost(id int64) (int, *domain.Post) {
	for i, p := range db.posts {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

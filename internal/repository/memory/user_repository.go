package memory

import (
	"context"
	"fmt"
	"time"

	"sharestuff/internal/domain"
	"sharestuff/internal/repository"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.usernames[user.Username]; exists {
		return 0, fmt.Errorf("user %q: %w", user.Username, repository.ErrDuplicate)
	}

	r.db.maxUserID++
	user.ID = r.db.maxUserID
	user.MemberSince = r.db.now().Truncate(time.Minute)

	stored := *user
	r.db.users[stored.ID] = &stored
	r.db.usernames[stored.Username] = stored.ID
	return user.ID, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.usernames[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
	}
	user := *r.db.users[id]
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	stored, ok := r.db.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}
	user := *stored
	return &user, nil
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id int64, avatarURL string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}
	stored.AvatarURL = avatarURL
	return nil
}

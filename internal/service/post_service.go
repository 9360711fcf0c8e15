package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"sharestuff/internal/domain"
	"sharestuff/internal/metrics"
	"sharestuff/internal/repository"
)

// ProfilePost is a post shown on its author's profile page.
type ProfilePost struct {
	domain.Post
	CanEdit bool
}

// Profile is the data behind the profile page.
type Profile struct {
	User  domain.User
	Posts []ProfilePost
}

// PostService coordinates post level operations backed by repositories.
type PostService interface {
	List(ctx context.Context) ([]domain.Post, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	Create(ctx context.Context, who domain.Identity, title, content string) (*domain.Post, error)
	Delete(ctx context.Context, who domain.Identity, id int64) error
	Profile(ctx context.Context, who domain.Identity) (*Profile, error)
}

type postService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository) PostService {
	return &postService{
		posts: posts,
		users: users,
	}
}

func (s *postService) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) Create(ctx context.Context, who domain.Identity, title, content string) (*domain.Post, error) {
	author, err := resolveUser(ctx, s.users, who)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	post := &domain.Post{
		Title:          title,
		Content:        content,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	metrics.PostsCreated.Inc()
	return post, nil
}

func (s *postService) Delete(ctx context.Context, who domain.Identity, id int64) error {
	user, err := resolveUser(ctx, s.users, who)
	if err != nil {
		return err
	}

	deleted, err := s.posts.DeleteOwned(ctx, id, user.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFoundOrForbidden
	}

	metrics.PostsDeleted.Inc()
	return nil
}

func (s *postService) Profile(ctx context.Context, who domain.Identity) (*Profile, error) {
	user, err := resolveUser(ctx, s.users, who)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User: *sanitizeUser(user),
		Posts: lo.Map(posts, func(p domain.Post, _ int) ProfilePost {
			return ProfilePost{Post: p, CanEdit: p.OwnedBy(user.ID)}
		}),
	}, nil
}

// resolveUser maps the request identity to a stored user. An identity whose
// user does not exist counts as logged out.
func resolveUser(ctx context.Context, users repository.UserRepository, who domain.Identity) (*domain.User, error) {
	if who.Anonymous() {
		return nil, ErrUnauthenticated
	}
	user, err := users.GetByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

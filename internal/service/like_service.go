package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"sharestuff/internal/domain"
	"sharestuff/internal/metrics"
	"sharestuff/internal/repository"
)

// LikeService implements the like/unlike state machine for (user, post) pairs.
type LikeService interface {
	Toggle(ctx context.Context, who domain.Identity, postID int64) (domain.LikeToggle, error)
	LikedPosts(ctx context.Context, who domain.Identity) (map[int64]bool, error)
}

type likeService struct {
	likes  repository.LikeRepository
	posts  repository.PostRepository
	users  repository.UserRepository
	logger *logrus.Logger
}

func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, users repository.UserRepository, logger *logrus.Logger) LikeService {
	if logger == nil {
		logger = logrus.New()
	}
	return &likeService{
		likes:  likes,
		posts:  posts,
		users:  users,
		logger: logger,
	}
}

func (s *likeService) Toggle(ctx context.Context, who domain.Identity, postID int64) (domain.LikeToggle, error) {
	user, err := resolveUser(ctx, s.users, who)
	if err != nil {
		return domain.LikeToggle{}, err
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.LikeToggle{}, ErrPostNotFound
		}
		return domain.LikeToggle{}, err
	}

	logger := s.logger.WithFields(logrus.Fields{"user_id": user.ID, "post_id": postID})
	if post.OwnedBy(user.ID) {
		logger.Info("user tried to like their own post")
		metrics.LikeToggles.WithLabelValues("self").Inc()
		return domain.LikeToggle{Liked: false, Likes: post.Likes}, ErrSelfLikeRejected
	}

	// the post may be deleted between Get and Toggle; the ledger re-checks under its lock
	res, err := s.likes.Toggle(ctx, user.ID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.LikeToggle{}, ErrPostNotFound
		}
		return domain.LikeToggle{}, err
	}

	state := "unliked"
	if res.Liked {
		state = "liked"
	}
	metrics.LikeToggles.WithLabelValues(state).Inc()
	logger.WithField("likes", res.Likes).Debugf("post %s", state)
	return res, nil
}

func (s *likeService) LikedPosts(ctx context.Context, who domain.Identity) (map[int64]bool, error) {
	if who.Anonymous() {
		return map[int64]bool{}, nil
	}
	ids, err := s.likes.LikedPostIDs(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	return lo.Associate(ids, func(id int64) (int64, bool) {
		return id, true
	}), nil
}

package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/url"

	"github.com/sirupsen/logrus"

	"sharestuff/internal/metrics"
	"sharestuff/internal/repository"
	"sharestuff/internal/service"
	"sharestuff/internal/storage"
)

// ErrUserNotFound is returned for avatars of unknown users.
var ErrUserNotFound = errors.New("user not found")

// Service serves letter avatars, drawing each one once and reading it back
// from storage afterwards.
type Service struct {
	store  storage.Service
	users  service.UserService
	size   int
	logger *logrus.Logger
}

func NewService(store storage.Service, users service.UserService, size int, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	if size <= 0 {
		size = 100
	}
	return &Service{
		store:  store,
		users:  users,
		size:   size,
		logger: logger,
	}
}

// URL is the public path of a user's avatar.
func URL(username string) string {
	return "/avatar/" + url.PathEscape(username)
}

func objectKey(username string) string {
	return "avatars/" + url.PathEscape(username) + ".png"
}

// Avatar returns the PNG for username.
func (s *Service) Avatar(ctx context.Context, username string) ([]byte, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	key := objectKey(user.Username)
	data, err := s.cached(ctx, key)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}

	data, err = Render(Letter(user.Username), s.size)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, key, bytes.NewReader(data), "image/png"); err != nil {
		// still serve the freshly drawn image
		s.logger.WithField("username", user.Username).Warnf("store avatar: %v", err)
		return data, nil
	}
	metrics.AvatarRenders.Inc()

	if user.AvatarURL == "" {
		if err := s.users.SetAvatarURL(ctx, user.ID, URL(user.Username)); err != nil {
			s.logger.WithField("username", user.Username).Warnf("set avatar url: %v", err)
		}
	}
	return data, nil
}

// cached returns the stored avatar under key, or nil when there is none. A
// stored image that is unreadable or drawn at another size is deleted so it
// gets redrawn.
func (s *Service) cached(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read avatar %s: %w", key, err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err == nil && cfg.Width == s.size {
		return data, nil
	}

	s.logger.WithField("key", key).Info("dropping stale avatar")
	if err := s.store.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete stale avatar %s: %w", key, err)
	}
	return nil, nil
}

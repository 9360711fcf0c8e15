package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"sharestuff/internal/domain"
)

const seedPassword = "sss"

var seedAccounts = []struct {
	username string
	title    string
	content  string
}{
	{username: "SampleUser", title: "Sample Post", content: "This is a sample post."},
	{username: "AnotherUser", title: "Another Post", content: "This is another sample post."},
}

// Seed creates the demo accounts and one post for each. Accounts that already
// exist are left alone, so running it against a persistent store is safe.
func Seed(ctx context.Context, users UserService, posts PostService, logger *logrus.Logger) error {
	for _, acc := range seedAccounts {
		user, err := users.Register(ctx, acc.username, seedPassword)
		if errors.Is(err, ErrUserAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", acc.username, err)
		}
		if _, err := posts.Create(ctx, domain.Identity{UserID: user.ID}, acc.title, acc.content); err != nil {
			return fmt.Errorf("seed post for %s: %w", acc.username, err)
		}
		if logger != nil {
			logger.WithField("user_id", user.ID).Infof("seeded %s", acc.username)
		}
	}
	return nil
}

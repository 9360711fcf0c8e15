package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharestuff/internal/domain"
	"sharestuff/internal/repository"
)

type testRepos struct {
	users repository.UserRepository
	posts repository.PostRepository
	likes repository.LikeRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db := Open()
	db.SetClock(func() time.Time { return time.Date(2024, 1, 2, 9, 30, 45, 0, time.UTC) })
	return testRepos{
		users: NewUserRepository(db),
		posts: NewPostRepository(db),
		likes: NewLikeRepository(db),
	}
}

func (r testRepos) mustUser(t *testing.T, name string) *domain.User {
	t.Helper()
	user := &domain.User{Username: name, PasswordHash: "x"}
	_, err := r.users.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func (r testRepos) mustPost(t *testing.T, author *domain.User, title string) *domain.Post {
	t.Helper()
	post := &domain.Post{Title: title, Content: "content", AuthorID: author.ID, AuthorUsername: author.Username}
	_, err := r.posts.Create(context.Background(), post)
	require.NoError(t, err)
	return post
}

func TestUserRepository_CreateAssignsIncreasingIDs(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	b := repos.mustUser(t, "bob")
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), a.MemberSince)

	found, err := repos.users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)

	_, err = repos.users.GetByUsername(ctx, "Bob")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repos.users.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_RejectsDuplicateUsername(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	repos.mustUser(t, "alice")
	_, err := repos.users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "other"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := repos.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "x", found.PasswordHash)
}

func TestUserRepository_UpdateAvatarURL(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	require.NoError(t, repos.users.UpdateAvatarURL(ctx, a.ID, "/avatar/alice"))

	found, err := repos.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/avatar/alice", found.AvatarURL)

	assert.ErrorIs(t, repos.users.UpdateAvatarURL(ctx, 99, "x"), repository.ErrNotFound)
}

func TestPostRepository_ListMostRecentFirst(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	repos.mustPost(t, a, "first")
	repos.mustPost(t, a, "second")

	posts, err := repos.posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)
	assert.Equal(t, "first", posts[1].Title)

	posts[0].Title = "mutated"
	again, err := repos.posts.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", again[0].Title)
}

func TestPostRepository_IDsNotReusedAfterDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	p1 := repos.mustPost(t, a, "one")
	p2 := repos.mustPost(t, a, "two")

	deleted, err := repos.posts.DeleteOwned(ctx, p2.ID, a.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	p3 := repos.mustPost(t, a, "three")
	assert.NotEqual(t, p2.ID, p3.ID)
	assert.NotEqual(t, p1.ID, p3.ID)
	assert.Greater(t, p3.ID, p2.ID)
}

func TestPostRepository_DeleteOwnedChecksAuthor(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	b := repos.mustUser(t, "bob")
	post := repos.mustPost(t, a, "mine")

	deleted, err := repos.posts.DeleteOwned(ctx, post.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repos.posts.DeleteOwned(ctx, 1234, a.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repos.posts.Get(ctx, post.ID)
	require.NoError(t, err)
}

func TestPostRepository_ListByAuthor(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	b := repos.mustUser(t, "bob")
	repos.mustPost(t, a, "a1")
	repos.mustPost(t, b, "b1")
	repos.mustPost(t, a, "a2")

	posts, err := repos.posts.ListByAuthor(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a2", posts[0].Title)
	assert.Equal(t, "a1", posts[1].Title)
}

func TestLikeRepository_ToggleTwiceRestoresState(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	b := repos.mustUser(t, "bob")
	post := repos.mustPost(t, a, "p")

	res, err := repos.likes.Toggle(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeToggle{Liked: true, Likes: 1}, res)

	liked, err := repos.likes.Exists(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	res, err = repos.likes.Toggle(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeToggle{Liked: false, Likes: 0}, res)

	liked, err = repos.likes.Exists(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	stored, err := repos.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Likes)
}

func TestLikeRepository_ToggleMissingPost(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.likes.Toggle(context.Background(), 1, 77)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLikeRepository_DeletingPostClearsLedger(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := repos.mustUser(t, "alice")
	b := repos.mustUser(t, "bob")
	post := repos.mustPost(t, a, "p")

	_, err := repos.likes.Toggle(ctx, b.ID, post.ID)
	require.NoError(t, err)

	deleted, err := repos.posts.DeleteOwned(ctx, post.ID, a.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	ids, err := repos.likes.LikedPostIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLikeRepository_ConcurrentTogglesStayConsistent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	author := repos.mustUser(t, "author")
	post := repos.mustPost(t, author, "p")

	const voters = 20
	const rounds = 7 // odd: every voter ends up liking the post

	var users []*domain.User
	for i := 0; i < voters; i++ {
		users = append(users, repos.mustUser(t, "voter-"+string(rune('a'+i))))
	}

	var wg sync.WaitGroup
	for _, u := range users {
		for r := 0; r < rounds; r++ {
			wg.Add(1)
			go func(userID int64) {
				defer wg.Done()
				_, err := repos.likes.Toggle(ctx, userID, post.ID)
				assert.NoError(t, err)
			}(u.ID)
		}
	}
	wg.Wait()

	stored, err := repos.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, stored.Likes)

	for _, u := range users {
		liked, err := repos.likes.Exists(ctx, u.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, liked)
	}
}

package service

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sharestuff/internal/domain"
	"sharestuff/internal/repository"
	"sharestuff/internal/repository/memory"
)

type testServices struct {
	usersRepo repository.UserRepository
	postsRepo repository.PostRepository
	likesRepo repository.LikeRepository

	users UserService
	posts PostService
	likes LikeService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	db := memory.Open()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := testServices{
		usersRepo: memory.NewUserRepository(db),
		postsRepo: memory.NewPostRepository(db),
		likesRepo: memory.NewLikeRepository(db),
	}
	s.users = NewUserService(s.usersRepo, bcrypt.MinCost)
	s.posts = NewPostService(s.postsRepo, s.usersRepo)
	s.likes = NewLikeService(s.likesRepo, s.postsRepo, s.usersRepo, logger)
	return s
}

func (s testServices) register(t *testing.T, name string) domain.Identity {
	t.Helper()
	user, err := s.users.Register(context.Background(), name, "pw-"+name)
	require.NoError(t, err)
	return domain.Identity{UserID: user.ID}
}

func TestUserService_RegisterDuplicateKeepsFirst(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	first, err := s.users.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Empty(t, first.PasswordHash)

	_, err = s.users.Register(ctx, "alice", "pw2")
	require.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = s.users.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, err = s.users.Authenticate(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_RegisterAssignsIncreasingIDs(t *testing.T) {
	s := newTestServices(t)

	var last int64
	for _, name := range []string{"a", "b", "c", "d"} {
		id := s.register(t, name)
		assert.Greater(t, id.UserID, last)
		last = id.UserID
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "  ", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.users.Register(ctx, "bob", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.users.Register(ctx, " bob", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.users.Register(ctx, "bob\t", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserService_UsernamesMatchExactly(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = s.users.Authenticate(ctx, " alice", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.users.Authenticate(ctx, "Alice", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other, err := s.users.Register(ctx, "Alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Alice", other.Username)
}

func TestUserService_AuthenticateWrongPassword(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.users.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = s.users.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.users.Authenticate(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := s.users.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestPostService_CreateRequiresLogin(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.posts.Create(ctx, domain.Identity{}, "T", "C")
	require.ErrorIs(t, err, ErrUnauthenticated)

	posts, err := s.posts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = s.posts.Create(ctx, domain.Identity{UserID: 99}, "T", "C")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPostService_CreateDenormalizesAuthor(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	alice := s.register(t, "alice")
	post, err := s.posts.Create(ctx, alice, "Title", "Body")
	require.NoError(t, err)
	assert.Equal(t, "alice", post.AuthorUsername)
	assert.Equal(t, alice.UserID, post.AuthorID)
	assert.Zero(t, post.Likes)

	_, err = s.posts.Create(ctx, alice, "", "Body")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPostService_DeleteOwnership(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	mine, err := s.posts.Create(ctx, alice, "mine", "x")
	require.NoError(t, err)
	theirs, err := s.posts.Create(ctx, bob, "theirs", "y")
	require.NoError(t, err)

	require.NoError(t, s.posts.Delete(ctx, alice, mine.ID))
	_, err = s.posts.Get(ctx, mine.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	assert.ErrorIs(t, s.posts.Delete(ctx, alice, theirs.ID), ErrNotFoundOrForbidden)
	assert.ErrorIs(t, s.posts.Delete(ctx, alice, 12345), ErrNotFoundOrForbidden)
	assert.ErrorIs(t, s.posts.Delete(ctx, domain.Identity{}, theirs.ID), ErrUnauthenticated)

	next, err := s.posts.Create(ctx, alice, "again", "z")
	require.NoError(t, err)
	assert.NotEqual(t, mine.ID, next.ID)
}

func TestPostService_Profile(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	_, err := s.posts.Create(ctx, alice, "a1", "x")
	require.NoError(t, err)
	_, err = s.posts.Create(ctx, bob, "b1", "x")
	require.NoError(t, err)

	profile, err := s.posts.Profile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	require.Len(t, profile.Posts, 1)
	assert.Equal(t, "a1", profile.Posts[0].Title)
	assert.True(t, profile.Posts[0].CanEdit)

	_, err = s.posts.Profile(ctx, domain.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLikeService_Scenario(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	a := s.register(t, "A")
	b := s.register(t, "B")
	require.Equal(t, int64(1), a.UserID)
	require.Equal(t, int64(2), b.UserID)

	p, err := s.posts.Create(ctx, a, "P", "content")
	require.NoError(t, err)
	require.Equal(t, int64(1), p.ID)

	res, err := s.likes.Toggle(ctx, b, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeToggle{Liked: true, Likes: 1}, res)
	liked, err := s.likesRepo.Exists(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, liked)

	res, err = s.likes.Toggle(ctx, b, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeToggle{Liked: false, Likes: 0}, res)
	liked, err = s.likesRepo.Exists(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, liked)

	res, err = s.likes.Toggle(ctx, a, p.ID)
	require.ErrorIs(t, err, ErrSelfLikeRejected)
	assert.Equal(t, 0, res.Likes)
	liked, err = s.likesRepo.Exists(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, liked)

	stored, err := s.posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Likes)
}

func TestLikeService_UnauthenticatedDoesNotMutate(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	a := s.register(t, "A")
	b := s.register(t, "B")
	p, err := s.posts.Create(ctx, a, "P", "content")
	require.NoError(t, err)
	_, err = s.likes.Toggle(ctx, b, p.ID)
	require.NoError(t, err)

	_, err = s.likes.Toggle(ctx, domain.Identity{}, p.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)

	stored, err := s.posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Likes)
}

func TestLikeService_UnknownUserDoesNotMutate(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	a := s.register(t, "A")
	p, err := s.posts.Create(ctx, a, "P", "content")
	require.NoError(t, err)

	ghost := domain.Identity{UserID: 100}
	_, err = s.likes.Toggle(ctx, ghost, p.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)

	stored, err := s.posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Likes)

	liked, err := s.likesRepo.Exists(ctx, ghost.UserID, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestPostService_DeleteByUnknownUser(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	a := s.register(t, "A")
	p, err := s.posts.Create(ctx, a, "P", "content")
	require.NoError(t, err)

	assert.ErrorIs(t, s.posts.Delete(ctx, domain.Identity{UserID: 100}, p.ID), ErrUnauthenticated)

	_, err = s.posts.Get(ctx, p.ID)
	assert.NoError(t, err)
}

func TestLikeService_MissingPost(t *testing.T) {
	s := newTestServices(t)

	b := s.register(t, "B")
	_, err := s.likes.Toggle(context.Background(), b, 404)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestLikeService_LikedPosts(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	a := s.register(t, "A")
	b := s.register(t, "B")
	p1, err := s.posts.Create(ctx, a, "P1", "c")
	require.NoError(t, err)
	p2, err := s.posts.Create(ctx, a, "P2", "c")
	require.NoError(t, err)

	_, err = s.likes.Toggle(ctx, b, p2.ID)
	require.NoError(t, err)

	liked, err := s.likes.LikedPosts(ctx, b)
	require.NoError(t, err)
	assert.True(t, liked[p2.ID])
	assert.False(t, liked[p1.ID])

	liked, err = s.likes.LikedPosts(ctx, domain.Identity{})
	require.NoError(t, err)
	assert.Empty(t, liked)
}

func TestSeed_IsIdempotent(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, s.users, s.posts, nil))
	require.NoError(t, Seed(ctx, s.users, s.posts, nil))

	posts, err := s.posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "AnotherUser", posts[0].AuthorUsername)
	assert.Equal(t, "SampleUser", posts[1].AuthorUsername)

	_, err = s.users.Authenticate(ctx, "SampleUser", "sss")
	assert.NoError(t, err)
}

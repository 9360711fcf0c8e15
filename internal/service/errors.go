package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("username already exists")
	// ErrUnauthenticated is returned when a protected operation runs without a logged-in user.
	ErrUnauthenticated = errors.New("you must be logged in")
	// ErrPostNotFound is returned when the referenced post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrNotFoundOrForbidden merges "missing" and "not yours" so deletion does not reveal
	// which posts exist to non-owners.
	ErrNotFoundOrForbidden = errors.New("post not found or user not authorized to delete this post")
	// ErrSelfLikeRejected is returned when an author tries to like their own post.
	ErrSelfLikeRejected = errors.New("you cannot like your own post")
	// ErrInvalidInput wraps validation failures on user supplied fields.
	ErrInvalidInput = errors.New("invalid input")
)

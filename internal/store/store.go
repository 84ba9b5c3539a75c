package store

import (
	"context"
	"errors"

	"github.com/minipress-io/minipress/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateID       = errors.New("duplicate id")
)

// PostIDSequence is the counter that issues post ids.
const PostIDSequence = "postid"

type Store interface {
	UserStore
	PostStore
	SequenceStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	// UpdatePost merges only the supplied fields into an existing post and
	// returns the merged record. A nil field is left unchanged.
	UpdatePost(ctx context.Context, id int64, title, content *string) (model.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// SequenceStore issues ids from named counters. NextSequence must perform the
// increment and the read of the post-increment value as one indivisible store
// operation: two concurrent calls never return the same value.
type SequenceStore interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

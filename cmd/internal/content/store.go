// Package content implements Patch's projects and posts: the containers users
// own and the document/image/video items attached to them.
package content

import (
	"context"
	"time"
)

// Project is a container owned by exactly one user.
type Project struct {
	ID          int64
	Title       string
	Description string
	Category    Category
	OwnerID     int64

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Post is a content item belonging to one project, authored by one user.
type Post struct {
	ID          int64
	Title       string
	Content     string
	ContentType ContentType
	MediaURL    *string
	ProjectID   int64
	AuthorID    int64

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// CreateProjectInput describes a project insert. OwnerID always comes from
// the verified request identity, never from client input.
type CreateProjectInput struct {
	Title       string
	Description string
	Category    Category
	OwnerID     int64
	Now         time.Time
}

// CreatePostInput describes a post insert. AuthorID always comes from the
// verified request identity. ProjectID is not pre-checked; the storage
// foreign key is the guard and a violation surfaces as ErrProjectNotFound.
type CreatePostInput struct {
	Title       string
	Content     string
	ContentType ContentType
	MediaURL    *string
	ProjectID   int64
	AuthorID    int64
	Now         time.Time
}

// Store is the content persistence boundary.
type Store interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (Project, error)
	GetProjectByID(ctx context.Context, id int64) (Project, error)
	ListProjects(ctx context.Context, skip, limit int) ([]Project, error)

	CreatePost(ctx context.Context, in CreatePostInput) (Post, error)
	ListPosts(ctx context.Context, skip, limit int) ([]Post, error)
}

package content

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// InMemoryStore is a dev-mode fallback when DB is not configured.
// Referential integrity (project/author existence) is enforced under a
// single mutex, standing in for the database foreign keys.
type InMemoryStore struct {
	mu            sync.Mutex
	nextProjectID int64
	nextPostID    int64
	projects      map[int64]Project
	posts         map[int64]Post

	// userExists mirrors the users FK; nil disables the author check.
	userExists func(id int64) bool
}

// NewInMemoryStore constructs an in-memory Store implementation.
// userExists is consulted on writes to mirror the author foreign key;
// pass nil to skip that check.
func NewInMemoryStore(userExists func(id int64) bool) *InMemoryStore {
	return &InMemoryStore{
		projects:   make(map[int64]Project),
		posts:      make(map[int64]Post),
		userExists: userExists,
	}
}

// CreateProject inserts a project with monotonic id allocation.
func (s *InMemoryStore) CreateProject(ctx context.Context, in CreateProjectInput) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return Project{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.OwnerID <= 0 {
		return Project{}, fmt.Errorf("%w: missing owner", ErrInvalidInput)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	category := in.Category
	if category == "" {
		category = CategoryOther
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userExists != nil && !s.userExists(in.OwnerID) {
		return Project{}, fmt.Errorf("content.CreateProject: %w", ErrAuthorNotFound)
	}

	s.nextProjectID++
	p := Project{
		ID:          s.nextProjectID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    category,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
	}
	s.projects[p.ID] = p
	return p, nil
}

// GetProjectByID returns a project or ErrProjectNotFound.
func (s *InMemoryStore) GetProjectByID(ctx context.Context, id int64) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("content.GetProjectByID: %w", ErrProjectNotFound)
	}
	return p, nil
}

// ListProjects returns a page of projects ordered by id.
func (s *InMemoryStore) ListProjects(ctx context.Context, skip, limit int) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	skip, limit = clampPage(skip, limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Project, 0, limit)
	for id := int64(1); id <= s.nextProjectID && len(out) < limit; id++ {
		p, ok := s.projects[id]
		if !ok {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// CreatePost inserts a post, enforcing the project reference.
func (s *InMemoryStore) CreatePost(ctx context.Context, in CreatePostInput) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return Post{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.ProjectID <= 0 {
		return Post{}, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if in.AuthorID <= 0 {
		return Post{}, fmt.Errorf("%w: missing author", ErrInvalidInput)
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = ContentTypeDocument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[in.ProjectID]; !ok {
		return Post{}, fmt.Errorf("content.CreatePost: %w", ErrProjectNotFound)
	}
	if s.userExists != nil && !s.userExists(in.AuthorID) {
		return Post{}, fmt.Errorf("content.CreatePost: %w", ErrAuthorNotFound)
	}

	s.nextPostID++
	p := Post{
		ID:          s.nextPostID,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		ContentType: contentType,
		MediaURL:    in.MediaURL,
		ProjectID:   in.ProjectID,
		AuthorID:    in.AuthorID,
		CreatedAt:   now,
	}
	s.posts[p.ID] = p
	return p, nil
}

// ListPosts returns a page of posts ordered by id.
func (s *InMemoryStore) ListPosts(ctx context.Context, skip, limit int) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	skip, limit = clampPage(skip, limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Post, 0, limit)
	for id := int64(1); id <= s.nextPostID && len(out) < limit; id++ {
		p, ok := s.posts[id]
		if !ok {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

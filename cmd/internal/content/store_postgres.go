package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements content persistence over PostgreSQL.
// The pgx pool is owned by the caller; this store must NOT close it.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the content store (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("content: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("content: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with safe defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "public",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("content: nil pool")
	}
	return st, nil
}

const (
	projectColumns = "id, title, description, category, owner_id, created_at, updated_at"
	postColumns    = "id, title, content, content_type, media_url, project_id, author_id, created_at, updated_at"

	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// CreateProject inserts a project stamped with the given owner.
func (s *PostgresStore) CreateProject(ctx context.Context, in CreateProjectInput) (Project, error) {
	if s == nil || s.pool == nil {
		return Project{}, ErrInvalidInput
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

	projects := pgIdent(s.schema, "projects")

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+projects+` (title, description, category, owner_id, created_at)
		   VALUES ($1, $2, $3, $4, $5)
		   RETURNING id`,
		strings.TrimSpace(in.Title),
		in.Description,
		string(category),
		in.OwnerID,
		now,
	).Scan(&id)
	if err != nil {
		if pgIsForeignKeyViolation(err) {
			return Project{}, fmt.Errorf("content.CreateProject: %w", ErrAuthorNotFound)
		}
		return Project{}, err
	}

	return Project{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    category,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
	}, nil
}

// GetProjectByID returns a project or ErrProjectNotFound.
func (s *PostgresStore) GetProjectByID(ctx context.Context, id int64) (Project, error) {
	if s == nil || s.pool == nil {
		return Project{}, ErrInvalidInput
	}

	projects := pgIdent(s.schema, "projects")

	row := s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM `+projects+` WHERE id = $1`,
		id,
	)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, fmt.Errorf("content.GetProjectByID: %w", ErrProjectNotFound)
		}
		return Project{}, err
	}
	return p, nil
}

// ListProjects returns a page of projects ordered by id.
func (s *PostgresStore) ListProjects(ctx context.Context, skip, limit int) ([]Project, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	skip, limit = clampPage(skip, limit)

	projects := pgIdent(s.schema, "projects")

	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM `+projects+` ORDER BY id OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePost inserts a post stamped with the given author. The project
// foreign key is the only existence check.
func (s *PostgresStore) CreatePost(ctx context.Context, in CreatePostInput) (Post, error) {
	if s == nil || s.pool == nil {
		return Post{}, ErrInvalidInput
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

	posts := pgIdent(s.schema, "posts")

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+posts+` (title, content, content_type, media_url, project_id, author_id, created_at)
		   VALUES ($1, $2, $3, $4, $5, $6, $7)
		   RETURNING id`,
		strings.TrimSpace(in.Title),
		in.Content,
		string(contentType),
		in.MediaURL,
		in.ProjectID,
		in.AuthorID,
		now,
	).Scan(&id)
	if err != nil {
		if constraint, ok := pgForeignKeyConstraint(err); ok {
			if strings.Contains(constraint, "author") {
				return Post{}, fmt.Errorf("content.CreatePost: %w", ErrAuthorNotFound)
			}
			return Post{}, fmt.Errorf("content.CreatePost: %w", ErrProjectNotFound)
		}
		return Post{}, err
	}

	return Post{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		ContentType: contentType,
		MediaURL:    in.MediaURL,
		ProjectID:   in.ProjectID,
		AuthorID:    in.AuthorID,
		CreatedAt:   now,
	}, nil
}

// ListPosts returns a page of posts ordered by id.
func (s *PostgresStore) ListPosts(ctx context.Context, skip, limit int) ([]Post, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	skip, limit = clampPage(skip, limit)

	posts := pgIdent(s.schema, "posts")

	rows, err := s.pool.Query(ctx,
		`SELECT `+postColumns+` FROM `+posts+` ORDER BY id OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---- helpers ----

func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return skip, limit
}

func scanProject(row pgx.Row) (Project, error) {
	var (
		p   Project
		cat string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &cat, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	p.Category = ParseCategory(cat)
	return p, nil
}

func scanPost(row pgx.Row) (Post, error) {
	var (
		p  Post
		ct string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Content, &ct, &p.MediaURL, &p.ProjectID, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Post{}, err
	}
	p.ContentType = ParseContentType(ct)
	return p, nil
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgIsForeignKeyViolation(err error) bool {
	_, ok := pgForeignKeyConstraint(err)
	return ok
}

func pgForeignKeyConstraint(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23503" { // foreign_key_violation
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(pgErr.ConstraintName)), true
}

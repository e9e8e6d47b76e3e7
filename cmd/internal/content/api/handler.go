// Package contentapi serves project and post endpoints. Writes require a
// bearer token; reads are public.
package contentapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"patch/cmd/internal/auth/guard"
	"patch/cmd/internal/content"
	"patch/cmd/internal/web"
)

// Config controls content API behavior.
type Config struct {
	MaxBodyBytes int64
	ListLimit    int
}

// DefaultConfig returns the content API defaults.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes: 1 << 20,
		ListLimit:    100,
	}
}

// Handler wires HTTP content endpoints to the content store.
type Handler struct {
	log   *slog.Logger
	cfg   Config
	store content.Store
	guard *guard.Guard
}

// NewHandler constructs a content Handler.
func NewHandler(log *slog.Logger, store content.Store, g *guard.Guard, cfg Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("content: nil store")
	}
	if g == nil {
		return nil, errors.New("content: nil guard")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}

	return &Handler{log: log, cfg: cfg, store: store, guard: g}, nil
}

// Register wires content routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /projects/{$}", h.handleCreateProject)
	mux.HandleFunc("GET /projects/{$}", h.handleListProjects)
	mux.HandleFunc("GET /projects/{id}", h.handleGetProject)
	mux.HandleFunc("POST /posts/{$}", h.handleCreatePost)
	mux.HandleFunc("GET /posts/{$}", h.handleListPosts)
}

// ---- handlers ----

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	user, err := h.guard.UserFromRequest(r)
	if err != nil {
		web.WriteInvalidCredentials(w)
		return
	}

	var req createProjectRequest
	if err := web.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	project, err := h.store.CreateProject(r.Context(), content.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    content.ParseCategory(req.Category),
		OwnerID:     user.ID,
	})
	if err != nil {
		if errors.Is(err, content.ErrInvalidInput) {
			web.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid project data")
			return
		}
		h.log.Error("content.create_project.fail", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	web.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	page := web.PageFromRequest(r, h.cfg.ListLimit)
	projects, err := h.store.ListProjects(r.Context(), page.Skip, page.Limit)
	if err != nil {
		h.log.Error("content.list_projects.fail", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	web.WriteJSON(w, http.StatusOK, toProjectResponses(projects))
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		web.WriteError(w, http.StatusNotFound, "not_found", "project not found")
		return
	}

	project, err := h.store.GetProjectByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrProjectNotFound) {
			web.WriteError(w, http.StatusNotFound, "not_found", "project not found")
			return
		}
		h.log.Error("content.get_project.fail", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	web.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, err := h.guard.UserFromRequest(r)
	if err != nil {
		web.WriteInvalidCredentials(w)
		return
	}

	var req createPostRequest
	if err := web.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if req.ProjectID <= 0 {
		web.WriteError(w, http.StatusNotFound, "not_found", "project not found")
		return
	}

	// No pre-read of the project row; the foreign key is the existence
	// check, so creation stays one round trip.
	post, err := h.store.CreatePost(r.Context(), content.CreatePostInput{
		Title:       req.Title,
		Content:     req.Content,
		ContentType: content.ParseContentType(req.ContentType),
		MediaURL:    req.MediaURL,
		ProjectID:   req.ProjectID,
		AuthorID:    user.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, content.ErrProjectNotFound):
			web.WriteError(w, http.StatusNotFound, "not_found", "project not found")
		case errors.Is(err, content.ErrAuthorNotFound):
			// The author came from a verified token, so a missing author row
			// means the account went away mid-request.
			web.WriteInvalidCredentials(w)
		case errors.Is(err, content.ErrInvalidInput):
			web.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid post data")
		default:
			h.log.Error("content.create_post.fail", "err", err)
			web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	web.WriteJSON(w, http.StatusOK, toPostResponse(post))
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page := web.PageFromRequest(r, h.cfg.ListLimit)
	posts, err := h.store.ListPosts(r.Context(), page.Skip, page.Limit)
	if err != nil {
		h.log.Error("content.list_posts.fail", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	web.WriteJSON(w, http.StatusOK, toPostResponses(posts))
}

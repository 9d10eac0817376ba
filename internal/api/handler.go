// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-activity-mirror/internal/model"
	"github-activity-mirror/internal/syncer"
)

// Reader is the read side of a mirror store.
type Reader interface {
	ListRepositories(ctx context.Context) ([]model.Repository, error)
	GetRepository(ctx context.Context, nameWithOwner string) (model.Repository, bool, error)
	ListCommits(ctx context.Context, nameWithOwner string) ([]model.Commit, error)
	RepositoryStats(ctx context.Context, nameWithOwner string) (model.RepositoryStats, error)
	ListCursors(ctx context.Context) ([]model.Cursor, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	store  Reader
	logger *slog.Logger
}

type cursorView struct {
	Name      string `json:"name"`
	Phase     string `json:"phase"`
	EndCursor string `json:"endCursor,omitempty"`
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(store Reader, logger *slog.Logger) http.Handler {
	h := &Handler{
		store:  store,
		logger: logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos", h.listRepositories)
		r.Get("/repos/{owner}/{name}/commits", h.getCommits)
		r.Get("/repos/{owner}/{name}/stats", h.getStats)
		r.Get("/cursors", h.listCursors)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /v1/repos
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.store.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if repos == nil {
		repos = []model.Repository{}
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getCommits returns a repository's mirrored commits, newest first.
// GET /v1/repos/{owner}/{name}/commits
func (h *Handler) getCommits(w http.ResponseWriter, r *http.Request) {
	nameWithOwner, ok := h.lookupRepository(w, r)
	if !ok {
		return
	}

	commits, err := h.store.ListCommits(r.Context(), nameWithOwner)
	if err != nil {
		h.logger.Error("Failed to get commits", "repo", nameWithOwner, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if commits == nil {
		commits = []model.Commit{}
	}
	respondWithJSON(w, http.StatusOK, commits)
}

// GET /v1/repos/{owner}/{name}/stats
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	nameWithOwner, ok := h.lookupRepository(w, r)
	if !ok {
		return
	}

	stats, err := h.store.RepositoryStats(r.Context(), nameWithOwner)
	if err != nil {
		h.logger.Error("Failed to get repository stats", "repo", nameWithOwner, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// GET /v1/cursors
func (h *Handler) listCursors(w http.ResponseWriter, r *http.Request) {
	cursors, err := h.store.ListCursors(r.Context())
	if err != nil {
		h.logger.Error("Failed to list cursors", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]cursorView, len(cursors))
	for i, c := range cursors {
		state := syncer.ParseCursor(c.EndCursor)
		out[i] = cursorView{Name: c.Name, Phase: state.Phase.String(), EndCursor: state.Token}
	}
	respondWithJSON(w, http.StatusOK, out)
}

// lookupRepository writes a 404 and returns false when the path names an unknown repository.
func (h *Handler) lookupRepository(w http.ResponseWriter, r *http.Request) (string, bool) {
	nameWithOwner := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	_, found, err := h.store.GetRepository(r.Context(), nameWithOwner)
	if err != nil {
		h.logger.Error("Failed to get repository", "repo", nameWithOwner, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return "", false
	}
	if !found {
		respondWithError(w, http.StatusNotFound, "Repository not found")
		return "", false
	}
	return nameWithOwner, true
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

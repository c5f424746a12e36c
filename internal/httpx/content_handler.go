package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/content"
)

type PostStore interface {
	Create(ctx context.Context, slug, title string, blocks []content.Block) (string, error)
	Update(ctx context.Context, id, title string, blocks []content.Block, published bool) error
	GetPublished(ctx context.Context, slug string) (content.Post, error)
	ListPublished(ctx context.Context) ([]content.Post, error)
}

type ContentHandler struct {
	Posts PostStore
	Log   *zap.Logger
}

func (h *ContentHandler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Get("/blog", h.list)
	r.Get("/blog/{slug}", h.get)
	r.Route("/admin/blog", func(r chi.Router) {
		r.Use(requireUser, RequireAdmin)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
	})
}

func (h *ContentHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	posts, err := h.Posts.ListPublished(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *ContentHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Posts.GetPublished(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, content.ErrPostNotFound) {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type postReq struct {
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Blocks    []content.Block `json:"blocks"`
	Published bool            `json:"published"`
}

func (h *ContentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req postReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Slug == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "slug and title are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Posts.Create(ctx, req.Slug, req.Title, req.Blocks)
	if errors.Is(err, content.ErrInvalidBlock) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *ContentHandler) update(w http.ResponseWriter, r *http.Request) {
	var req postReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Posts.Update(ctx, chi.URLParam(r, "id"), req.Title, req.Blocks, req.Published)
	switch {
	case errors.Is(err, content.ErrInvalidBlock):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, content.ErrPostNotFound):
		writeError(w, http.StatusNotFound, "post not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

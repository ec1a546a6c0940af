package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/forgecommerce/storefront/internal/services/category"
)

// CategoryLister lists catalog categories.
type CategoryLister interface {
	List(ctx context.Context, activeOnly bool) ([]category.Category, error)
}

// PublicHandler serves the public catalog endpoints.
type PublicHandler struct {
	categories CategoryLister
	logger     *slog.Logger
}

// NewPublicHandler creates a new public API handler.
func NewPublicHandler(categories CategoryLister, logger *slog.Logger) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{
		categories: categories,
		logger:     logger,
	}
}

// RegisterRoutes registers the public catalog routes on the given mux.
func (h *PublicHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/categories", h.ListCategories)
}

// categoryJSON is the public-facing category representation.
type categoryJSON struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id"`
	Position int32      `json:"position"`
}

// errorJSON is the error response format.
type errorJSON struct {
	Error string `json:"error"`
}

// ListCategories handles GET /api/v1/categories
func (h *PublicHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context(), true)
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	result := make([]categoryJSON, len(categories))
	for i, c := range categories {
		result[i] = categoryJSON{
			ID:       c.ID,
			Name:     c.Name,
			Slug:     c.Slug,
			ParentID: c.ParentID,
			Position: c.Position,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": result})
}

// --- Helpers ---

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; just log the error.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/devflow-collective/devflow/internal/dashboard"
	"github.com/devflow-collective/devflow/internal/middleware"
)

// ModerationHandlers serves the moderator content dashboard endpoints.
type ModerationHandlers struct {
	service *dashboard.Service
	logger  *slog.Logger
}

// NewModerationHandlers creates moderation dashboard handlers.
func NewModerationHandlers(service *dashboard.Service, logger *slog.Logger) *ModerationHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModerationHandlers{
		service: service,
		logger:  logger,
	}
}

// GetContent handles GET /moderation/content.
//
// Query parameters:
//   - page:     1-based page number (default 1)
//   - pageSize: items per page (default 20)
//   - type:     question | answer | all (default all)
//   - sortBy:   highScore | lowScore | recent | old (default highScore)
//
// Out-of-range or unrecognized values clamp to their defaults rather than
// rejecting the request; the dashboard should always render a page.
func (h *ModerationHandlers) GetContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	params := dashboard.Params{
		Page:     parseIntParam(query.Get("page"), dashboard.DefaultPage),
		PageSize: parseIntParam(query.Get("pageSize"), dashboard.DefaultPageSize),
		Type:     dashboard.ContentType(query.Get("type")),
		SortBy:   dashboard.SortMode(query.Get("sortBy")),
	}

	result := h.service.GetModeratorContent(r.Context(), params)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode moderation content response", "error", err)
	}
}

// parseIntParam parses a positive integer query parameter, falling back to
// def for missing, malformed, or non-positive values.
func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

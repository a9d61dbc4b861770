package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

type availabilityService interface {
	Check(ctx context.Context, params application.AvailabilityParams) (application.AvailabilityResult, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger)}
}

// Check answers whether the identified user is free during the queried range.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	result, err := h.service.Check(r.Context(), application.AvailabilityParams{
		UserID: strings.TrimSpace(query.Get("user_id")),
		Email:  strings.TrimSpace(query.Get("email")),
		Start:  parseTime(query.Get("start")),
		End:    parseTime(query.Get("end")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Available: result.Available,
		Conflicts: toConflictDTOs(result.Conflicts),
	})
}

type availabilityResponse struct {
	Available bool          `json:"available"`
	Conflicts []conflictDTO `json:"conflicts,omitempty"`
}

type conflictDTO struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toConflictDTOs(conflicts []application.ConflictSummary) []conflictDTO {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]conflictDTO, 0, len(conflicts))
	for _, conflict := range conflicts {
		out = append(out, conflictDTO{
			Title: conflict.Title,
			Type:  conflict.Type,
			Start: conflict.Start.UTC().Format(time.RFC3339Nano),
			End:   conflict.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/recurrence"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.Schedule, error)
	CreateRecurringSchedule(ctx context.Context, params application.CreateRecurringScheduleParams) ([]application.Schedule, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (application.Schedule, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, scheduleID string) error
	ListSchedules(ctx context.Context, params application.ListSchedulesParams) ([]application.Schedule, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

// Create persists a single event, or a weekly batch when the request carries
// weekdays and semester bounds.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if req.isRecurring() {
		days, err := recurrence.ParseWeekdays(req.Days)
		if err != nil {
			vErr := &application.ValidationError{FieldErrors: map[string]string{"days": err.Error()}}
			h.responder.handleServiceError(r.Context(), w, vErr)
			return
		}

		batch, err := h.service.CreateRecurringSchedule(r.Context(), application.CreateRecurringScheduleParams{
			Principal: principal,
			Input: application.RecurringScheduleInput{
				Title:         req.Title,
				Type:          req.Type,
				Start:         parseTime(req.Start),
				End:           parseTime(req.End),
				Days:          days,
				SemesterStart: parseTime(req.SemesterStart),
				SemesterEnd:   parseTime(req.SemesterEnd),
				Details:       req.Details.toDetails(),
			},
		})
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}

		h.responder.writeJSON(r.Context(), w, http.StatusCreated, listSchedulesResponse{
			Schedules: toScheduleDTOs(batch),
		})
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: principal,
		Input: application.ScheduleInput{
			Title:   req.Title,
			Type:    req.Type,
			Start:   parseTime(req.Start),
			End:     parseTime(req.End),
			Details: req.Details.toDetails(),
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, scheduleResponse{Schedule: toScheduleDTO(schedule)})
}

// Update changes the fields present in the request body, leaving the rest as stored.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req schedulePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Patch:      req.toPatch(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Schedule: toScheduleDTO(schedule)})
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSchedule(r.Context(), principal, scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedules, err := h.service.ListSchedules(r.Context(), buildListParams(r.URL.Query(), principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSchedulesResponse{
		Schedules: toScheduleDTOs(schedules),
	})
}

type scheduleRequest struct {
	Title         string            `json:"title"`
	Type          string            `json:"type"`
	Start         string            `json:"start"`
	End           string            `json:"end"`
	Days          []string          `json:"days,omitempty"`
	SemesterStart string            `json:"semester_start,omitempty"`
	SemesterEnd   string            `json:"semester_end,omitempty"`
	Details       scheduleDetailDTO `json:"details"`
}

func (r scheduleRequest) isRecurring() bool {
	return len(r.Days) > 0 || strings.TrimSpace(r.SemesterStart) != "" || strings.TrimSpace(r.SemesterEnd) != ""
}

type schedulePatchRequest struct {
	Title   *string            `json:"title"`
	Type    *string            `json:"type"`
	Start   *string            `json:"start"`
	End     *string            `json:"end"`
	Details *scheduleDetailDTO `json:"details"`
}

func (r schedulePatchRequest) toPatch() application.SchedulePatch {
	patch := application.SchedulePatch{
		Title: r.Title,
		Type:  r.Type,
	}
	if r.Start != nil {
		start := parseTime(*r.Start)
		patch.Start = &start
	}
	if r.End != nil {
		end := parseTime(*r.End)
		patch.End = &end
	}
	if r.Details != nil {
		details := r.Details.toDetails()
		patch.Details = &details
	}
	return patch
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type scheduleResponse struct {
	Schedule scheduleDTO `json:"schedule"`
}

type listSchedulesResponse struct {
	Schedules []scheduleDTO `json:"schedules"`
}

type scheduleDTO struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Type          string            `json:"type"`
	Start         string            `json:"start"`
	End           string            `json:"end"`
	Days          []string          `json:"days,omitempty"`
	SemesterStart string            `json:"semester_start,omitempty"`
	SemesterEnd   string            `json:"semester_end,omitempty"`
	Details       scheduleDetailDTO `json:"details"`
	UserID        string            `json:"user_id"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

type scheduleDetailDTO struct {
	Professor string `json:"professor,omitempty"`
	Classroom string `json:"classroom,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (d scheduleDetailDTO) toDetails() application.ScheduleDetails {
	return application.ScheduleDetails{
		Professor: strings.TrimSpace(d.Professor),
		Classroom: strings.TrimSpace(d.Classroom),
		Notes:     d.Notes,
	}
}

func toScheduleDTO(schedule application.Schedule) scheduleDTO {
	dto := scheduleDTO{
		ID:    schedule.ID,
		Title: schedule.Title,
		Type:  schedule.Type,
		Start: schedule.Start.UTC().Format(time.RFC3339Nano),
		End:   schedule.End.UTC().Format(time.RFC3339Nano),
		Days:  recurrence.FormatWeekdays(schedule.Days),
		Details: scheduleDetailDTO{
			Professor: schedule.Details.Professor,
			Classroom: schedule.Details.Classroom,
			Notes:     schedule.Details.Notes,
		},
		UserID:    schedule.UserID,
		CreatedAt: schedule.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: schedule.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if schedule.SemesterStart != nil {
		dto.SemesterStart = schedule.SemesterStart.UTC().Format(time.RFC3339Nano)
	}
	if schedule.SemesterEnd != nil {
		dto.SemesterEnd = schedule.SemesterEnd.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toScheduleDTOs(schedules []application.Schedule) []scheduleDTO {
	if len(schedules) == 0 {
		return nil
	}
	out := make([]scheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toScheduleDTO(schedule))
	}
	return out
}

func buildListParams(values url.Values, principal application.Principal) application.ListSchedulesParams {
	params := application.ListSchedulesParams{Principal: principal}

	if after := strings.TrimSpace(values.Get("starts_after")); after != "" {
		if ts := parseTime(after); !ts.IsZero() {
			params.StartsAfter = &ts
		}
	}
	if before := strings.TrimSpace(values.Get("ends_before")); before != "" {
		if ts := parseTime(before); !ts.IsZero() {
			params.EndsBefore = &ts
		}
	}

	return params
}

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

type groupService interface {
	CreateGroup(ctx context.Context, params application.CreateGroupParams) (application.StudyGroup, error)
	ListGroups(ctx context.Context) ([]application.StudyGroup, error)
	UpdateGroup(ctx context.Context, params application.UpdateGroupParams) (application.StudyGroup, error)
	DeleteGroup(ctx context.Context, principal application.Principal, groupID string) error
}

type GroupHandler struct {
	service   groupService
	responder responder
}

func NewGroupHandler(service groupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{service: service, responder: newResponder(logger)}
}

// Create persists a study group and fans out a study session to its members.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	group, err := h.service.CreateGroup(r.Context(), application.CreateGroupParams{
		Principal: principal,
		Input: application.GroupInput{
			Name:         strings.TrimSpace(req.Name),
			Subject:      strings.TrimSpace(req.Subject),
			Description:  req.Description,
			MemberEmails: append([]string(nil), req.Members...),
			Start:        parseTime(req.Schedule.Start),
			End:          parseTime(req.Schedule.End),
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, groupResponse{Group: toGroupDTO(group)})
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groups, err := h.service.ListGroups(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listGroupsResponse{Groups: toGroupDTOs(groups)})
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	var req groupPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	group, err := h.service.UpdateGroup(r.Context(), application.UpdateGroupParams{
		Principal: principal,
		GroupID:   groupID,
		Patch: application.GroupPatch{
			Name:        req.Name,
			Subject:     req.Subject,
			Description: req.Description,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, groupResponse{Group: toGroupDTO(group)})
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteGroup(r.Context(), principal, groupID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type groupRequest struct {
	Name        string           `json:"name"`
	Subject     string           `json:"subject"`
	Description string           `json:"description"`
	Members     []string         `json:"members"`
	Schedule    groupScheduleDTO `json:"schedule"`
}

type groupPatchRequest struct {
	Name        *string `json:"name"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
}

type groupResponse struct {
	Group groupDTO `json:"group"`
}

type listGroupsResponse struct {
	Groups []groupDTO `json:"groups"`
}

type groupDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Subject     string           `json:"subject"`
	Description string           `json:"description,omitempty"`
	Members     []string         `json:"members"`
	Schedule    groupScheduleDTO `json:"schedule"`
	UserID      string           `json:"user_id"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type groupScheduleDTO struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	EventID string `json:"event_id,omitempty"`
}

func toGroupDTO(group application.StudyGroup) groupDTO {
	return groupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Subject:     group.Subject,
		Description: group.Description,
		Members:     append([]string(nil), group.Members...),
		Schedule: groupScheduleDTO{
			Start:   group.Schedule.Start.UTC().Format(time.RFC3339Nano),
			End:     group.Schedule.End.UTC().Format(time.RFC3339Nano),
			EventID: group.Schedule.EventID,
		},
		UserID:    group.UserID,
		CreatedAt: group.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: group.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toGroupDTOs(groups []application.StudyGroup) []groupDTO {
	if len(groups) == 0 {
		return nil
	}
	out := make([]groupDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, toGroupDTO(group))
	}
	return out
}

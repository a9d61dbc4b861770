package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-scheduler/internal/application"
)

var (
	errBadRequestBody    = errors.New("El formato de la petición no es válido.")
	errInvalidScheduleID = errors.New("El identificador del evento no es válido.")
	errInvalidGroupID    = errors.New("El identificador del grupo no es válido.")
	errMissingToken      = errors.New("Debe indicar un token de acceso.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_UNAUTHORIZED",
			Message:   "No tiene privilegios para realizar esta operación.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "Correo o contraseña incorrectos.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "El recurso solicitado no existe."})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				Message: "Los datos enviados no son válidos.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Error inesperado, contacte al administrador."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Los datos enviados no son válidos."
	case http.StatusUnauthorized:
		return "Debe iniciar sesión para continuar."
	case http.StatusForbidden:
		return "No tiene privilegios para realizar esta operación."
	case http.StatusNotFound:
		return "El recurso solicitado no existe."
	case http.StatusConflict:
		return "La petición entra en conflicto con el estado actual del recurso."
	default:
		return "Error inesperado, contacte al administrador."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "title is required":
		return "El título es obligatorio."
	case "type is required":
		return "El tipo de evento es obligatorio."
	case "start is required":
		return "La fecha de inicio es obligatoria."
	case "end is required":
		return "La fecha de fin es obligatoria."
	case "start must be before end":
		return "La fecha de fin debe ser posterior a la de inicio."
	case "at least one weekday is required":
		return "Debe indicar al menos un día de la semana."
	case "semester start is required":
		return "La fecha de inicio del semestre es obligatoria."
	case "semester end is required":
		return "La fecha de fin del semestre es obligatoria."
	case "name is required":
		return "El nombre es obligatorio."
	case "subject is required":
		return "La materia es obligatoria."
	case "email is required":
		return "El correo es obligatorio."
	case "email must belong to @ucaldas.edu.co":
		return "El correo debe pertenecer al dominio @ucaldas.edu.co."
	case "password must be at least 6 characters":
		return "La contraseña debe tener al menos 6 caracteres."
	case "email is already registered":
		return "Ya existe un usuario registrado con ese correo."
	case "a user id or email is required":
		return "Debe indicar el usuario por identificador o correo."
	case "related records are missing":
		return "Faltan registros relacionados."
	default:
		if strings.HasPrefix(message, "unknown member emails:") {
			return "Hay correos de miembros que no corresponden a ningún usuario: " +
				strings.TrimSpace(strings.TrimPrefix(message, "unknown member emails:"))
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

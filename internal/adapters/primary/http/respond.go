package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// envelope : chaque réponse porte les préférences de la requête
type envelope struct {
	Data        any                `json:"data"`
	Error       *APIError          `json:"error,omitempty"`
	Preferences domain.Preferences `json:"preferences"`
}

func write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, prefs domain.Preferences, data any) {
	write(w, status, envelope{Data: data, Preferences: prefs})
}

func writeError(w http.ResponseWriter, r *http.Request, prefs domain.Preferences, err error) {
	status, apiErr := mapError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	write(w, status, envelope{Error: &apiErr, Preferences: prefs})
}

// mapError traduit les erreurs du domaine en statut HTTP.
// L'ordre compte : les erreurs les plus spécifiques d'abord.
func mapError(err error) (int, APIError) {
	switch {
	case errors.Is(err, domain.ErrCannotFollowSelf):
		return http.StatusBadRequest, APIError{Code: "CANNOT_FOLLOW_SELF", Message: domain.ErrCannotFollowSelf.Error()}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, APIError{Code: "INVALID_CREDENTIALS", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, APIError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, APIError{Code: "UNAUTHORIZED", Message: "authentication required"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, APIError{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, APIError{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return http.StatusConflict, APIError{Code: "EMAIL_TAKEN", Message: err.Error()}
	default:
		return http.StatusInternalServerError, APIError{Code: "INTERNAL", Message: "internal error"}
	}
}

// decodeJSON borne la taille du corps et refuse les champs inconnus
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

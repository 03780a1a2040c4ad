package httputil

import (
	"encoding/json"
	"net/http"

	"projecthub/internal/apperr"
)

// RespondWithError writes an error response in JSON format.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithJSON writes a JSON response.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// StatusForError maps the error taxonomy to HTTP status codes.
func StatusForError(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindCapacity, apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError writes a typed domain error, hiding internal
// messages behind a generic 500 body.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	code := StatusForError(err)
	if code == http.StatusInternalServerError {
		RespondWithError(w, code, "internal server error")
		return
	}
	RespondWithError(w, code, err.Error())
}

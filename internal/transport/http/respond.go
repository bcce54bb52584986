package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"math-worksheet-backend/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
)

type errorResponse struct {
	Error string `json:"error"`
}

type rateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

type quotaExceededResponse struct {
	Error string `json:"error"`
	Limit int    `json:"limit"`
	Reset string `json:"reset"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeServiceError maps use-case errors to responses. Unknown errors are logged and
// reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error()})
	default:
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// publicMessage is what a denied client sees; the precise reason stays in the log.
func publicMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Not Found - API endpoints available at /api/*"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	case http.StatusForbidden:
		return "Access denied"
	default:
		return http.StatusText(status)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/domain"
	"math-worksheet-backend/internal/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
)

type handler struct {
	service        *app.ScoringService
	stats          *app.StatsReporter
	quota          *app.QuotaTracker
	limits         *ratelimit.Set
	global         *ratelimit.Global
	recorder       AdmissionRecorder
	live           *LiveHandler
	trustForwarded bool
	maxBodyBytes   int64
}

type scoreRequest struct {
	Name        string         `json:"name"`
	UserAnswers map[string]any `json:"userAnswers"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *handler) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Math Worksheet Backend API",
		"endpoints": map[string]any{
			"/health":        "Health check",
			"/api/questions": "Get math questions data",
			"/api/scores": map[string]string{
				"GET":  "Get high scores leaderboard",
				"POST": "Submit new score",
			},
			"/api/scores/live": "Leaderboard updates over websocket",
			"/api/stats":       "Get API usage statistics",
		},
		"version": "1.0.0",
		"status":  "active",
	})
}

func (h *handler) debug(w http.ResponseWriter, r *http.Request) {
	source := r.Header.Get("Origin")
	if source == "" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		source = "none"
	}
	ua := r.Header.Get("User-Agent")
	if len(ua) > 100 {
		ua = ua[:100]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Debug info",
		"requestId":  middleware.GetReqID(r.Context()),
		"origin":     source,
		"userAgent":  ua,
		"clientKey":  ratelimit.ClientKey(r, h.trustForwarded),
		"rateLimits": h.ratePolicies(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"headers": map[string]string{
			"origin":      r.Header.Get("Origin"),
			"referer":     r.Header.Get("Referer"),
			"accept":      r.Header.Get("Accept"),
			"contentType": r.Header.Get("Content-Type"),
		},
	})
}

type ratePolicy struct {
	Window      string `json:"window"`
	MaxRequests int    `json:"maxRequests"`
}

func (h *handler) ratePolicies() map[string]ratePolicy {
	out := make(map[string]ratePolicy)
	for _, class := range []string{ratelimit.ClassRead, ratelimit.ClassWrite} {
		if l := h.limits.For(class); l != nil {
			p := l.Policy()
			out[class] = ratePolicy{Window: p.Window.String(), MaxRequests: p.MaxRequests}
		}
	}
	return out
}

func (h *handler) questions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Questions())
}

func (h *handler) highScores(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.HighScores())
}

func (h *handler) submitScore(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	result, err := h.service.Submit(r.Context(), domain.Submission{
		Name:    req.Name,
		Answers: stringAnswers(req.UserAnswers),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request) {
	report, err := h.stats.Report(r.Context())
	if err != nil {
		log.Printf("[%s] stats: %v", middleware.GetReqID(r.Context()), err)
	}
	writeJSON(w, http.StatusOK, report)
}

// stringAnswers keeps string answers only; any other JSON type can never match a choice.
func stringAnswers(raw map[string]any) map[string]string {
	if raw == nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for id, v := range raw {
		if s, ok := v.(string); ok {
			out[id] = s
		} else {
			out[id] = ""
		}
	}
	return out
}

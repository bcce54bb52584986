package http

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"math-worksheet-backend/internal/domain"
	"math-worksheet-backend/internal/gate"
	"math-worksheet-backend/internal/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// AdmissionRecorder stores admission decisions. It is called on the request goroutine and
// must not block; stores doing network I/O go behind a persist.EventQueue. Errors are ignored.
type AdmissionRecorder interface {
	Record(ctx context.Context, ev domain.AdmissionEvent) error
}

const requestIDHeader = "X-Request-ID"

// requestID reuses a client supplied X-Request-ID or mints a UUID, and stores it where
// chi's logger and GetReqID look for it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *handler) record(r *http.Request, stage string, allowed bool, key string) {
	if h.recorder == nil {
		return
	}
	_ = h.recorder.Record(r.Context(), domain.AdmissionEvent{
		Stage:   stage,
		Allowed: allowed,
		Method:  r.Method,
		Path:    r.URL.Path,
		Key:     key,
		At:      time.Now(),
	})
}

func (h *handler) globalGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.global.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		h.record(r, "global", false, "")
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, rateLimitedResponse{Error: domain.ErrRateExceeded.Error(), RetryAfter: 1})
	})
}

func (h *handler) admission(g *gate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Evaluate(gate.Request{Path: r.URL.Path, Method: r.Method, Header: r.Header})
			h.record(r, "gate", d.Admit, "")
			if d.Admit {
				next.ServeHTTP(w, r)
				return
			}
			log.Printf("[%s] denied %s %s by %s check: %s",
				middleware.GetReqID(r.Context()), r.Method, r.URL.Path, d.Check, d.Reason)
			if d.Allow != "" {
				w.Header().Set("Allow", d.Allow)
			}
			writeJSON(w, d.Status, errorResponse{Error: publicMessage(d.Status)})
		})
	}
}

func (h *handler) rateLimit(class string) func(http.Handler) http.Handler {
	limiter := h.limits.For(class)
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.ClientKey(r, h.trustForwarded)
			d := limiter.Allow(key)
			h.record(r, "rate", d.Allowed, key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				retry := retrySeconds(d.RetryAfter)
				log.Printf("[%s] rate limited %s on %s class", middleware.GetReqID(r.Context()), key, class)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeJSON(w, http.StatusTooManyRequests, rateLimitedResponse{
					Error:      domain.ErrRateExceeded.Error(),
					RetryAfter: retry,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *handler) meter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := h.quota.CheckAndIncrement()
		h.record(r, "quota", d.Admit, "")
		w.Header().Set("X-Quota-Remaining", strconv.Itoa(d.Remaining))
		if !d.Admit {
			writeJSON(w, http.StatusTooManyRequests, quotaExceededResponse{
				Error: domain.ErrQuotaExceeded.Error(),
				Limit: d.Limit,
				Reset: d.Reset,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retrySeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

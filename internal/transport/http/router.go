package http

import (
	"net/http"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/gate"
	"math-worksheet-backend/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds the transport settings taken from the service configuration.
type Config struct {
	Gate              gate.Options
	TrustForwardedFor bool
	MaxBodyBytes      int64
	Debug             bool
}

// Deps are the process-wide stores and services the handlers operate on.
type Deps struct {
	Service  *app.ScoringService
	Stats    *app.StatsReporter
	Quota    *app.QuotaTracker
	Limits   *ratelimit.Set
	Global   *ratelimit.Global
	Recorder AdmissionRecorder
}

// Routes is the declared API surface. The gate and the router are both built from it.
func Routes() []gate.Route {
	return []gate.Route{
		{Method: http.MethodGet, Path: "/api/questions", Class: ratelimit.ClassRead, Metered: true},
		{Method: http.MethodGet, Path: "/api/scores", Class: ratelimit.ClassRead, Metered: true},
		{Method: http.MethodPost, Path: "/api/scores", ContentType: "application/json", Class: ratelimit.ClassWrite, Metered: true},
		{Method: http.MethodGet, Path: "/api/scores/live", Class: ratelimit.ClassRead},
		{Method: http.MethodGet, Path: "/api/stats"},
	}
}

// NewRouter wires the admission pipeline in front of the API:
// request id, log, recover, global guard, gate, CORS, then per-route rate limit and quota.
func NewRouter(cfg Config, deps Deps) http.Handler {
	h := &handler{
		service:        deps.Service,
		stats:          deps.Stats,
		quota:          deps.Quota,
		limits:         deps.Limits,
		global:         deps.Global,
		recorder:       deps.Recorder,
		live:           NewLiveHandler(deps.Service),
		trustForwarded: cfg.TrustForwardedFor,
		maxBodyBytes:   cfg.MaxBodyBytes,
	}

	gateOpts := cfg.Gate
	gateOpts.UtilityPaths = []string{"/", "/health", "/api/stats"}
	if cfg.Debug {
		gateOpts.UtilityPaths = append(gateOpts.UtilityPaths, "/debug")
	}
	routes := Routes()
	g := gate.New(gateOpts, routes)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.globalGuard)
	r.Use(h.admission(g))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Gate.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Origin", "X-Requested-With", "Authorization", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Quota-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.index)
	r.Get("/health", h.health)
	if cfg.Debug {
		r.Get("/debug", h.debug)
	}

	handlers := map[string]http.HandlerFunc{
		"GET /api/questions":   h.questions,
		"GET /api/scores":      h.highScores,
		"POST /api/scores":     h.submitScore,
		"GET /api/scores/live": h.live.ServeWS,
		"GET /api/stats":       h.usage,
	}
	for _, route := range routes {
		mws := []func(http.Handler) http.Handler{h.rateLimit(route.Class)}
		if route.Metered {
			mws = append(mws, h.meter)
		}
		r.With(mws...).Method(route.Method, route.Path, handlers[route.Method+" "+route.Path])
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: publicMessage(http.StatusNotFound)})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: publicMessage(http.StatusMethodNotAllowed)})
	})
	return r
}

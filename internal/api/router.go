package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mb-events/server/internal/api/handlers"
	"github.com/mb-events/server/internal/api/middleware"
	"github.com/mb-events/server/internal/auth"
	"github.com/mb-events/server/internal/config"
	"github.com/mb-events/server/internal/domain/events"
	"github.com/mb-events/server/internal/domain/users"
	"github.com/mb-events/server/internal/metrics"
)

// Deps carries everything the router wires together. The caller owns the
// lifecycle of the pool and services.
type Deps struct {
	Config   config.Config
	Logger   zerolog.Logger
	Pool     *pgxpool.Pool
	Tokens   *auth.Manager
	Events   *events.Service
	Users    *users.Service
	Uploader handlers.ImageUploader
}

func NewRouter(deps Deps) http.Handler {
	eventsHandler := handlers.NewEventsHandler(deps.Events, deps.Uploader)
	usersHandler := handlers.NewUsersHandler(deps.Users)
	healthHandler := handlers.NewHealthHandler(deps.Pool)

	requireAuth := middleware.RequireAuth(deps.Tokens)

	// The tier must be in the request context before the limiter runs, so
	// rate limiting is applied per route rather than around the whole mux.
	rateLimit := middleware.RateLimit(deps.Config.RateLimit)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	limited := rateLimit
	loginLimited := func(h http.Handler) http.Handler {
		return loginTier(rateLimit(h))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(healthHandler.Healthz))
	mux.Handle("/readyz", http.HandlerFunc(healthHandler.Readyz))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/events", limited(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.List),
		http.MethodPost: requireAuth(http.HandlerFunc(eventsHandler.Create)),
	})))
	mux.Handle("/api/v1/events/upcoming", limited(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.Upcoming),
	})))
	mux.Handle("/api/v1/events/free", limited(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.Free),
	})))
	mux.Handle("/api/v1/events/hosted", limited(methodMux(map[string]http.Handler{
		http.MethodGet: requireAuth(http.HandlerFunc(eventsHandler.Hosted)),
	})))
	mux.Handle("/api/v1/events/previous", limited(methodMux(map[string]http.Handler{
		http.MethodGet: requireAuth(http.HandlerFunc(eventsHandler.Previous)),
	})))
	mux.Handle("/api/v1/events/attending", limited(methodMux(map[string]http.Handler{
		http.MethodGet: requireAuth(http.HandlerFunc(eventsHandler.Attending)),
	})))
	mux.Handle("/api/v1/events/pay/{id}", limited(methodMux(map[string]http.Handler{
		http.MethodPost: requireAuth(http.HandlerFunc(eventsHandler.Pay)),
	})))
	mux.Handle("/api/v1/events/{id}", limited(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.Get),
	})))

	mux.Handle("/api/v1/register", limited(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(usersHandler.Register),
	})))
	mux.Handle("/api/v1/login", loginLimited(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(usersHandler.Login),
	})))
	mux.Handle("/api/v1/change-password", limited(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(usersHandler.ChangePassword),
	})))
	mux.Handle("/api/v1/forgot-password", loginLimited(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(usersHandler.ForgotPassword),
	})))
	mux.Handle("/api/v1/reset-password", limited(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(usersHandler.ResetPassword),
	})))

	var handler http.Handler = mux
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
	"github.com/adityaaa08012006/decivue-sub004/internal/notify"
	"github.com/adityaaa08012006/decivue-sub004/internal/notify/feed"
)

// RouterConfig assembles everything NewRouter needs to build the full HTTP
// surface: the handler set, the middleware chain configuration, and the
// live-feed bus.
type RouterConfig struct {
	Handlers *DecisionHandlers
	Chain    middleware.ChainConfig
	Bus      notify.Bus
	Logger   *slog.Logger
}

// NewRouter builds the full API router: health/readiness/metrics are
// public, everything under /organizations/{org} goes through the
// middleware.Chain (auth, rate limiting, CORS, recovery, ...), and the
// websocket feed is upgraded directly off the bus.
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if cfg.Handlers != nil {
		router.HandleFunc("/readyz", cfg.Handlers.Ready).Methods(http.MethodGet)
	}

	if cfg.Bus != nil {
		router.HandleFunc("/ws/feed", feed.Handler(cfg.Bus, cfg.Logger, feedOrgFromQuery)).Methods(http.MethodGet)
	}

	if cfg.Handlers == nil {
		return router
	}

	orgs := router.PathPrefix("/organizations/{org}").Subrouter()

	route := func(path, method string, h http.HandlerFunc) {
		chained := middleware.Chain(cfg.Chain, path, h)
		orgs.Handle(path, chained).Methods(method)
	}

	route("/decisions", http.MethodPost, cfg.Handlers.CreateDecision)
	route("/decisions/{id}", http.MethodGet, cfg.Handlers.GetDecision)
	route("/decisions/{id}", http.MethodPatch, cfg.Handlers.EditDecision)
	route("/decisions/{id}/lock", http.MethodPost, cfg.Handlers.LockDecision)
	route("/decisions/{id}/unlock", http.MethodPost, cfg.Handlers.UnlockDecision)
	route("/decisions/{id}/review", http.MethodPost, cfg.Handlers.ReviewDecision)
	route("/decisions/{id}/timeline", http.MethodGet, cfg.Handlers.Timeline)
	route("/decisions/{id}/dependencies", http.MethodPost, cfg.Handlers.LinkDependency)
	route("/decisions/{id}/dependencies/{targetId}", http.MethodDelete, cfg.Handlers.UnlinkDependency)
	route("/decisions/{id}/governance/requests/{requestId}/resolve", http.MethodPost, cfg.Handlers.ResolveEditRequest)
	route("/evaluate-now", http.MethodPost, cfg.Handlers.TriggerEvaluation)

	return router
}

// feedOrgFromQuery resolves the websocket feed's organization scope from
// the resolved Actor if auth ran, falling back to the "org" query
// parameter for unauthenticated local development.
func feedOrgFromQuery(r *http.Request) string {
	if actor, ok := middleware.ActorFromContext(r.Context()); ok && actor.OrganizationID != "" {
		return actor.OrganizationID
	}
	return r.URL.Query().Get("org")
}

var _ collaborators.Notifier = (*notify.Feed)(nil)

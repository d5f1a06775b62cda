// Package routes wires the keeper/trader-facing HTTP surface directly onto
// an in-process native/engine.Engine. Unlike the teacher's gateway/routes
// package, which reverse-proxies to separate backing gRPC/JSON-RPC
// services, novaperp has no internal microservice split: every handler
// here calls engine methods in the same process, following the teacher's
// gateway/routes/router.go for the chi wiring and middleware stacking only.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"novaperp/core/oracle"
	"novaperp/core/types"
	"novaperp/gateway/middleware"
	"novaperp/native/engine"
)

// ServiceRoute describes one mounted endpoint's auth/scope/rate-limit
// requirements, following the teacher's ServiceRoute.
type ServiceRoute struct {
	Name           string
	Pattern        string
	Method         string
	RequireAuth    bool
	RequiredScopes []string
	RateLimitKey   string
	Handler        http.HandlerFunc
}

// Config bundles the engine handle, user store, and cross-cutting
// middleware needed to build the router.
type Config struct {
	Engine          *engine.Engine
	Users           UserStore
	Authenticator   *middleware.Authenticator
	RateLimiter     *middleware.RateLimiter
	Observability   *middleware.Observability
	Signature       middleware.SignatureConfig
	CORS            middleware.CORSConfig
	HealthHandler   http.HandlerFunc
	OracleTolerances oracle.Tolerances
}

// UserStore loads and persists the types.User state the engine mutates.
// KVUserStore adapts a storage.Database to it.
type UserStore interface {
	LoadUser(authority string) (*types.User, error)
	SaveUser(u *types.User) error
}

// New builds the keeper/trader HTTP router: health, metrics, and every
// order/liquidation endpoint from serviceRoutes, each wrapped in CORS, rate
// limiting, auth, signature verification, and tracing/metrics middleware
// in that order, mirroring the teacher's router.New stacking.
func New(cfg Config) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	if cfg.HealthHandler == nil {
		cfg.HealthHandler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	}
	r.Get("/healthz", cfg.HealthHandler)
	if cfg.Observability != nil {
		r.Get("/metrics", cfg.Observability.MetricsHandler().ServeHTTP)
	}

	tol := cfg.OracleTolerances
	if tol == (oracle.Tolerances{}) {
		tol = oracle.DefaultTolerances()
	}
	h := newHandlers(cfg.Engine, cfg.Users, tol)
	for _, route := range serviceRoutes(h) {
		handler := route.Handler
		if cfg.Observability != nil {
			handler = wrap(handler, cfg.Observability.Middleware(route.Name))
		}
		handler = wrap(handler, middleware.VerifyAuthority(cfg.Signature, nil))
		if cfg.Authenticator != nil && route.RequireAuth {
			handler = wrap(handler, cfg.Authenticator.Middleware(route.RequiredScopes...))
		}
		if cfg.RateLimiter != nil && route.RateLimitKey != "" {
			handler = wrap(handler, cfg.RateLimiter.Middleware(route.RateLimitKey))
		}
		r.Method(route.Method, route.Pattern, handler)
	}
	return r, nil
}

func wrap(h http.HandlerFunc, mw func(http.Handler) http.Handler) http.HandlerFunc {
	return mw(h).ServeHTTP
}

func serviceRoutes(h *handlers) []ServiceRoute {
	return []ServiceRoute{
		{Name: "orders.place_perp", Pattern: "/v1/orders/perp", Method: http.MethodPost, RequireAuth: true, RequiredScopes: []string{"trade"}, RateLimitKey: "orders.place_perp", Handler: h.placePerpOrder},
		{Name: "orders.cancel", Pattern: "/v1/orders/cancel", Method: http.MethodPost, RequireAuth: true, RequiredScopes: []string{"trade"}, RateLimitKey: "orders.cancel", Handler: h.cancelOrder},
		{Name: "orders.modify", Pattern: "/v1/orders/modify", Method: http.MethodPost, RequireAuth: true, RequiredScopes: []string{"trade"}, RateLimitKey: "orders.modify", Handler: h.modifyOrder},
		{Name: "liquidations.perp", Pattern: "/v1/liquidations/perp", Method: http.MethodPost, RequireAuth: true, RequiredScopes: []string{"liquidate"}, RateLimitKey: "liquidations.perp", Handler: h.liquidatePerp},
		{Name: "accounts.get", Pattern: "/v1/accounts/{authority}", Method: http.MethodGet, RequireAuth: false, RateLimitKey: "accounts.get", Handler: h.getAccount},
		{Name: "oracle.push", Pattern: "/v1/oracle/{pubkey}", Method: http.MethodPost, RequireAuth: true, RequiredScopes: []string{"keeper"}, RateLimitKey: "oracle.push", Handler: h.pushOracle},
	}
}

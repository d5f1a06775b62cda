// Command matchingd is the standalone daemon wiring config, storage,
// observability, the reporting/streaming outer layers, and the gateway
// HTTP surface around a single in-process native/engine.Engine, spec §11's
// package layout. It is deliberately thin: every state transition lives in
// core/* and native/*, following the teacher's services/otc-gateway/main.go
// composition-root style (load config, open dependencies, build the
// server, serve until signaled).
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"novaperp/config"
	"novaperp/core/events"
	"novaperp/core/oracle"
	"novaperp/core/state"
	"novaperp/core/types"
	"novaperp/gateway/middleware"
	"novaperp/gateway/routes"
	"novaperp/native/engine"
	"novaperp/observability/logging"
	"novaperp/observability/telemetry"
	"novaperp/reporting"
	"novaperp/storage"
	"novaperp/streaming"
)

func main() {
	configPath := "./matchingd.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("matchingd: config error: %v", err)
	}

	var logger *slog.Logger
	if cfg.Logging.File != "" {
		logger = logging.SetupRotating("matchingd", cfg.Env, logging.RotationConfig{
			Filename:   cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		})
	} else {
		logger = logging.Setup("matchingd", cfg.Env)
	}

	if cfg.Telemetry.Enabled {
		shutdown, _, err := telemetry.Init(context.Background(), telemetry.Config{
			ServiceName: "matchingd",
			Environment: cfg.Env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
		})
		if err != nil {
			logger.Error("matchingd: telemetry init failed", "err", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("matchingd: create data dir failed", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	db, err := storage.NewLevelDB(cfg.DataDir + "/state")
	if err != nil {
		logger.Error("matchingd: open storage failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	report, err := reporting.Open(cfg.Reporting.Driver, cfg.Reporting.DSN, logger)
	if err != nil {
		logger.Error("matchingd: open reporting store failed", "err", err)
		os.Exit(1)
	}

	hub := streaming.NewHub()
	emit := events.MultiEmitter{report, hub}

	perpMarkets := loadPerpMarkets(db, cfg.PerpMarketIndices, logger)
	spotMarkets := loadSpotMarkets(db, cfg.SpotMarketIndices, logger)

	eng := engine.New(
		oracle.NewMap(),
		state.NewPerpMarketMap(perpMarkets),
		state.NewSpotMarketMap(spotMarkets),
		engine.Clock{Slot: 1, Now: time.Now().Unix()},
		engine.Config{
			LiquidationBufferBps: cfg.LiquidationBuffer(),
			PriceBandBufferBps:   cfg.Risk.PriceBandBufferBps,
			FeeTiers:             cfg.FeeTierTable(),
			FundingRiskCaps:      cfg.FundingRiskCaps(),
		},
		emit,
	).WithLogger(logger)

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName:   "matchingd",
		MetricsPrefix: "novaperp_gateway",
		LogRequests:   true,
		Enabled:       true,
	}, logger)

	authenticator := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    cfg.Gateway.AuthEnabled,
		HMACSecret: cfg.Gateway.JWTSecret,
		Issuer:     cfg.Gateway.JWTIssuer,
	}, logger)

	rateLimits := make(map[string]middleware.RateLimit, len(cfg.Gateway.RateLimits))
	for name, entry := range cfg.Gateway.RateLimits {
		rateLimits[name] = middleware.RateLimit{RatePerSecond: entry.RatePerSecond, Burst: entry.Burst}
	}

	router, err := routes.New(routes.Config{
		Engine:           eng,
		Users:            routes.KVUserStore{DB: db},
		Authenticator:    authenticator,
		RateLimiter:      middleware.NewRateLimiter(rateLimits),
		Observability:    obs,
		OracleTolerances: cfg.OracleTolerances(),
	})
	if err != nil {
		logger.Error("matchingd: build router failed", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.HandleFunc("/v1/stream/events", streaming.Handler(hub))

	addr := cfg.Gateway.ListenAddress
	if strings.TrimSpace(addr) == "" {
		addr = cfg.ListenAddress
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("matchingd: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("matchingd: server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("matchingd: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// loadPerpMarkets loads the declared writable set of perp markets from
// storage (spec §5); a market absent from storage is skipped with a
// warning rather than fabricated, since market creation is an out-of-scope
// admin/governance flow (spec §1).
func loadPerpMarkets(db storage.Database, indices []uint16, logger *slog.Logger) []*types.PerpMarket {
	out := make([]*types.PerpMarket, 0, len(indices))
	for _, idx := range indices {
		mkt, err := storage.LoadPerpMarket(db, idx)
		if err != nil {
			logger.Warn("matchingd: perp market not found in storage, skipping", "marketIndex", idx, "err", err)
			continue
		}
		out = append(out, mkt)
	}
	return out
}

func loadSpotMarkets(db storage.Database, indices []uint16, logger *slog.Logger) []*types.SpotMarket {
	out := make([]*types.SpotMarket, 0, len(indices))
	for _, idx := range indices {
		mkt, err := storage.LoadSpotMarket(db, idx)
		if err != nil {
			logger.Warn("matchingd: spot market not found in storage, skipping", "marketIndex", idx, "err", err)
			continue
		}
		out = append(out, mkt)
	}
	return out
}

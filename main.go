package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"solarfleet/internal/auth"
	"solarfleet/internal/fleet/application"
	fleet "solarfleet/internal/fleet/domain"
	fleetpostgres "solarfleet/internal/fleet/infrastructure/postgres"
	fleethttp "solarfleet/internal/fleet/interfaces/http"
	"solarfleet/internal/fusionsolar"
	"solarfleet/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	}

	metrics.Init(db, logger)

	dial := fusionsolar.Dialer(cfg.VendorTimeout(), logger)
	pool, err := application.NewSessionPool(dial, logger)
	if err != nil {
		logger.Fatalf("session pool error: %v", err)
	}

	harvester, err := application.NewHarvester(pool, logger,
		application.WithCriticalAfter(cfg.CriticalAfter()),
		application.WithMaintenancePlants(cfg.MaintenanceSet()),
		application.WithStateMessages(cfg.Messages()),
		application.WithAlarmCheck(cfg.AlarmCheck),
	)
	if err != nil {
		logger.Fatalf("harvester error: %v", err)
	}

	aggregator, err := application.NewAggregator(harvester, cfg.Credentials(), logger,
		application.WithWorkers(cfg.HarvestWorkers),
	)
	if err != nil {
		logger.Fatalf("aggregator error: %v", err)
	}

	var snapshotRepo *fleetpostgres.SnapshotRepository
	if db != nil {
		snapshotRepo = fleetpostgres.NewSnapshotRepository(db)
	}

	// Every refresh runs under its own deadline so one stuck vendor call
	// cannot pin the cache lock forever. Archive writes are fire-and-forget.
	refreshTimeout := cfg.VendorTimeout() * 6
	refresh := func(ctx context.Context) (fleet.Snapshot, error) {
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		snap, err := aggregator.Aggregate(ctx)
		if err != nil {
			return fleet.Snapshot{}, err
		}
		if snapshotRepo != nil {
			go func(snap fleet.Snapshot) {
				archiveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := snapshotRepo.InsertSnapshot(archiveCtx, snap); err != nil {
					metrics.IncSnapshotArchive(metrics.ResultError)
					logger.Printf("snapshot archive error: %v", err)
					return
				}
				metrics.IncSnapshotArchive(metrics.ResultSuccess)
			}(snap)
		}
		return snap, nil
	}

	cache, err := application.NewSnapshotCache(refresh, cfg.CacheTTL())
	if err != nil {
		logger.Fatalf("snapshot cache error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/fleet/live", fleethttp.NewLiveDataHandler(cache))
	if snapshotRepo != nil {
		mux.Handle("/api/v1/fleet/history", fleethttp.NewHistoryHandler(snapshotRepo))
	}
	mux.Handle("/api/v1/fleet/export.xlsx", fleethttp.NewExportHandler(cache, "xlsx"))
	mux.Handle("/api/v1/fleet/export.pdf", fleethttp.NewExportHandler(cache, "pdf"))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := http.Handler(mux)
	if cfg.JWTSecret != "" {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(handler)
	} else {
		logger.Printf("AUTH_JWT_SECRET not set, serving without auth")
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(handler, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

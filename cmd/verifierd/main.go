// verifierd runs the verification daemon: it wires the event log, session
// index, checkpoint store, and notification publisher (with in-memory
// fallbacks when no backend is configured), rehydrates open sessions, and
// serves the operational HTTP surface.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"vouch/internal/attestation"
	"vouch/internal/platform/config"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	platformredis "vouch/internal/platform/redis"
	"vouch/internal/verification/activities"
	"vouch/internal/verification/activities/local"
	"vouch/internal/verification/decay"
	"vouch/internal/verification/metrics"
	"vouch/internal/verification/notify"
	"vouch/internal/verification/service"
	"vouch/internal/verification/store/checkpoint"
	"vouch/internal/verification/store/eventlog"
	"vouch/internal/verification/store/index"
	"vouch/pkg/platform/middleware/requesttime"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()

	eventLog, idx, closeStores, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	checkpoints, redisClient, closeCheckpoints, err := buildCheckpoints(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCheckpoints()

	notifier, closeNotifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	collaborators := local.NewSet()

	supervisor, err := decay.NewSupervisor(collaborators.Scores, checkpoints,
		decay.WithSupervisorLogger(log), decay.WithSupervisorMetrics(met))
	if err != nil {
		return err
	}

	svc, err := service.New(service.Deps{
		EventLog:   eventLog,
		Index:      idx,
		Progress:   checkpoints,
		Decay:      supervisor,
		Scores:     collaborators.Scores,
		Trust:      collaborators.Trust,
		Evidence:   collaborators.Evidence,
		Validators: collaborators.Validators,
		Verifiers:  collaborators.Verifiers,
		Extractor:  collaborators.Extractor,
		Notifier:   notifier,
		Attestor:   attestation.NewService(cfg.JWTSigningKey, cfg.AttestIssuer),
		Logger:     log,
		Metrics:    met,
	})
	if err != nil {
		return err
	}
	defer svc.Shutdown()

	if err := svc.Rehydrate(ctx); err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(requesttime.Middleware)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "checkpoint store unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("verifierd listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStores returns the event log and session index, Postgres-backed when
// configured and in-memory otherwise.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (eventlog.Store, index.Store, func(), error) {
	if cfg.PostgresURL == "" {
		log.Info("postgres not configured, using in-memory event log and index")
		return eventlog.NewInMemoryStore(), index.NewInMemoryStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, nil, err
	}
	events := eventlog.NewPostgres(pool)
	if err := events.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	idx := index.NewPostgres(db)
	if err := idx.Migrate(ctx); err != nil {
		pool.Close()
		_ = db.Close()
		return nil, nil, nil, err
	}

	closer := func() {
		pool.Close()
		_ = db.Close()
	}
	return events, idx, closer, nil
}

// buildCheckpoints returns the checkpoint store, Redis-backed when
// configured. The returned client is nil when checkpoints are in-memory.
func buildCheckpoints(ctx context.Context, cfg config.Config, log *slog.Logger) (checkpoint.Store, *platformredis.Client, func(), error) {
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		log.Info("redis not configured, using in-memory checkpoints")
		return checkpoint.NewInMemoryStore(), nil, func() {}, nil
	}
	return checkpoint.NewRedis(client.Client), client, func() { _ = client.Close() }, nil
}

// buildNotifier returns the Kafka notifier when brokers are configured and a
// log-only notifier otherwise.
func buildNotifier(cfg config.Config, log *slog.Logger) (activities.Notifier, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka not configured, notifications go to the log")
		return notify.NewLogNotifier(log), func() {}, nil
	}
	kafka, err := notify.NewKafkaNotifier(cfg.Kafka, notify.WithKafkaLogger(log))
	if err != nil {
		return nil, nil, err
	}
	notifier, err := notify.NewResilientNotifier(kafka, notify.NewLogNotifier(log), log)
	if err != nil {
		kafka.Close()
		return nil, nil, err
	}
	return notifier, kafka.Close, nil
}

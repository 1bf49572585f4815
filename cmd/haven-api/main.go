package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/haven-intake/internal/adapters/http"
	"github.com/PabloGalante/haven-intake/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/haven-intake/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/haven-intake/internal/adapters/storage/memory"
	"github.com/PabloGalante/haven-intake/internal/app/conversation"
	"github.com/PabloGalante/haven-intake/internal/app/intake"
	"github.com/PabloGalante/haven-intake/internal/app/reports"
	"github.com/PabloGalante/haven-intake/internal/config"
	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		observability.Logger().Error("haven api stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.Configure(os.Stdout, observability.ParseLevel(cfg.LogLevel))
	log := observability.WithFields("mode", cfg.Mode)

	completer, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	// Storage: Firestore or Memory
	var (
		sessionStore domain.SessionStore
		messageStore domain.MessageStore
		reportStore  domain.ReportStore
	)

	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using firestore storage", "project", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return err
		}
		defer fsStore.Close()

		// 1 store, implements 3 interfaces
		sessionStore = fsStore
		messageStore = fsStore
		reportStore = fsStore

	default:
		log.Info("using in-memory storage")
		sessionStore = memstore.NewSessionStore()
		messageStore = memstore.NewMessageStore()
		reportStore = memstore.NewReportStore()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []intake.Option{
		intake.WithTimeout(cfg.BackendTimeout),
		intake.WithMetrics(observability.NewMetrics(reg)),
	}
	if cfg.Seed != 0 {
		opts = append(opts, intake.WithRand(intake.NewRand(cfg.Seed)))
	}
	engine := intake.NewEngine(completer, opts...)

	convSvc := conversation.NewService(engine, sessionStore, messageStore, reportStore)
	reportSvc := reports.NewService(reportStore)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(engine, convSvc, reportSvc, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("haven api listening", "port", cfg.Port, "provider", cfg.LLMProvider, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if path := os.Getenv("HAVEN_CONFIG_FILE"); path != "" {
		g.Go(func() error {
			return config.Watch(gctx, path, func(next *config.Config) {
				observability.Configure(os.Stdout, observability.ParseLevel(next.LogLevel))
				observability.Logger().Info("config reloaded", "log_level", next.LogLevel)
			})
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

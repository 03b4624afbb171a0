package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/cc-ledger/internal/analytics"
	"github.com/dvloznov/cc-ledger/internal/api/handlers"
	"github.com/dvloznov/cc-ledger/internal/api/middleware"
	"github.com/dvloznov/cc-ledger/internal/gcs"
	jobsinmemory "github.com/dvloznov/cc-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/cc-ledger/internal/logger"
	"github.com/dvloznov/cc-ledger/internal/pipeline"
	"github.com/dvloznov/cc-ledger/internal/posting"
	"github.com/dvloznov/cc-ledger/internal/store/inmemory"
)

func main() {
	var (
		port      = flag.String("port", "8080", "HTTP server port")
		bucket    = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for statement uploads (or set GCS_BUCKET env)")
		model     = flag.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model for statement parsing (or set GEMINI_MODEL env)")
		bqProject = flag.String("bq-project", os.Getenv("BQ_PROJECT"), "BigQuery project for entry analytics (or set BQ_PROJECT env)")
		bqDataset = flag.String("bq-dataset", getenvDefault("BQ_DATASET", "ledger"), "BigQuery dataset for entry analytics")
		queueSize = flag.Int("queue-size", 100, "Statement processing queue buffer size")
		workers   = flag.Int("workers", 5, "Statement processing worker count")
	)
	flag.Parse()

	log := logger.New()

	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - statement uploads will fail")
	}

	ctx := context.Background()

	st := inmemory.NewStore()
	storage := gcs.NewClient(*bucket)

	jobStore := jobsinmemory.NewJobStore()
	jobQueue := jobsinmemory.NewQueue(*queueSize, *workers, jobStore)

	parser := pipeline.NewGeminiParser(*model)
	processor := pipeline.NewProcessor(pipeline.New(st, storage, parser), log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Msg("Starting statement worker")
		if err := jobQueue.Start(workerCtx, processor.Handle); err != nil {
			log.Error().Err(err).Msg("Statement worker stopped with error")
		}
	}()

	coordinator := posting.NewCoordinator(st, log)

	var analyticsHandler *handlers.AnalyticsHandler
	if *bqProject != "" {
		exporter := analytics.NewExporter(*bqProject, *bqDataset, log)
		coordinator.OnCommitted(exporter.ObserveCommit)
		analyticsHandler = handlers.NewAnalyticsHandler(exporter, log)
	} else {
		log.Warn().Msg("No BigQuery project configured - entry analytics disabled")
	}

	router := &handlers.Router{
		Accounts:     handlers.NewAccountsHandler(st, log),
		Statements:   handlers.NewStatementsHandler(st, storage, jobQueue, log),
		Entries:      handlers.NewEntriesHandler(coordinator, log),
		Transactions: handlers.NewTransactionsHandler(st, log),
		Jobs:         handlers.NewJobsHandler(jobStore, log),
		Analytics:    analyticsHandler,
	}

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(router.Mux()),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banktocfo/banktocfo/internal/api/handlers"
	"github.com/banktocfo/banktocfo/internal/api/middleware"
	"github.com/banktocfo/banktocfo/internal/categorize"
	"github.com/banktocfo/banktocfo/internal/config"
	"github.com/banktocfo/banktocfo/internal/filestore"
	"github.com/banktocfo/banktocfo/internal/jobs/inmemory"
	"github.com/banktocfo/banktocfo/internal/logger"
	"github.com/banktocfo/banktocfo/internal/pipeline"
	"github.com/banktocfo/banktocfo/internal/statement"
	"github.com/banktocfo/banktocfo/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logger.Level)

	ctx := context.Background()

	// File storage: GCS when a bucket is configured, local directories
	// otherwise.
	var uploads, artifacts filestore.Store
	if cfg.Storage.Bucket != "" {
		gcsUploads, err := filestore.NewGCS(ctx, cfg.Storage.Bucket, "uploads")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create upload store")
		}
		defer gcsUploads.Close()

		gcsArtifacts, err := filestore.NewGCS(ctx, cfg.Storage.Bucket, "outputs")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create artifact store")
		}
		defer gcsArtifacts.Close()

		uploads, artifacts = gcsUploads, gcsArtifacts
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("Using GCS file storage")
	} else {
		uploads, err = filestore.NewLocal(cfg.Storage.UploadDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create upload store")
		}
		artifacts, err = filestore.NewLocal(cfg.Storage.ArtifactDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create artifact store")
		}
		log.Info().
			Str("uploads", cfg.Storage.UploadDir).
			Str("artifacts", cfg.Storage.ArtifactDir).
			Msg("Using local file storage")
	}

	// Category rules: embedded defaults unless an override file is given.
	rules := categorize.DefaultRules()
	if cfg.Pipeline.RulesPath != "" {
		rules, err = categorize.LoadRules(cfg.Pipeline.RulesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Pipeline.RulesPath).Msg("Failed to load category rules")
		}
	}
	categorizer := categorize.New(rules)

	// Statement parsing: dialect-aware CSV plus vision extraction for PDFs.
	extractor := vision.NewGemini(cfg.Vision.Model, log)
	visionOpts := vision.DefaultOptions()
	if cfg.Vision.MaxConcurrent > 0 {
		visionOpts.MaxConcurrent = cfg.Vision.MaxConcurrent
	}
	if cfg.Vision.MaxAttempts > 0 {
		visionOpts.MaxAttempts = cfg.Vision.MaxAttempts
	}
	parser := statement.NewParser(extractor, vision.NewCache(), visionOpts, cfg.Vision.RenderDPI, log)

	// Job infrastructure.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Pipeline.QueueSize, cfg.Pipeline.Workers, jobStore)

	processor := pipeline.NewProcessor(uploads, artifacts, parser, categorizer, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Int("workers", cfg.Pipeline.Workers).Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, processor.Handle); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	// Background expiry sweep: reclaim old uploads, artifacts and the job
	// records pointing at them.
	go runSweep(workerCtx, uploads, artifacts, jobStore, cfg.Storage.ArtifactTTL, log)

	// HTTP surface.
	statementsHandler := handlers.NewStatementsHandler(uploads, artifacts, jobQueue, jobStore, cfg.Pipeline.MaxRetries, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/status/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/download/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			statementsHandler.Download(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/healthz", handlers.Health)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.CORS(cfg.Server.AllowedOrigins)(
				middleware.MaxBytes(cfg.Server.MaxUploadBytes)(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
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

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

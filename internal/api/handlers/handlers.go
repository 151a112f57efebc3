// Package handlers implements the HTTP endpoints for statement intake,
// job status and report download.
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/banktocfo/banktocfo/internal/api/middleware"
	"github.com/banktocfo/banktocfo/internal/filestore"
	"github.com/banktocfo/banktocfo/internal/jobs"
	"github.com/banktocfo/banktocfo/internal/statement"
)

// StatementsHandler handles statement upload and report download.
type StatementsHandler struct {
	uploads    filestore.Store
	artifacts  filestore.Store
	publisher  jobs.Publisher
	store      jobs.JobStore
	maxRetries int
	log        zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(uploads, artifacts filestore.Store, publisher jobs.Publisher, store jobs.JobStore, maxRetries int, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		uploads:    uploads,
		artifacts:  artifacts,
		publisher:  publisher,
		store:      store,
		maxRetries: maxRetries,
		log:        log,
	}
}

// Upload handles POST /upload. It accepts one statement file as multipart
// form data, rejects unsupported formats before any work is queued, and
// returns the job id for polling.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file field in multipart form")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	// Fail fast on formats the pipeline can never process.
	if _, err := statement.Sniff(header.Filename, data); err != nil {
		if errors.Is(err, statement.ErrUnsupportedFormat) {
			middleware.WriteError(w, http.StatusUnsupportedMediaType, "Unsupported file format: upload a PDF or CSV statement")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Could not identify uploaded file")
		return
	}

	jobID := uuid.New().String()
	uploadName := jobID + filepath.Ext(header.Filename)

	ref, err := h.uploads.Save(ctx, uploadName, bytes.NewReader(data))
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to store upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	job := &jobs.ProcessStatementJob{
		JobID:      jobID,
		Filename:   header.Filename,
		UploadRef:  ref,
		Status:     jobs.JobStatusPending,
		CreatedAt:  time.Now(),
		MaxRetries: h.maxRetries,
	}

	if err := h.publisher.PublishProcessStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to enqueue job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Processing queue unavailable")
		return
	}

	h.log.Info().
		Str("job_id", jobID).
		Str("filename", header.Filename).
		Int("bytes", len(data)).
		Msg("Statement accepted")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":       jobID,
		"status":       string(job.Status),
		"status_url":   "/status/" + jobID,
		"download_url": "/download/" + jobID,
	})
}

// Download handles GET /download/{job_id}. It streams the finished
// workbook, or explains why there is nothing to stream yet.
func (h *StatementsHandler) Download(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	switch job.Status {
	case jobs.JobStatusCompleted:
	case jobs.JobStatusFailed:
		middleware.WriteError(w, http.StatusConflict, "Processing failed: "+job.Error)
		return
	default:
		middleware.WriteError(w, http.StatusConflict, "Report is not ready yet")
		return
	}

	artifact, err := h.artifacts.Open(ctx, job.ArtifactRef)
	if errors.Is(err, filestore.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Report has expired")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to open artifact")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to open report")
		return
	}
	defer artifact.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename(job.Filename)))
	if _, err := io.Copy(w, artifact); err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to stream artifact")
	}
}

// reportFilename derives the download name from the original upload.
func reportFilename(uploaded string) string {
	base := filepath.Base(uploaded)
	ext := filepath.Ext(base)
	if ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" || base == "." {
		base = "statement"
	}
	return base + "_report.xlsx"
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /status/{job_id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

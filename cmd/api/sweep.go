package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/banktocfo/banktocfo/internal/filestore"
	"github.com/banktocfo/banktocfo/internal/jobs"
)

const sweepInterval = time.Hour

// runSweep periodically reclaims expired uploads, artifacts and the job
// records that point at them. It runs until ctx is cancelled.
func runSweep(ctx context.Context, uploads, artifacts filestore.Store, store jobs.JobStore, ttl time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, uploads, artifacts, store, ttl, log)
		}
	}
}

func sweepOnce(ctx context.Context, uploads, artifacts filestore.Store, store jobs.JobStore, ttl time.Duration, log zerolog.Logger) {
	removedUploads, err := uploads.Sweep(ctx, ttl)
	if err != nil {
		log.Error().Err(err).Msg("Upload sweep failed")
	}

	removedArtifacts, err := artifacts.Sweep(ctx, ttl)
	if err != nil {
		log.Error().Err(err).Msg("Artifact sweep failed")
	}

	// Drop job records whose artifacts are gone.
	expired, err := store.ListJobs(ctx, jobs.JobFilter{CompletedBefore: time.Now().Add(-ttl)})
	if err != nil {
		log.Error().Err(err).Msg("Job expiry listing failed")
		return
	}
	removedJobs := 0
	for _, job := range expired {
		if err := store.DeleteJob(ctx, job.JobID); err == nil {
			removedJobs++
		}
	}

	if removedUploads+removedArtifacts+removedJobs > 0 {
		log.Info().
			Int("uploads", removedUploads).
			Int("artifacts", removedArtifacts).
			Int("jobs", removedJobs).
			Msg("Expiry sweep completed")
	}
}

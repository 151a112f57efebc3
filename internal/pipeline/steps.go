package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/banktocfo/banktocfo/internal/categorize"
	"github.com/banktocfo/banktocfo/internal/filestore"
	"github.com/banktocfo/banktocfo/internal/report"
	"github.com/banktocfo/banktocfo/internal/statement"
)

// fetchUploadStep reads the uploaded statement from the upload store.
type fetchUploadStep struct {
	uploads filestore.Store
}

func (s *fetchUploadStep) Execute(ctx context.Context, state *State) error {
	r, err := s.uploads.Open(ctx, state.Job.UploadRef)
	if err != nil {
		return fmt.Errorf("fetch upload %s: %w", state.Job.UploadRef, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", state.Job.UploadRef, err)
	}
	state.Upload = data
	return nil
}

// parseStep extracts canonical transactions from the upload.
type parseStep struct {
	parser *statement.Parser
}

func (s *parseStep) Execute(ctx context.Context, state *State) error {
	res, err := s.parser.Parse(ctx, state.Job.Filename, state.Upload)
	if err != nil {
		return err
	}
	state.Parsed = res
	state.Job.TransactionCount = len(res.Transactions)
	state.Job.SkippedRows = res.SkippedRows
	return nil
}

// categorizeStep assigns a category to every transaction.
type categorizeStep struct {
	categorizer *categorize.Categorizer
}

func (s *categorizeStep) Execute(ctx context.Context, state *State) error {
	state.Categorized = s.categorizer.Apply(state.Parsed.Transactions)
	return nil
}

// aggregateStep computes monthly and category totals.
type aggregateStep struct{}

func (s *aggregateStep) Execute(ctx context.Context, state *State) error {
	state.Summary = report.Aggregate(state.Categorized)
	return nil
}

// renderStep builds the report workbook in memory.
type renderStep struct{}

func (s *renderStep) Execute(ctx context.Context, state *State) error {
	var buf bytes.Buffer
	if err := report.Write(&buf, state.Summary, state.Categorized); err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}
	state.Artifact = buf.Bytes()
	return nil
}

// storeArtifactStep saves the workbook and records its ref on the job.
type storeArtifactStep struct {
	artifacts filestore.Store
}

func (s *storeArtifactStep) Execute(ctx context.Context, state *State) error {
	ref, err := s.artifacts.Save(ctx, state.Job.JobID+".xlsx", bytes.NewReader(state.Artifact))
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	state.Job.ArtifactRef = ref
	return nil
}

// cleanupUploadStep deletes the upload once the artifact exists. Failures
// here are logged, not fatal; the expiry sweep will catch stragglers.
type cleanupUploadStep struct {
	uploads filestore.Store
	log     zerolog.Logger
}

func (s *cleanupUploadStep) Execute(ctx context.Context, state *State) error {
	if err := s.uploads.Delete(ctx, state.Job.UploadRef); err != nil {
		s.log.Warn().Err(err).Str("upload_ref", state.Job.UploadRef).Msg("Failed to delete processed upload")
	}
	return nil
}

// Package pipeline turns an uploaded statement into a finished report
// workbook, one job at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/banktocfo/banktocfo/internal/categorize"
	"github.com/banktocfo/banktocfo/internal/domain"
	"github.com/banktocfo/banktocfo/internal/filestore"
	"github.com/banktocfo/banktocfo/internal/jobs"
	"github.com/banktocfo/banktocfo/internal/report"
	"github.com/banktocfo/banktocfo/internal/statement"
)

// Step represents a single step in the processing pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps.
type State struct {
	Job         *jobs.ProcessStatementJob
	Upload      []byte
	Parsed      *statement.Result
	Categorized []domain.CategorizedTransaction
	Summary     *report.Summary
	Artifact    []byte
}

// Processor runs uploaded statements through parse, categorize,
// aggregate and render, then stores the workbook as the job's artifact.
type Processor struct {
	uploads     filestore.Store
	artifacts   filestore.Store
	parser      *statement.Parser
	categorizer *categorize.Categorizer
	log         zerolog.Logger
}

// NewProcessor wires the pipeline dependencies together.
func NewProcessor(uploads, artifacts filestore.Store, parser *statement.Parser, categorizer *categorize.Categorizer, log zerolog.Logger) *Processor {
	return &Processor{
		uploads:     uploads,
		artifacts:   artifacts,
		parser:      parser,
		categorizer: categorizer,
		log:         log,
	}
}

func (p *Processor) steps() []Step {
	return []Step{
		&fetchUploadStep{uploads: p.uploads},
		&parseStep{parser: p.parser},
		&categorizeStep{categorizer: p.categorizer},
		&aggregateStep{},
		&renderStep{},
		&storeArtifactStep{artifacts: p.artifacts},
		&cleanupUploadStep{uploads: p.uploads, log: p.log},
	}
}

// Handle is the queue handler. It runs the full pipeline for one job and
// marks failures from malformed input as permanent so the queue does not
// requeue work that can never succeed.
func (p *Processor) Handle(ctx context.Context, job jobs.Job) error {
	stmtJob, ok := job.(*jobs.ProcessStatementJob)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected job type: %T", job))
	}
	return p.Process(ctx, stmtJob)
}

// Process runs the pipeline steps in order, updating the job as results
// become available.
func (p *Processor) Process(ctx context.Context, job *jobs.ProcessStatementJob) error {
	state := &State{Job: job}

	log := p.log.With().Str("job_id", job.JobID).Str("filename", job.Filename).Logger()
	log.Info().Msg("Processing statement")

	for _, step := range p.steps() {
		if err := step.Execute(ctx, state); err != nil {
			log.Error().Err(err).Str("step", fmt.Sprintf("%T", step)).Msg("Pipeline step failed")
			if isInputError(err) {
				return jobs.Permanent(err)
			}
			return err
		}
	}

	log.Info().
		Int("transactions", job.TransactionCount).
		Int("skipped", job.SkippedRows).
		Str("artifact", job.ArtifactRef).
		Msg("Statement processed")
	return nil
}

// isInputError reports whether err comes from the upload itself rather
// than the environment. Retrying these burns model calls for the same
// outcome.
func isInputError(err error) bool {
	var docErr *statement.DocumentError
	var extErr *statement.ExtractionError
	return errors.Is(err, statement.ErrUnsupportedFormat) ||
		errors.As(err, &docErr) ||
		errors.As(err, &extErr)
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/cc-ledger/internal/jobs"
	"github.com/dvloznov/cc-ledger/internal/logger"
	"github.com/rs/zerolog"
)

// Processor adapts the pipeline to the job queue: it is the JobHandler the
// worker runs for each ProcessStatementJob.
type Processor struct {
	pipeline *Pipeline
	log      zerolog.Logger
}

func NewProcessor(p *Pipeline, log zerolog.Logger) *Processor {
	return &Processor{pipeline: p, log: logger.ForComponent(log, "pipeline")}
}

// Handle implements jobs.JobHandler.
func (p *Processor) Handle(ctx context.Context, job jobs.Job) error {
	psj, ok := job.(*jobs.ProcessStatementJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type %s", job.GetType())
	}

	p.log.Info().
		Str("job_id", psj.JobID).
		Int64("statement_id", psj.StatementID).
		Msg("Processing statement")

	state := &State{
		StatementID: psj.StatementID,
		UserID:      psj.UserID,
		GCSURI:      psj.GCSURI,
	}
	if err := p.pipeline.Execute(ctx, state); err != nil {
		p.log.Error().Err(err).
			Str("job_id", psj.JobID).
			Int64("statement_id", psj.StatementID).
			Msg("Statement processing failed")
		return err
	}

	p.log.Info().
		Str("job_id", psj.JobID).
		Int64("statement_id", psj.StatementID).
		Int("rows", len(state.Rows)).
		Msg("Statement processed")
	return nil
}

// Package pipeline turns an uploaded statement file into parsed rows: fetch
// the PDF from cloud storage, extract transactions with the model, normalize
// them and store the result as CSV on the statement record. Each statement
// gets a processing record tracking the attempt.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/cc-ledger/internal/gcs"
	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/statement"
	"github.com/dvloznov/cc-ledger/internal/store"
)

// StatementStore is the slice of persistence the pipeline writes to.
type StatementStore interface {
	SetStatementCSV(ctx context.Context, statementID int64, csvOutput string) error
	CreateProcessing(ctx context.Context, statementID int64) (int64, error)
	UpdateProcessing(ctx context.Context, processingID int64, status store.ProcessingStatus, errorMessage string) error
}

// Step is a single stage of statement processing.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state threaded through the steps.
type State struct {
	StatementID  int64
	UserID       int64
	GCSURI       string
	ProcessingID int64
	PDFBytes     []byte
	Parsed       []ParsedRow
	Rows         []ledger.RawTransaction
	CSVOutput    string
}

// StartProcessingStep creates the processing record and marks it running.
type StartProcessingStep struct {
	Store StatementStore
}

func (s *StartProcessingStep) Execute(ctx context.Context, state *State) error {
	processingID, err := s.Store.CreateProcessing(ctx, state.StatementID)
	if err != nil {
		return err
	}
	state.ProcessingID = processingID
	return s.Store.UpdateProcessing(ctx, processingID, store.StatusInProgress, "")
}

// FetchStatementStep downloads the statement bytes from cloud storage.
type FetchStatementStep struct {
	Storage gcs.Storage
}

func (s *FetchStatementStep) Execute(ctx context.Context, state *State) error {
	pdfBytes, err := s.Storage.Fetch(ctx, state.GCSURI)
	if err != nil {
		return err
	}
	state.PDFBytes = pdfBytes
	return nil
}

// ParseStatementStep extracts transactions from the PDF with the model.
type ParseStatementStep struct {
	Parser Parser
}

func (s *ParseStatementStep) Execute(ctx context.Context, state *State) error {
	parsed, err := s.Parser.Parse(ctx, state.PDFBytes)
	if err != nil {
		return err
	}
	state.Parsed = parsed
	return nil
}

// TransformRowsStep normalizes model output into statement rows.
type TransformRowsStep struct{}

func (s *TransformRowsStep) Execute(ctx context.Context, state *State) error {
	rows, err := transformRows(state.Parsed)
	if err != nil {
		return err
	}
	state.Rows = rows
	return nil
}

// EncodeCSVStep renders the rows into the canonical CSV form.
type EncodeCSVStep struct{}

func (s *EncodeCSVStep) Execute(ctx context.Context, state *State) error {
	csvOutput, err := statement.WriteCSV(state.Rows)
	if err != nil {
		return err
	}
	state.CSVOutput = csvOutput
	return nil
}

// StoreCSVStep attaches the CSV to the statement record, which makes the
// statement ready for entry preparation.
type StoreCSVStep struct {
	Store StatementStore
}

func (s *StoreCSVStep) Execute(ctx context.Context, state *State) error {
	return s.Store.SetStatementCSV(ctx, state.StatementID, state.CSVOutput)
}

// Pipeline executes steps in order, updating the processing record as the
// run progresses. The first failing step marks the run errored and aborts.
type Pipeline struct {
	store StatementStore
	steps []Step
}

func New(st StatementStore, storage gcs.Storage, parser Parser) *Pipeline {
	return &Pipeline{
		store: st,
		steps: []Step{
			&StartProcessingStep{Store: st},
			&FetchStatementStep{Storage: storage},
			&ParseStatementStep{Parser: parser},
			&TransformRowsStep{},
			&EncodeCSVStep{},
			&StoreCSVStep{Store: st},
		},
	}
}

// Execute runs the pipeline for one statement.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			if state.ProcessingID != 0 {
				_ = p.store.UpdateProcessing(ctx, state.ProcessingID, store.StatusErrored, err.Error())
			}
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return p.store.UpdateProcessing(ctx, state.ProcessingID, store.StatusCompleted, "")
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/cc-ledger/internal/store"
	"github.com/dvloznov/cc-ledger/internal/store/inmemory"
)

// fakeStorage serves a canned PDF for any URI.
type fakeStorage struct {
	data []byte
	err  error
}

func (f *fakeStorage) Upload(ctx context.Context, objectName string, data []byte) (string, error) {
	return "gs://test/" + objectName, nil
}

func (f *fakeStorage) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	return f.data, f.err
}

// fakeParser returns canned rows without calling the model.
type fakeParser struct {
	rows []ParsedRow
	err  error
}

func (f *fakeParser) Parse(ctx context.Context, pdfBytes []byte) ([]ParsedRow, error) {
	return f.rows, f.err
}

func TestPipelineStoresCSV(t *testing.T) {
	ctx := context.Background()
	s := inmemory.NewStore()

	stID, err := s.CreateStatement(ctx, &store.Statement{UserID: 1, Filename: "march.pdf", FileHash: "h"})
	if err != nil {
		t.Fatalf("CreateStatement failed: %v", err)
	}

	parser := &fakeParser{rows: []ParsedRow{
		{Date: "2024-03-15", Description: "HAWKER CENTRE", Amount: "24.31", Category: "Food"},
		{Date: "2024-03-16", Description: "CC PAYMENT", Amount: "-100", Category: "Payment"},
	}}

	p := New(s, &fakeStorage{data: []byte("%PDF-")}, parser)
	state := &State{StatementID: stID, UserID: 1, GCSURI: "gs://test/march.pdf"}
	if err := p.Execute(ctx, state); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	got, err := s.GetStatement(ctx, stID)
	if err != nil {
		t.Fatalf("GetStatement failed: %v", err)
	}
	if got.CSVOutput == "" {
		t.Fatal("statement has no CSV output after processing")
	}
	if !strings.Contains(got.CSVOutput, "HAWKER CENTRE") || !strings.Contains(got.CSVOutput, "-100.00") {
		t.Errorf("unexpected CSV output:\n%s", got.CSVOutput)
	}

	proc, err := s.GetProcessingForStatement(ctx, stID)
	if err != nil {
		t.Fatalf("GetProcessingForStatement failed: %v", err)
	}
	if proc.Status != store.StatusCompleted {
		t.Errorf("processing status = %s, want completed", proc.Status)
	}
}

func TestPipelineMarksErrored(t *testing.T) {
	ctx := context.Background()
	s := inmemory.NewStore()

	stID, _ := s.CreateStatement(ctx, &store.Statement{UserID: 1, Filename: "march.pdf", FileHash: "h"})

	p := New(s, &fakeStorage{err: errors.New("object not found")}, &fakeParser{})
	state := &State{StatementID: stID, UserID: 1, GCSURI: "gs://test/march.pdf"}
	if err := p.Execute(ctx, state); err == nil {
		t.Fatal("Execute succeeded, want fetch failure")
	}

	proc, err := s.GetProcessingForStatement(ctx, stID)
	if err != nil {
		t.Fatalf("GetProcessingForStatement failed: %v", err)
	}
	if proc.Status != store.StatusErrored {
		t.Errorf("processing status = %s, want errored", proc.Status)
	}
	if proc.ErrorMessage == "" {
		t.Error("processing record has no error message")
	}
}

func TestPipelineRejectsBadModelOutput(t *testing.T) {
	ctx := context.Background()
	s := inmemory.NewStore()

	stID, _ := s.CreateStatement(ctx, &store.Statement{UserID: 1, Filename: "march.pdf", FileHash: "h"})

	parser := &fakeParser{rows: []ParsedRow{
		{Date: "15/03/2024", Description: "BAD DATE", Amount: "1.00", Category: "Food"},
	}}

	p := New(s, &fakeStorage{data: []byte("%PDF-")}, parser)
	if err := p.Execute(ctx, &State{StatementID: stID, UserID: 1, GCSURI: "gs://t/x"}); err == nil {
		t.Fatal("Execute succeeded, want transform failure")
	}

	got, _ := s.GetStatement(ctx, stID)
	if got.CSVOutput != "" {
		t.Error("failed run still stored CSV output")
	}
}

func TestCleanModelJSON(t *testing.T) {
	const want = `[{"date":"2024-03-15"}]`
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", want},
		{"fenced", "```json\n" + want + "\n```"},
		{"bare fence", "```\n" + want + "\n```"},
		{"chatter", "Here are the transactions:\n" + want + "\nLet me know if you need more."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != want {
				t.Errorf("cleanModelJSON = %q, want %q", got, want)
			}
		})
	}
}

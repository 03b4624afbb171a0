package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/money"
	"github.com/dvloznov/cc-ledger/internal/store"
)

func testTransaction(userID int64) *store.Transaction {
	return &store.Transaction{
		UserID:      userID,
		Description: "HAWKER CENTRE",
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Entries: []store.Entry{
			{AccountID: 21, Type: ledger.Debit, Amount: money.MustParse("24.31"), Description: "HAWKER CENTRE"},
			{AccountID: 10, Type: ledger.Credit, Amount: money.MustParse("24.31"), Description: "HAWKER CENTRE"},
		},
	}
}

func TestAccountOwnership(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.CreateAccount(ctx, &store.Account{UserID: 1, Name: "Food", Type: "expense"})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	if _, err := s.GetAccount(ctx, 1, id); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}

	_, err = s.GetAccount(ctx, 2, id)
	var notOwned *ledger.NotOwnedError
	if !errors.As(err, &notOwned) {
		t.Errorf("foreign lookup err = %v, want NotOwnedError", err)
	}

	_, err = s.GetAccount(ctx, 1, 999)
	var notFound *ledger.AccountNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("missing lookup err = %v, want AccountNotFoundError", err)
	}
}

func TestStatementByHash(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id, err := s.CreateStatement(ctx, &store.Statement{UserID: 1, Filename: "march.pdf", FileHash: "abc123"})
	if err != nil {
		t.Fatalf("CreateStatement failed: %v", err)
	}

	found, err := s.GetStatementByHash(ctx, 1, "abc123")
	if err != nil {
		t.Fatalf("GetStatementByHash failed: %v", err)
	}
	if found.ID != id {
		t.Errorf("found statement %d, want %d", found.ID, id)
	}

	// Same hash, different user: no match.
	if _, err := s.GetStatementByHash(ctx, 2, "abc123"); !errors.Is(err, store.ErrStatementNotFound) {
		t.Errorf("cross-user hash lookup err = %v, want ErrStatementNotFound", err)
	}
}

func TestProcessingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	stID, _ := s.CreateStatement(ctx, &store.Statement{UserID: 1, Filename: "march.pdf", FileHash: "h"})
	procID, err := s.CreateProcessing(ctx, stID)
	if err != nil {
		t.Fatalf("CreateProcessing failed: %v", err)
	}

	if err := s.UpdateProcessing(ctx, procID, store.StatusInProgress, ""); err != nil {
		t.Fatalf("UpdateProcessing failed: %v", err)
	}
	if err := s.UpdateProcessing(ctx, procID, store.StatusCompleted, ""); err != nil {
		t.Fatalf("UpdateProcessing failed: %v", err)
	}

	record, err := s.GetProcessingForStatement(ctx, stID)
	if err != nil {
		t.Fatalf("GetProcessingForStatement failed: %v", err)
	}
	if record.Status != store.StatusCompleted {
		t.Errorf("status = %s, want completed", record.Status)
	}
	if record.StartedAt == nil || record.CompletedAt == nil {
		t.Error("expected start and completion timestamps to be set")
	}
}

func TestTxCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	id, err := tx.CreateTransaction(ctx, testTransaction(1))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a non-zero transaction id")
	}

	// Staged rows are invisible before commit.
	if count, _ := s.CountTransactions(ctx, 1); count != 0 {
		t.Errorf("pre-commit count = %d, want 0", count)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if count, _ := s.CountTransactions(ctx, 1); count != 1 {
		t.Errorf("post-commit count = %d, want 1", count)
	}

	txns, err := s.ListTransactions(ctx, 1)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	got := txns[0]
	if got.Reference == "" {
		t.Error("expected a generated transaction reference")
	}
	if len(got.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(got.Entries))
	}
	for _, e := range got.Entries {
		if e.TransactionID != got.ID {
			t.Errorf("entry %d points at transaction %d, want %d", e.ID, e.TransactionID, got.ID)
		}
		if e.Timestamp.IsZero() {
			t.Error("entry timestamp should default to the transaction date")
		}
	}
}

func TestTxRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tx, _ := s.Begin(ctx)
	if _, err := tx.CreateTransaction(ctx, testTransaction(1)); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := tx.CreateTransaction(ctx, testTransaction(1)); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if count, _ := s.CountTransactions(ctx, 1); count != 0 {
		t.Errorf("post-rollback count = %d, want 0", count)
	}

	// A finished tx refuses further writes.
	if _, err := tx.CreateTransaction(ctx, testTransaction(1)); err == nil {
		t.Error("CreateTransaction on a finished tx must fail")
	}
	if err := tx.Commit(ctx); err == nil {
		t.Error("Commit after Rollback must fail")
	}
}

func TestTxRejectsSingleEntryTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tx, _ := s.Begin(ctx)
	defer tx.Rollback(ctx)

	txn := testTransaction(1)
	txn.Entries = txn.Entries[:1]
	if _, err := tx.CreateTransaction(ctx, txn); err == nil {
		t.Error("expected rejection of a transaction with fewer than two entries")
	}
}

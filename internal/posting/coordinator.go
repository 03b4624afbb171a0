// Package posting orchestrates the two-phase statement-to-ledger workflow:
// Prepare computes the postings a statement would produce without touching
// durable state, Create recomputes them and persists the whole batch in one
// atomic unit of work.
package posting

import (
	"context"
	"fmt"

	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/logger"
	"github.com/dvloznov/cc-ledger/internal/statement"
	"github.com/dvloznov/cc-ledger/internal/store"
	"github.com/rs/zerolog"
)

// Store is the slice of persistence the coordinator needs: read-only
// statement and account lookups, plus the transactional contract for
// committing postings.
type Store interface {
	store.AccountGetter
	GetStatement(ctx context.Context, statementID int64) (*store.Statement, error)
	Begin(ctx context.Context) (store.Tx, error)
}

// Committed is notified after a successful commit, outside the atomic unit
// of work. Used for best-effort exports; a failing observer never affects
// the committed ledger.
type Committed func(ctx context.Context, userID int64, transactions []*store.Transaction)

// Coordinator runs preview and commit. It keeps no state between calls:
// every call re-reads the statement, re-validates the accounts and
// regenerates the postings, so a commit can never act on a stale preview.
type Coordinator struct {
	store       Store
	onCommitted Committed
	log         zerolog.Logger
}

func NewCoordinator(st Store, log zerolog.Logger) *Coordinator {
	return &Coordinator{store: st, log: logger.ForComponent(log, "entries")}
}

// OnCommitted registers a post-commit observer.
func (c *Coordinator) OnCommitted(fn Committed) {
	c.onCommitted = fn
}

// Prepare computes the full batch for a statement and returns it without
// persisting anything. Account existence checks go through plain read-only
// lookups; there is no transaction to roll back because nothing is written.
func (c *Coordinator) Prepare(ctx context.Context, req Request) (*PrepareResult, error) {
	batch, st, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Int64("statement_id", req.StatementID).
		Int64("user_id", req.UserID).
		Int("transactions", len(batch.Transactions)).
		Int("skipped", len(batch.Skipped)).
		Msg("Prepared entries for statement")

	return &PrepareResult{
		StatementID:       st.ID,
		StatementFilename: st.Filename,
		Transactions:      previews(batch.Transactions),
		TotalTransactions: len(batch.Transactions),
		SkippedRows:       skippedRows(batch.Skipped),
		TotalDebits:       batch.TotalDebits,
		TotalCredits:      batch.TotalCredits,
		IsBalanced:        batch.IsBalanced,
	}, nil
}

// Create regenerates the batch from scratch and persists it atomically:
// one ledger transaction with its entries per generated transaction, all or
// nothing. Each call posts a fresh batch; committing twice posts twice.
func (c *Coordinator) Create(ctx context.Context, req Request) (*CreateResult, error) {
	batch, st, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("Create: opening unit of work: %w", err)
	}

	created := make([]*store.Transaction, 0, len(batch.Transactions))
	for _, txn := range batch.Transactions {
		row := toStoreTransaction(req.UserID, txn)
		id, err := tx.CreateTransaction(ctx, row)
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				c.log.Error().Err(rbErr).Int64("statement_id", st.ID).Msg("Rollback failed after create error")
			}
			return nil, fmt.Errorf("Create: persisting transaction %q: %w", txn.Description, err)
		}
		row.ID = id
		created = append(created, row)
	}

	if err := tx.Commit(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			c.log.Error().Err(rbErr).Int64("statement_id", st.ID).Msg("Rollback failed after commit error")
		}
		return nil, fmt.Errorf("Create: committing unit of work: %w", err)
	}

	c.log.Info().
		Int64("statement_id", st.ID).
		Int64("user_id", req.UserID).
		Int("transactions_created", len(created)).
		Msg("Created entries from statement")

	if c.onCommitted != nil {
		c.onCommitted(ctx, req.UserID, created)
	}

	return &CreateResult{
		StatementID:         st.ID,
		TransactionsCreated: len(created),
		SkippedRows:         skippedRows(batch.Skipped),
		Message:             fmt.Sprintf("Successfully created %d transactions from statement", len(created)),
	}, nil
}

// generate is the shared read-only half of both paths: load and check the
// statement, validate every configured account, parse the rows, generate
// postings and run the aggregate balance check.
func (c *Coordinator) generate(ctx context.Context, req Request) (*ledger.BatchResult, *store.Statement, error) {
	st, err := c.store.GetStatement(ctx, req.StatementID)
	if err != nil {
		return nil, nil, err
	}
	if st.UserID != req.UserID {
		return nil, nil, &ledger.NotOwnedError{Resource: "statement", ID: st.ID, UserID: req.UserID}
	}
	if st.CSVOutput == "" {
		return nil, nil, ledger.ErrStatementNotReady
	}

	cfg := req.roleConfig()
	if err := c.validateAccounts(ctx, req.UserID, cfg); err != nil {
		return nil, nil, err
	}

	rows, err := statement.ParseCSV(st.CSVOutput)
	if err != nil {
		return nil, nil, err
	}

	resolver := ledger.NewResolver(store.AccountNames{Accounts: c.store})
	generator := ledger.NewGenerator(resolver)

	transactions, skipped, err := generator.GenerateBatch(ctx, req.UserID, rows, cfg)
	if err != nil {
		return nil, nil, err
	}

	batch, err := ledger.Validate(transactions)
	if err != nil {
		// Per-transaction balance is guaranteed by construction, so an
		// aggregate mismatch is a defect, not bad input. Log loudly.
		c.log.Error().Err(err).
			Int64("statement_id", st.ID).
			Msg("Generated batch failed the aggregate balance check")
		return nil, nil, err
	}
	batch.Skipped = skipped

	return &batch, st, nil
}

// validateAccounts checks every account id the config references before any
// posting is built: the credit-card account, the optional default expense
// and bank accounts, and each category mapping target.
func (c *Coordinator) validateAccounts(ctx context.Context, userID int64, cfg ledger.RoleConfig) error {
	if cfg.CreditCardAccountID == 0 {
		return &ledger.NotConfiguredError{Role: ledger.RoleCreditCard}
	}

	ids := []int64{cfg.CreditCardAccountID}
	if cfg.DefaultExpenseAccountID != 0 {
		ids = append(ids, cfg.DefaultExpenseAccountID)
	}
	if cfg.BankAccountID != nil {
		ids = append(ids, *cfg.BankAccountID)
	}
	for _, m := range cfg.CategoryMappings {
		ids = append(ids, m.AccountID)
	}

	for _, id := range ids {
		if _, err := c.store.GetAccount(ctx, userID, id); err != nil {
			return err
		}
	}
	return nil
}

func toStoreTransaction(userID int64, txn ledger.Transaction) *store.Transaction {
	entries := make([]store.Entry, 0, len(txn.Postings))
	for _, p := range txn.Postings {
		entries = append(entries, store.Entry{
			AccountID:   p.AccountID,
			Type:        p.Type,
			Amount:      p.Amount,
			Description: p.Description,
		})
	}
	return &store.Transaction{
		UserID:      userID,
		Description: txn.Description,
		Date:        txn.Date,
		Entries:     entries,
	}
}

func previews(transactions []ledger.Transaction) []TransactionPreview {
	result := make([]TransactionPreview, 0, len(transactions))
	for _, txn := range transactions {
		entries := make([]EntryPreview, 0, len(txn.Postings))
		for _, p := range txn.Postings {
			entries = append(entries, EntryPreview{
				AccountID:   p.AccountID,
				AccountName: p.AccountName,
				EntryType:   p.Type,
				Amount:      p.Amount,
				Description: p.Description,
			})
		}
		result = append(result, TransactionPreview{
			Description:     txn.Description,
			TransactionDate: txn.Date.Format("2006-01-02"),
			Entries:         entries,
		})
	}
	return result
}

func skippedRows(rowErrs []ledger.RowError) []SkippedRow {
	if len(rowErrs) == 0 {
		return nil
	}
	result := make([]SkippedRow, 0, len(rowErrs))
	for _, re := range rowErrs {
		result = append(result, SkippedRow{
			Index:       re.Index,
			Description: re.Description,
			Reason:      re.Err.Error(),
		})
	}
	return result
}

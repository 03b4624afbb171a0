// Package inmemory is the in-memory implementation of the ledger store.
// It is safe for concurrent use and provides the transactional contract the
// posting coordinator relies on: staged writes that become visible atomically
// on Commit and vanish on Rollback. Data is lost on restart; a SQL-backed
// implementation would satisfy the same interfaces.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/store"
	"github.com/teris-io/shortid"
)

// Store holds all ledger state in maps guarded by one mutex. Commits apply
// their staged rows under the write lock, so two concurrent commits are
// serialized and readers never observe a half-applied batch.
type Store struct {
	mu sync.RWMutex

	accounts     map[int64]*store.Account
	statements   map[int64]*store.Statement
	processing   map[int64]*store.StatementProcessing
	transactions map[int64]*store.Transaction

	nextAccountID     int64
	nextStatementID   int64
	nextProcessingID  int64
	nextTransactionID int64
	nextEntryID       int64

	refs *shortid.Shortid
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[int64]*store.Account),
		statements:   make(map[int64]*store.Statement),
		processing:   make(map[int64]*store.StatementProcessing),
		transactions: make(map[int64]*store.Transaction),
		refs:         shortid.MustNew(1, shortid.DefaultABC, uint64(time.Now().UnixNano())),
	}
}

// CreateAccount implements store.AccountRepository.
func (s *Store) CreateAccount(ctx context.Context, account *store.Account) (int64, error) {
	if account.Name == "" {
		return 0, fmt.Errorf("CreateAccount: name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAccountID++
	copied := *account
	copied.ID = s.nextAccountID
	s.accounts[copied.ID] = &copied

	return copied.ID, nil
}

// GetAccount implements store.AccountRepository.
func (s *Store) GetAccount(ctx context.Context, userID, accountID int64) (*store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[accountID]
	if !exists {
		return nil, &ledger.AccountNotFoundError{AccountID: accountID}
	}
	if account.UserID != userID {
		return nil, &ledger.NotOwnedError{Resource: "account", ID: accountID, UserID: userID}
	}

	copied := *account
	return &copied, nil
}

// ListAccounts implements store.AccountRepository.
func (s *Store) ListAccounts(ctx context.Context, userID int64) ([]*store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Account
	for _, account := range s.accounts {
		if account.UserID != userID {
			continue
		}
		copied := *account
		result = append(result, &copied)
	}
	return result, nil
}

// CreateStatement implements store.StatementRepository.
func (s *Store) CreateStatement(ctx context.Context, statement *store.Statement) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextStatementID++
	copied := *statement
	copied.ID = s.nextStatementID
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	s.statements[copied.ID] = &copied

	return copied.ID, nil
}

// GetStatement implements store.StatementRepository.
func (s *Store) GetStatement(ctx context.Context, statementID int64) (*store.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statement, exists := s.statements[statementID]
	if !exists {
		return nil, store.ErrStatementNotFound
	}
	copied := *statement
	return &copied, nil
}

// GetStatementByHash implements store.StatementRepository. Used to detect
// duplicate uploads of the same file.
func (s *Store) GetStatementByHash(ctx context.Context, userID int64, fileHash string) (*store.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, statement := range s.statements {
		if statement.UserID == userID && statement.FileHash == fileHash {
			copied := *statement
			return &copied, nil
		}
	}
	return nil, store.ErrStatementNotFound
}

// ListStatements implements store.StatementRepository.
func (s *Store) ListStatements(ctx context.Context, userID int64) ([]*store.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Statement
	for _, statement := range s.statements {
		if statement.UserID != userID {
			continue
		}
		copied := *statement
		result = append(result, &copied)
	}
	return result, nil
}

// SetStatementCSV implements store.StatementRepository.
func (s *Store) SetStatementCSV(ctx context.Context, statementID int64, csvOutput string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	statement, exists := s.statements[statementID]
	if !exists {
		return store.ErrStatementNotFound
	}
	statement.CSVOutput = csvOutput
	return nil
}

// CreateProcessing implements store.StatementRepository.
func (s *Store) CreateProcessing(ctx context.Context, statementID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.statements[statementID]; !exists {
		return 0, store.ErrStatementNotFound
	}

	s.nextProcessingID++
	record := &store.StatementProcessing{
		ID:          s.nextProcessingID,
		StatementID: statementID,
		Status:      store.StatusNotStarted,
		CreatedAt:   time.Now().UTC(),
	}
	s.processing[record.ID] = record

	return record.ID, nil
}

// UpdateProcessing implements store.StatementRepository.
func (s *Store) UpdateProcessing(ctx context.Context, processingID int64, status store.ProcessingStatus, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.processing[processingID]
	if !exists {
		return fmt.Errorf("UpdateProcessing: processing record %d not found", processingID)
	}

	now := time.Now().UTC()
	record.Status = status
	record.ErrorMessage = errorMessage
	switch status {
	case store.StatusInProgress:
		record.StartedAt = &now
	case store.StatusCompleted, store.StatusErrored:
		record.CompletedAt = &now
	}

	return nil
}

// GetProcessingForStatement implements store.StatementRepository.
func (s *Store) GetProcessingForStatement(ctx context.Context, statementID int64) (*store.StatementProcessing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *store.StatementProcessing
	for _, record := range s.processing {
		if record.StatementID != statementID {
			continue
		}
		if latest == nil || record.ID > latest.ID {
			latest = record
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("GetProcessingForStatement: no processing record for statement %d", statementID)
	}
	copied := *latest
	return &copied, nil
}

// ListTransactions implements store.LedgerRepository.
func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]*store.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Transaction
	for _, txn := range s.transactions {
		if txn.UserID != userID {
			continue
		}
		result = append(result, copyTransaction(txn))
	}
	return result, nil
}

// CountTransactions implements store.LedgerRepository.
func (s *Store) CountTransactions(ctx context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, txn := range s.transactions {
		if txn.UserID == userID {
			count++
		}
	}
	return count, nil
}

// Begin implements store.LedgerRepository. The returned Tx stages writes in
// memory; nothing touches the store until Commit.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	return &memTx{store: s}, nil
}

func copyTransaction(txn *store.Transaction) *store.Transaction {
	copied := *txn
	copied.Entries = make([]store.Entry, len(txn.Entries))
	copy(copied.Entries, txn.Entries)
	return &copied
}

// memTx buffers created transactions until Commit. Rollback, or abandoning
// the Tx, discards them without the store ever seeing them.
type memTx struct {
	store  *Store
	staged []*store.Transaction
	done   bool
}

func (t *memTx) CreateTransaction(ctx context.Context, txn *store.Transaction) (int64, error) {
	if t.done {
		return 0, fmt.Errorf("CreateTransaction: transaction already finished")
	}
	if len(txn.Entries) < 2 {
		return 0, fmt.Errorf("CreateTransaction: a ledger transaction needs at least two entries, got %d", len(txn.Entries))
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	t.store.nextTransactionID++
	copied := copyTransaction(txn)
	copied.ID = t.store.nextTransactionID
	if copied.Reference == "" {
		ref, err := t.store.refs.Generate()
		if err != nil {
			return 0, fmt.Errorf("CreateTransaction: generating reference: %w", err)
		}
		copied.Reference = ref
	}
	for i := range copied.Entries {
		t.store.nextEntryID++
		copied.Entries[i].ID = t.store.nextEntryID
		copied.Entries[i].TransactionID = copied.ID
		if copied.Entries[i].Timestamp.IsZero() {
			copied.Entries[i].Timestamp = copied.Date
		}
	}

	t.staged = append(t.staged, copied)
	return copied.ID, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("Commit: transaction already finished")
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, txn := range t.staged {
		t.store.transactions[txn.ID] = txn
	}
	t.staged = nil
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.staged = nil
	return nil
}

// Interface conformance.
var (
	_ store.AccountRepository   = (*Store)(nil)
	_ store.StatementRepository = (*Store)(nil)
	_ store.LedgerRepository    = (*Store)(nil)
)

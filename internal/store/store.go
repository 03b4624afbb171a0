package store

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/money"
)

// ErrStatementNotFound is returned when a statement id does not exist.
var ErrStatementNotFound = errors.New("statement not found")

// Account is a user's ledger account.
type Account struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Type   string `json:"account_type"` // asset, liability, equity, revenue, expense
}

// Transaction is a persisted ledger transaction: a header row plus its
// entries. Entries are only ever created together with their transaction.
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Description string    `json:"description"`
	Date        time.Time `json:"transaction_date"`
	Reference   string    `json:"reference,omitempty"`
	Entries     []Entry   `json:"entries"`
}

// Entry is one persisted debit or credit line.
type Entry struct {
	ID            int64            `json:"id"`
	TransactionID int64            `json:"transaction_id"`
	AccountID     int64            `json:"account_id"`
	Type          ledger.EntryType `json:"entry_type"`
	Amount        money.Money      `json:"amount"`
	Description   string           `json:"description"`
	Timestamp     time.Time        `json:"timestamp"`
}

// ProcessingStatus tracks a statement through its processing lifecycle.
type ProcessingStatus string

const (
	StatusNotStarted ProcessingStatus = "not_started"
	StatusInProgress ProcessingStatus = "in_progress"
	StatusCompleted  ProcessingStatus = "completed"
	StatusErrored    ProcessingStatus = "errored"
)

// Statement is an uploaded credit-card statement. CSVOutput holds the parsed
// transaction rows once processing completes; until then the statement is
// not ready for entry generation.
type Statement struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Filename  string    `json:"filename"`
	BlobURI   string    `json:"blob_uri,omitempty"`
	FileHash  string    `json:"file_hash"`
	CSVOutput string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// StatementProcessing records one processing run for a statement.
type StatementProcessing struct {
	ID           int64            `json:"id"`
	StatementID  int64            `json:"statement_id"`
	Status       ProcessingStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// AccountGetter looks a single account up for a user. GetAccount returns
// *ledger.AccountNotFoundError for unknown ids and *ledger.NotOwnedError
// when the account belongs to a different user.
type AccountGetter interface {
	GetAccount(ctx context.Context, userID, accountID int64) (*Account, error)
}

// AccountRepository provides full account access.
type AccountRepository interface {
	AccountGetter
	ListAccounts(ctx context.Context, userID int64) ([]*Account, error)
	CreateAccount(ctx context.Context, account *Account) (int64, error)
}

// StatementRepository provides statement and processing-record persistence.
type StatementRepository interface {
	CreateStatement(ctx context.Context, statement *Statement) (int64, error)
	GetStatement(ctx context.Context, statementID int64) (*Statement, error)
	GetStatementByHash(ctx context.Context, userID int64, fileHash string) (*Statement, error)
	ListStatements(ctx context.Context, userID int64) ([]*Statement, error)
	SetStatementCSV(ctx context.Context, statementID int64, csvOutput string) error
	CreateProcessing(ctx context.Context, statementID int64) (int64, error)
	UpdateProcessing(ctx context.Context, processingID int64, status ProcessingStatus, errorMessage string) error
	GetProcessingForStatement(ctx context.Context, statementID int64) (*StatementProcessing, error)
}

// LedgerRepository provides read access to posted transactions and opens
// atomic units of work for posting new ones.
type LedgerRepository interface {
	ListTransactions(ctx context.Context, userID int64) ([]*Transaction, error)
	CountTransactions(ctx context.Context, userID int64) (int, error)
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit of work against the ledger. Writes staged through
// CreateTransaction become durable only on Commit; Rollback (or dropping the
// Tx without committing) leaves no trace. Exactly one of Commit or Rollback
// must be called.
type Tx interface {
	// CreateTransaction stages a transaction together with all of its
	// entries and returns the id it will have once committed.
	CreateTransaction(ctx context.Context, txn *Transaction) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// AccountNames adapts an AccountGetter to the ledger.AccountLookup
// boundary used by the entry generator.
type AccountNames struct {
	Accounts AccountGetter
}

func (a AccountNames) AccountName(ctx context.Context, userID, accountID int64) (string, error) {
	account, err := a.Accounts.GetAccount(ctx, userID, accountID)
	if err != nil {
		return "", err
	}
	return account.Name, nil
}

var _ ledger.AccountLookup = AccountNames{}

package ledger

import (
	"errors"
	"fmt"

	"github.com/dvloznov/cc-ledger/internal/money"
)

// ErrStatementNotReady is returned when entry generation is requested for a
// statement whose processing has not produced transaction rows yet. Callers
// can retry once processing completes.
var ErrStatementNotReady = errors.New("statement has not been processed yet")

// AccountNotFoundError is returned when a referenced account id does not
// exist in the calling user's account set. It carries the offending id so
// the caller sees exactly which part of the configuration is wrong.
type AccountNotFoundError struct {
	AccountID int64
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %d not found", e.AccountID)
}

// NotOwnedError is returned when a statement or account exists but belongs
// to a different user.
type NotOwnedError struct {
	Resource string
	ID       int64
	UserID   int64
}

func (e *NotOwnedError) Error() string {
	return fmt.Sprintf("%s %d does not belong to user %d", e.Resource, e.ID, e.UserID)
}

// DegenerateTransactionError marks a zero-amount statement row. The row
// produces no postings and is reported as skipped; the rest of the batch
// continues.
type DegenerateTransactionError struct {
	Description string
}

func (e *DegenerateTransactionError) Error() string {
	return fmt.Sprintf("zero-amount row %q produces no postings", e.Description)
}

// NotConfiguredError is returned when a row needs an account role that the
// request did not configure, e.g. a payment row with no bank account and no
// default expense account to fall back to. Fatal to that row only.
type NotConfiguredError struct {
	Role Role
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("no %s account configured", e.Role)
}

// InternalInconsistencyError is raised when the batch-level debit/credit
// totals disagree even though every generated transaction balanced on its
// own. That can only happen through a defect in generation or in Money
// arithmetic, so it is fatal and worth alerting on, never retried.
type InternalInconsistencyError struct {
	TotalDebits  money.Money
	TotalCredits money.Money
}

func (e *InternalInconsistencyError) Error() string {
	return fmt.Sprintf("ledger batch is unbalanced: debits %s != credits %s",
		e.TotalDebits, e.TotalCredits)
}

package ledger

import (
	"context"
)

// AccountLookup is the boundary to the account store. Implementations must
// return an error satisfying errors.As(*AccountNotFoundError) when the id
// does not exist for the user.
type AccountLookup interface {
	AccountName(ctx context.Context, userID, accountID int64) (string, error)
}

// Resolver maps category labels and account roles from a RoleConfig to
// concrete account ids, and resolves display names through the account
// store. It holds no per-request state.
type Resolver struct {
	accounts AccountLookup
}

func NewResolver(accounts AccountLookup) *Resolver {
	return &Resolver{accounts: accounts}
}

// ResolveCategory looks the category up in the config's mappings
// (case-sensitive exact match, first match wins) and falls back to the
// default expense account when the category is empty or unmapped. A zero
// return value means no default was configured either; callers treat that
// as NotConfigured.
func (r *Resolver) ResolveCategory(category string, cfg RoleConfig) int64 {
	if category != "" {
		for _, m := range cfg.CategoryMappings {
			if m.Category == category {
				return m.AccountID
			}
		}
	}
	return cfg.DefaultExpenseAccountID
}

// ResolveRole returns the configured account id for the given role, or a
// NotConfiguredError when the role has no account in this config.
func (r *Resolver) ResolveRole(role Role, cfg RoleConfig) (int64, error) {
	switch role {
	case RoleCreditCard:
		if cfg.CreditCardAccountID == 0 {
			return 0, &NotConfiguredError{Role: RoleCreditCard}
		}
		return cfg.CreditCardAccountID, nil
	case RoleBank:
		if cfg.BankAccountID == nil {
			return 0, &NotConfiguredError{Role: RoleBank}
		}
		return *cfg.BankAccountID, nil
	case RoleDefaultExpense:
		if cfg.DefaultExpenseAccountID == 0 {
			return 0, &NotConfiguredError{Role: RoleDefaultExpense}
		}
		return cfg.DefaultExpenseAccountID, nil
	default:
		return 0, &NotConfiguredError{Role: role}
	}
}

// AccountName resolves the display name for an account id, surfacing
// AccountNotFoundError when the id does not exist for the user. This runs
// for every account id before any posting is finalized; it is the primary
// way invalid configuration reaches the caller.
func (r *Resolver) AccountName(ctx context.Context, userID, accountID int64) (string, error) {
	return r.accounts.AccountName(ctx, userID, accountID)
}

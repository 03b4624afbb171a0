package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dvloznov/cc-ledger/internal/api/middleware"
	"github.com/dvloznov/cc-ledger/internal/store"
	"github.com/rs/zerolog"
)

var accountTypes = map[string]bool{
	"asset":     true,
	"liability": true,
	"equity":    true,
	"revenue":   true,
	"expense":   true,
}

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	repo store.AccountRepository
	log  zerolog.Logger
}

func NewAccountsHandler(repo store.AccountRepository, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{repo: repo, log: log}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	accounts, err := h.repo.ListAccounts(ctx, userID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if accounts == nil {
		accounts = []*store.Account{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Name string `json:"name"`
		Type string `json:"account_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Account name is required")
		return
	}
	if !accountTypes[req.Type] {
		middleware.WriteError(w, http.StatusBadRequest, "account_type must be one of asset, liability, equity, revenue, expense")
		return
	}

	account := &store.Account{
		UserID: middleware.UserID(ctx),
		Name:   req.Name,
		Type:   req.Type,
	}
	id, err := h.repo.CreateAccount(ctx, account)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	account.ID = id

	middleware.WriteJSON(w, http.StatusCreated, account)
}

// GetAccount handles GET /api/accounts/{id}
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request, accountID int64) {
	ctx := r.Context()

	account, err := h.repo.GetAccount(ctx, middleware.UserID(ctx), accountID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, account)
}

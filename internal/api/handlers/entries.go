package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dvloznov/cc-ledger/internal/api/middleware"
	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/posting"
	"github.com/rs/zerolog"
)

// EntriesHandler drives the preview/commit workflow over a statement.
type EntriesHandler struct {
	coordinator *posting.Coordinator
	log         zerolog.Logger
}

func NewEntriesHandler(coordinator *posting.Coordinator, log zerolog.Logger) *EntriesHandler {
	return &EntriesHandler{coordinator: coordinator, log: log}
}

// entriesRequest is the JSON body of both prepare-entries and
// create-entries.
type entriesRequest struct {
	CreditCardAccountID     int64                    `json:"credit_card_account_id"`
	DefaultExpenseAccountID int64                    `json:"default_expense_account_id"`
	BankAccountID           *int64                   `json:"bank_account_id,omitempty"`
	CategoryMappings        []ledger.CategoryMapping `json:"category_mappings,omitempty"`
}

func (h *EntriesHandler) decodeRequest(ctx context.Context, r *http.Request, statementID int64) (posting.Request, error) {
	var body entriesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return posting.Request{}, err
	}
	return posting.Request{
		StatementID:             statementID,
		UserID:                  middleware.UserID(ctx),
		CreditCardAccountID:     body.CreditCardAccountID,
		DefaultExpenseAccountID: body.DefaultExpenseAccountID,
		BankAccountID:           body.BankAccountID,
		CategoryMappings:        body.CategoryMappings,
	}, nil
}

// PrepareEntries handles POST /api/statements/{id}/prepare-entries. It
// returns the full preview and persists nothing.
func (h *EntriesHandler) PrepareEntries(w http.ResponseWriter, r *http.Request, statementID int64) {
	ctx := r.Context()

	req, err := h.decodeRequest(ctx, r, statementID)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.coordinator.Prepare(ctx, req)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// CreateEntries handles POST /api/statements/{id}/create-entries. It
// regenerates the batch and posts it atomically. Calling it twice posts the
// statement twice.
func (h *EntriesHandler) CreateEntries(w http.ResponseWriter, r *http.Request, statementID int64) {
	ctx := r.Context()

	req, err := h.decodeRequest(ctx, r, statementID)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.coordinator.Create(ctx, req)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, result)
}

// Package handlers implements the HTTP endpoints: account and statement
// management, entry preparation and creation, posted-transaction reads and
// job inspection.
package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/cc-ledger/internal/api/middleware"
	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/store"
	"github.com/rs/zerolog"
)

// writeDomainError maps domain errors onto HTTP statuses. Invalid role
// configuration and unready statements are the caller's fault; ownership
// violations are forbidden; unknown resources are not found; a failed
// aggregate balance check is always a server defect.
func writeDomainError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		notOwned      *ledger.NotOwnedError
		notFound      *ledger.AccountNotFoundError
		notConfigured *ledger.NotConfiguredError
		inconsistency *ledger.InternalInconsistencyError
	)

	switch {
	case errors.Is(err, ledger.ErrStatementNotReady):
		middleware.WriteError(w, http.StatusBadRequest, "Statement has not been processed yet")
	case errors.As(err, &notConfigured):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notOwned):
		middleware.WriteError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &notFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrStatementNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Statement not found")
	case errors.As(err, &inconsistency):
		log.Error().Err(err).Msg("Internal inconsistency")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

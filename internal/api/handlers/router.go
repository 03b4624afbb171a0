package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/cc-ledger/internal/api/middleware"
)

// Router bundles the handlers behind one mux.
type Router struct {
	Accounts     *AccountsHandler
	Statements   *StatementsHandler
	Entries      *EntriesHandler
	Transactions *TransactionsHandler
	Jobs         *JobsHandler
	Analytics    *AnalyticsHandler
}

// Mux builds the ServeMux with all routes. Middleware is applied by the
// caller.
func (rt *Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rt.Accounts.ListAccounts(w, r)
		case http.MethodPost:
			rt.Accounts.CreateAccount(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		accountID, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/accounts/"), 10, 64)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid account ID")
			return
		}
		rt.Accounts.GetAccount(w, r, accountID)
	})

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.Statements.ListStatements(w, r)
	})

	mux.HandleFunc("/api/statements/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.Statements.UploadStatement(w, r)
	})

	mux.HandleFunc("/api/statements/", rt.statementSubroutes)

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.Transactions.ListTransactions(w, r)
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.Jobs.ListJobs(w, r)
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		rt.Jobs.GetJob(w, r, jobID)
	})

	if rt.Analytics != nil {
		mux.HandleFunc("/api/analytics/spend", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			rt.Analytics.SpendByAccount(w, r)
		})
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}

// statementSubroutes dispatches /api/statements/{id} and the entry
// workflow endpoints under it.
func (rt *Router) statementSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/statements/")
	if rest == "" || rest == "upload" {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	idPart, action, _ := strings.Cut(rest, "/")
	statementID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid statement ID")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.Statements.GetStatement(w, r, statementID)
	case "prepare-entries":
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.Entries.PrepareEntries(w, r, statementID)
	case "create-entries":
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.Entries.CreateEntries(w, r, statementID)
	default:
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	}
}

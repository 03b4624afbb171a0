package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/cc-ledger/internal/analytics"
	"github.com/dvloznov/cc-ledger/internal/api/middleware"
	"github.com/rs/zerolog"
)

// AnalyticsHandler serves spend aggregates from the exported entries.
type AnalyticsHandler struct {
	exporter *analytics.Exporter
	log      zerolog.Logger
}

func NewAnalyticsHandler(exporter *analytics.Exporter, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{exporter: exporter, log: log}
}

// SpendByAccount handles GET /api/analytics/spend?start_date=...&end_date=...
// Dates default to the trailing year.
func (h *AnalyticsHandler) SpendByAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	start := time.Now().AddDate(-1, 0, 0)
	end := time.Now()

	var err error
	if raw := query.Get("start_date"); raw != "" {
		if start, err = time.Parse("2006-01-02", raw); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if raw := query.Get("end_date"); raw != "" {
		if end, err = time.Parse("2006-01-02", raw); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	}

	spend, err := h.exporter.SpendByAccount(ctx, middleware.UserID(ctx), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Spend query failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query spend")
		return
	}

	results := make([]map[string]interface{}, 0, len(spend))
	for _, row := range spend {
		value, _ := row.Total.Float64()
		results = append(results, map[string]interface{}{
			"account_id": row.AccountID,
			"total":      value,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"spend": results,
		"count": len(results),
	})
}

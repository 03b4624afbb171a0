package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dvloznov/cc-ledger/internal/api/middleware"
	"github.com/dvloznov/cc-ledger/internal/gcs"
	"github.com/dvloznov/cc-ledger/internal/jobs"
	"github.com/dvloznov/cc-ledger/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxStatementSize bounds uploaded statement files.
const maxStatementSize = 20 << 20 // 20 MiB

// StatementsHandler handles statement upload and inspection.
type StatementsHandler struct {
	repo      store.StatementRepository
	storage   gcs.Storage
	publisher jobs.Publisher
	log       zerolog.Logger
}

func NewStatementsHandler(repo store.StatementRepository, storage gcs.Storage, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		log:       log,
	}
}

// UploadStatement handles POST /api/statements/upload. It deduplicates by
// content hash per user, stores the file, records the statement and
// enqueues processing.
func (h *StatementsHandler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxStatementSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "A statement file is required under the \"file\" form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	existing, err := h.repo.GetStatementByHash(ctx, userID, fileHash)
	if err == nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"statement": existing,
			"duplicate": true,
		})
		return
	}
	if !errors.Is(err, store.ErrStatementNotFound) {
		writeDomainError(w, h.log, err)
		return
	}

	filename := filepath.Base(header.Filename)
	objectName := fmt.Sprintf("statements/%d/%s-%s", userID, uuid.New().String(), filename)

	blobURI, err := h.storage.Upload(ctx, objectName, data)
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Statement upload failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store statement file")
		return
	}

	statement := &store.Statement{
		UserID:   userID,
		Filename: filename,
		BlobURI:  blobURI,
		FileHash: fileHash,
	}
	id, err := h.repo.CreateStatement(ctx, statement)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	statement.ID = id

	job := &jobs.ProcessStatementJob{
		StatementID: id,
		UserID:      userID,
		GCSURI:      blobURI,
	}
	if err := h.publisher.PublishProcessStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Int64("statement_id", id).Msg("Failed to enqueue statement processing")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue statement processing")
		return
	}

	h.log.Info().
		Int64("statement_id", id).
		Str("job_id", job.JobID).
		Str("filename", filename).
		Msg("Statement uploaded")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"statement": statement,
		"job_id":    job.JobID,
		"duplicate": false,
	})
}

// ListStatements handles GET /api/statements
func (h *StatementsHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	statements, err := h.repo.ListStatements(ctx, middleware.UserID(ctx))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if statements == nil {
		statements = []*store.Statement{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"statements": statements,
		"count":      len(statements),
	})
}

// GetStatement handles GET /api/statements/{id}. The response includes the
// latest processing record so callers can tell whether the statement is
// ready for entry preparation.
func (h *StatementsHandler) GetStatement(w http.ResponseWriter, r *http.Request, statementID int64) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	statement, err := h.repo.GetStatement(ctx, statementID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if statement.UserID != userID {
		middleware.WriteError(w, http.StatusForbidden, "Statement belongs to a different user")
		return
	}

	response := map[string]interface{}{
		"statement": statement,
		"ready":     statement.CSVOutput != "",
	}
	if processing, err := h.repo.GetProcessingForStatement(ctx, statementID); err == nil {
		response["processing"] = processing
	}

	middleware.WriteJSON(w, http.StatusOK, response)
}

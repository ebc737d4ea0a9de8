package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/iho/txsummary/internal/adapter/http/dto"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/usecase"
)

// Multipart form field names.
const (
	formFile      = "transactionFile"
	formAccountID = "accountID"
	formUserID    = "userID"
)

// multipartOverhead leaves room for the form fields around the file.
const multipartOverhead = 1 << 20

// UploadService defines the behavior needed by UploadHandler.
type UploadService interface {
	Submit(ctx context.Context, input usecase.UploadInput) (*domain.ImportJob, error)
}

// UploadHandler accepts statement uploads.
type UploadHandler struct {
	uploads  UploadService
	maxBytes int64
}

// NewUploadHandler creates a new UploadHandler accepting files up to maxBytes.
func NewUploadHandler(uploads UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploads: uploads, maxBytes: maxBytes}
}

// Upload reads the multipart statement and queues it for import.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, domain.ErrUploadTooLarge, "failed to read upload")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(formFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file", formFile+" is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload", err.Error())
		return
	}

	job, err := h.uploads.Submit(r.Context(), usecase.UploadInput{
		AccountID: r.FormValue(formAccountID),
		UserID:    r.FormValue(formUserID),
		FileName:  header.Filename,
		Content:   content,
	})
	if err != nil {
		respondError(w, r, err, "failed to queue upload")
		return
	}

	writeJSON(w, http.StatusAccepted, dto.UploadFromJob(job))
}

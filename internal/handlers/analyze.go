package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/models"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/services"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

const (
	DefaultMaxFileSize = 10 << 20 // 10MB

	pdfContentType     = "application/pdf"
	analysisSourceHdr  = "X-Analysis-Source"
	multipartOverhead  = 64 << 10
	maxMultipartMemory = 32 << 20
)

type AnalyzeHandler struct {
	service     services.AnalysisService
	logger      *utils.Logger
	maxFileSize int64
}

func NewAnalyzeHandler(service services.AnalysisService, maxFileSize int64, logger *utils.Logger) *AnalyzeHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &AnalyzeHandler{
		service:     service,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.service.DemoMode() {
		result, err := h.service.Demo(r.Context())
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondResult(w, result)
		return
	}

	if err := h.service.Ready(); err != nil {
		h.respondError(w, r, err)
		return
	}

	doc, err := h.readUpload(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info("Invoice upload received",
		"request_id", utils.RequestIDFromContext(r.Context()),
		"filename", doc.Filename,
		"size", len(doc.Data),
	)

	result, err := h.service.AnalyzeDocument(r.Context(), doc)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondResult(w, result)
}

func (h *AnalyzeHandler) readUpload(w http.ResponseWriter, r *http.Request) (*models.UploadedDocument, error) {
	tooLarge := utils.NewBadRequestError(fmt.Sprintf("File size exceeds %s limit", humanSize(h.maxFileSize)))

	// Check Content-Length header first to reject oversized requests early
	if r.ContentLength > h.maxFileSize+multipartOverhead {
		return nil, tooLarge
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, tooLarge
		}
		return nil, utils.NewBadRequestError("Invalid request body")
	}

	headers := r.MultipartForm.File["file"]
	switch {
	case len(headers) == 0:
		return nil, utils.NewBadRequestError("No file provided")
	case len(headers) > 1:
		return nil, utils.NewBadRequestError("Only one file may be uploaded")
	}
	header := headers[0]

	contentType := determineContentType(header.Filename, header.Header.Get("Content-Type"))
	if contentType != pdfContentType {
		h.logger.Info("Rejected upload type",
			"request_id", utils.RequestIDFromContext(r.Context()),
			"filename", header.Filename,
			"reported_content_type", header.Header.Get("Content-Type"),
		)
		return nil, utils.NewBadRequestError("Only PDF files are allowed")
	}

	if header.Size > h.maxFileSize {
		return nil, tooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, utils.NewBadRequestError("Invalid request body")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return nil, utils.NewInternalError("Failed to read file")
	}
	if int64(len(data)) > h.maxFileSize {
		return nil, tooLarge
	}
	if len(data) == 0 {
		return nil, utils.NewBadRequestError("Uploaded file is empty")
	}

	return &models.UploadedDocument{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func humanSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%dKB", n>>10)
}

// determineContentType trusts the declared media type, falling back to the
// file extension only when the client sent nothing useful.
func determineContentType(filename, headerContentType string) string {
	mediaType, _, err := mime.ParseMediaType(headerContentType)
	if err == nil && mediaType != "application/octet-stream" {
		return strings.ToLower(mediaType)
	}

	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return pdfContentType
	}
	return headerContentType
}

func (h *AnalyzeHandler) respondResult(w http.ResponseWriter, result *models.AnalysisResult) {
	result.Normalize()
	w.Header().Set(analysisSourceHdr, string(result.Source))
	h.respondJSON(w, http.StatusOK, result)
}

func (h *AnalyzeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *AnalyzeHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var message string

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		message = appErr.Message
	} else {
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	attrs := []any{
		"request_id", utils.RequestIDFromContext(r.Context()),
		"status", status,
		"error", message,
		"cause", err,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request error", attrs...)
	} else {
		h.logger.Warn("Request error", attrs...)
	}

	h.respondJSON(w, status, map[string]string{"error": message})
}

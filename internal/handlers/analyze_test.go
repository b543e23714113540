package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/models"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

type fakeService struct {
	demo     bool
	readyErr error
	result   *models.AnalysisResult
	err      error
	got      *models.UploadedDocument
}

func (s *fakeService) DemoMode() bool { return s.demo }

func (s *fakeService) Demo(context.Context) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{Source: models.SourceDemo}, nil
}

func (s *fakeService) Ready() error { return s.readyErr }

func (s *fakeService) AnalyzeDocument(_ context.Context, doc *models.UploadedDocument) (*models.AnalysisResult, error) {
	s.got = doc
	return s.result, s.err
}

type part struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		if p.filename == "" {
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, p.field))
		} else {
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		}
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func pdfPart(data []byte) part {
	return part{field: "file", filename: "invoice.pdf", contentType: "application/pdf", data: data}
}

func TestAnalyzeRejectsBadUploads(t *testing.T) {
	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		message string
	}{
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, part{field: "note", data: []byte("hi")})
			},
			message: "No file provided",
		},
		{
			name: "wrong media type",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, part{field: "file", filename: "notes.txt", contentType: "text/plain", data: []byte("Invoice")})
			},
			message: "Only PDF files are allowed",
		},
		{
			name: "pdf extension but declared as image",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, part{field: "file", filename: "scan.pdf", contentType: "image/png", data: []byte("x")})
			},
			message: "Only PDF files are allowed",
		},
		{
			name: "two files",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, pdfPart([]byte("%PDF-1")), pdfPart([]byte("%PDF-2")))
			},
			message: "Only one file may be uploaded",
		},
		{
			name: "empty file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, pdfPart(nil))
			},
			message: "Uploaded file is empty",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"file":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			message: "Invalid request body",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, pdfPart(bytes.Repeat([]byte("a"), 2048)))
			},
			message: "File size exceeds 1KB limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			maxSize := int64(DefaultMaxFileSize)
			if tt.name == "too large" {
				maxSize = 1024
			}
			h := NewAnalyzeHandler(svc, maxSize, utils.NewNopLogger())

			rec := httptest.NewRecorder()
			h.Analyze(rec, tt.req(t))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec))
			assert.Nil(t, svc.got)
		})
	}
}

func TestAnalyzeAcceptsOctetStreamWithPDFExtension(t *testing.T) {
	svc := &fakeService{result: &models.AnalysisResult{Source: models.SourceAI}}
	h := NewAnalyzeHandler(svc, DefaultMaxFileSize, utils.NewNopLogger())

	rec := httptest.NewRecorder()
	h.Analyze(rec, multipartRequest(t, part{field: "file", filename: "Invoice.PDF", contentType: "application/octet-stream", data: []byte("%PDF")}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got)
	assert.Equal(t, "application/pdf", svc.got.ContentType)
	assert.Equal(t, []byte("%PDF"), svc.got.Data)
	assert.Equal(t, "ai", rec.Header().Get("X-Analysis-Source"))
}

func TestAnalyzeChecksCredentialBeforeBody(t *testing.T) {
	svc := &fakeService{readyErr: utils.NewAppError(utils.KindConfiguration, "OPENAI_API_KEY is not configured", nil)}
	h := NewAnalyzeHandler(svc, DefaultMaxFileSize, utils.NewNopLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("garbage"))
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "OPENAI_API_KEY is not configured", decodeError(t, rec))
}

func TestAnalyzeDemoModeSkipsEverything(t *testing.T) {
	svc := &fakeService{demo: true, readyErr: utils.NewInternalError("should not be checked")}
	h := NewAnalyzeHandler(svc, DefaultMaxFileSize, utils.NewNopLogger())

	rec := httptest.NewRecorder()
	h.Analyze(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "demo", rec.Header().Get("X-Analysis-Source"))
	assert.JSONEq(t, `{
	  "vendor_name": null,
	  "total_amount": null,
	  "executive_summary": null,
	  "line_items": [],
	  "flagged_charges": [],
	  "potential_savings": [],
	  "source": "demo"
	}`, rec.Body.String())
}

func TestAnalyzeMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"content", utils.NewContentError("not an invoice"), http.StatusBadRequest, "not an invoice"},
		{"quota", utils.NewAppError(utils.KindQuota, "quota exceeded", nil), http.StatusInternalServerError, "quota exceeded"},
		{"untyped", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			h := NewAnalyzeHandler(svc, DefaultMaxFileSize, utils.NewNopLogger())

			rec := httptest.NewRecorder()
			h.Analyze(rec, multipartRequest(t, pdfPart([]byte("%PDF"))))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.message, decodeError(t, rec))
		})
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "10MB", humanSize(DefaultMaxFileSize))
	assert.Equal(t, "1KB", humanSize(1024))
}

func TestDetermineContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", determineContentType("a.pdf", "application/pdf"))
	assert.Equal(t, "application/pdf", determineContentType("a.bin", "Application/PDF; charset=binary"))
	assert.Equal(t, "application/pdf", determineContentType("a.pdf", ""))
	assert.Equal(t, "text/plain", determineContentType("a.pdf", "text/plain"))
	assert.Equal(t, "", determineContentType("a.txt", ""))
}

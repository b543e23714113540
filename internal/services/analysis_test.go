package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/analyzer"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/config"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/extractor"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/models"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

const invoiceText = "INVOICE\nInvoice Number: 42\nBill To: Northwind\nTotal Amount Due: $1,620.00"

type stubExtractor struct {
	text string
	err  error
}

func (e stubExtractor) Extract(context.Context, []byte) (string, error) {
	return e.text, e.err
}

type stubAnalyzer struct {
	reply      string
	err        error
	configured bool
	calls      int
}

func (a *stubAnalyzer) Analyze(context.Context, string) (string, error) {
	a.calls++
	return a.reply, a.err
}

func (a *stubAnalyzer) Configured() bool { return a.configured }

type stubRecorder struct {
	outcomes   []string
	rejections int
}

func (r *stubRecorder) RecordAnalysis(outcome, source string) {
	r.outcomes = append(r.outcomes, outcome+"/"+source)
}

func (r *stubRecorder) RecordClassifierRejection() { r.rejections++ }

func testConfig() *config.Config {
	return &config.Config{
		AIProvider:  config.ProviderOpenAI,
		MaxPDFPages: 50,
		MockDelay:   5 * time.Millisecond,
		MockSeed:    99,
	}
}

func doc() *models.UploadedDocument {
	return &models.UploadedDocument{Filename: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
}

func assertAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.StatusCode)
	assert.Equal(t, message, appErr.Message)
}

func TestAnalyzeDocumentSuccess(t *testing.T) {
	ai := &stubAnalyzer{configured: true, reply: "```json\n{\"vendor_name\":\"Northwind\",\"total_amount\":\"$1,620.00\"}\n```"}
	rec := &stubRecorder{}
	svc := NewService(testConfig(), stubExtractor{text: invoiceText}, ai, rec, nil)

	result, err := svc.AnalyzeDocument(context.Background(), doc())
	require.NoError(t, err)

	assert.Equal(t, "Northwind", *result.VendorName)
	assert.Equal(t, models.SourceAI, result.Source)
	assert.Equal(t, []models.LineItem{}, result.LineItems)
	assert.Equal(t, []string{"success/ai"}, rec.outcomes)
}

func TestAnalyzeDocumentExtractionFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"no text", extractor.ErrNoText, "Could not extract text from PDF"},
		{"corrupt", extractor.ErrInvalidPDF, "Failed to parse PDF"},
		{"too long", extractor.ErrTooManyPages, "PDF exceeds the 50 page limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &stubAnalyzer{configured: true}
			svc := NewService(testConfig(), stubExtractor{err: tt.err}, ai, nil, nil)

			_, err := svc.AnalyzeDocument(context.Background(), doc())
			assertAppError(t, err, http.StatusBadRequest, tt.message)
			assert.Zero(t, ai.calls)
		})
	}
}

func TestAnalyzeDocumentRejectsNonInvoiceWithoutCallingAI(t *testing.T) {
	ai := &stubAnalyzer{configured: true}
	rec := &stubRecorder{}
	svc := NewService(testConfig(), stubExtractor{text: "A poem about the sea and the sky."}, ai, rec, nil)

	_, err := svc.AnalyzeDocument(context.Background(), doc())

	assertAppError(t, err, http.StatusBadRequest, msgNotInvoice)
	assert.Equal(t, utils.KindContentValidation, utils.KindOf(err))
	assert.Zero(t, ai.calls)
	assert.Equal(t, 1, rec.rejections)
}

func TestAnalyzeDocumentAIFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		err      error
		message  string
	}{
		{
			name:    "auth",
			err:     utils.NewAppError(utils.KindAuthentication, "bad key", nil),
			message: "Invalid OpenAI API key. Please check your .env file.",
		},
		{
			name:     "vertex auth",
			provider: config.ProviderVertex,
			err:      utils.NewAppError(utils.KindAuthentication, "denied", nil),
			message:  "Invalid Vertex AI credentials. Please check your .env file.",
		},
		{
			name:    "quota",
			err:     utils.NewAppError(utils.KindQuota, "quota", nil),
			message: "OpenAI API quota exceeded. Please check your billing.",
		},
		{
			name:    "unknown",
			err:     utils.NewAppError(utils.KindUnknown, "OpenAI API returned status 502: Bad Gateway", nil),
			message: "Analysis failed: OpenAI API returned status 502: Bad Gateway",
		},
		{
			name:    "bare error",
			err:     errors.New("connection reset by peer"),
			message: "Analysis failed: connection reset by peer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.provider != "" {
				cfg.AIProvider = tt.provider
			}
			ai := &stubAnalyzer{configured: true, err: tt.err}
			svc := NewService(cfg, stubExtractor{text: invoiceText}, ai, nil, nil)

			_, err := svc.AnalyzeDocument(context.Background(), doc())
			assertAppError(t, err, http.StatusInternalServerError, tt.message)
		})
	}
}

func TestAnalyzeDocumentUnparseableReply(t *testing.T) {
	ai := &stubAnalyzer{configured: true, reply: "Sorry, I can't help with that."}
	svc := NewService(testConfig(), stubExtractor{text: invoiceText}, ai, nil, nil)

	_, err := svc.AnalyzeDocument(context.Background(), doc())

	assertAppError(t, err, http.StatusInternalServerError, msgParseFailed)
	assert.Equal(t, utils.KindResponseFormat, utils.KindOf(err))
}

type rateLimitedProvider struct{ calls int }

func (p *rateLimitedProvider) Name() string { return "OpenAI" }

func (p *rateLimitedProvider) Complete(context.Context, analyzer.CompletionRequest) (string, error) {
	p.calls++
	return "", &analyzer.APIError{Provider: "OpenAI", StatusCode: http.StatusTooManyRequests, Message: "Rate limit reached"}
}

func TestAnalyzeDocumentFallsBackAfterPersistentRateLimit(t *testing.T) {
	provider := &rateLimitedProvider{}
	client := analyzer.NewClient(provider, analyzer.Options{
		Retry: analyzer.RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, Multiplier: 2},
	})
	rec := &stubRecorder{}
	svc := NewService(testConfig(), stubExtractor{text: invoiceText}, client, rec, nil)

	result, err := svc.AnalyzeDocument(context.Background(), doc())
	require.NoError(t, err)

	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, models.SourceRateLimitFallback, result.Source)
	assert.Len(t, result.LineItems, 5)
	assert.Equal(t, []string{"success/rate_limit_fallback"}, rec.outcomes)
}

func TestReady(t *testing.T) {
	svc := NewService(testConfig(), stubExtractor{}, &stubAnalyzer{}, nil, nil)
	assertAppError(t, svc.Ready(), http.StatusInternalServerError, "OPENAI_API_KEY is not configured")

	svc = NewService(testConfig(), stubExtractor{}, analyzer.NewClient(nil, analyzer.Options{}), nil, nil)
	assert.Error(t, svc.Ready())

	cfg := testConfig()
	cfg.AIProvider = config.ProviderVertex
	cfg.VertexProjectID = "invoice-project"
	svc = NewService(cfg, stubExtractor{}, analyzer.NewClient(nil, analyzer.Options{}), nil, nil)
	assertAppError(t, svc.Ready(), http.StatusInternalServerError, "Vertex AI client is not available. Check the server logs.")

	svc = NewService(testConfig(), stubExtractor{}, &stubAnalyzer{configured: true}, nil, nil)
	assert.NoError(t, svc.Ready())
}

func TestDemoWaitsAndIsSeeded(t *testing.T) {
	cfg := testConfig()
	cfg.UseMockData = true
	svc := NewService(cfg, stubExtractor{}, &stubAnalyzer{}, nil, nil)

	require.True(t, svc.DemoMode())

	start := time.Now()
	first, err := svc.Demo(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), cfg.MockDelay)

	second, err := svc.Demo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SourceDemo, first.Source)
	assert.Equal(t, first, second)
}

func TestDemoHonoursCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.UseMockData = true
	cfg.MockDelay = time.Minute
	svc := NewService(cfg, stubExtractor{}, &stubAnalyzer{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Demo(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

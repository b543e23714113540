package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/analyzer"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/classifier"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/config"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/extractor"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/models"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/reconciler"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

const (
	msgNoText      = "Could not extract text from PDF"
	msgInvalidPDF  = "Failed to parse PDF"
	msgNotInvoice  = "This document doesn't appear to be an invoice or bill. Please upload a valid invoice document."
	msgParseFailed = "Failed to parse AI response. The response may not be valid JSON."
)

type AnalysisService interface {
	// DemoMode reports whether every request is answered with mock data.
	DemoMode() bool
	Demo(ctx context.Context) (*models.AnalysisResult, error)
	// Ready fails when no AI credential is configured.
	Ready() error
	AnalyzeDocument(ctx context.Context, doc *models.UploadedDocument) (*models.AnalysisResult, error)
}

// Recorder receives analysis outcomes. metrics.Metrics satisfies it.
type Recorder interface {
	RecordAnalysis(outcome, source string)
	RecordClassifierRejection()
}

type analysisService struct {
	cfg       *config.Config
	extractor extractor.Extractor
	analyzer  analyzer.Analyzer
	recorder  Recorder
	logger    *utils.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewService(cfg *config.Config, ext extractor.Extractor, ai analyzer.Analyzer, rec Recorder, logger *utils.Logger) AnalysisService {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &analysisService{
		cfg:       cfg,
		extractor: ext,
		analyzer:  ai,
		recorder:  rec,
		logger:    logger,
		sleep:     utils.Sleep,
	}
}

func (s *analysisService) DemoMode() bool {
	return s.cfg.UseMockData
}

func (s *analysisService) Demo(ctx context.Context) (*models.AnalysisResult, error) {
	if err := s.sleep(ctx, s.cfg.MockDelay); err != nil {
		return nil, err
	}

	result := s.mock(models.SourceDemo)
	s.logger.Info("Serving demo analysis", "request_id", utils.RequestIDFromContext(ctx))
	s.record("success", result.Source)
	return result, nil
}

func (s *analysisService) Ready() error {
	if s.analyzer == nil || !s.analyzer.Configured() {
		s.record(string(utils.KindConfiguration), "")
		return utils.NewAppError(utils.KindConfiguration, s.configurationMessage(), analyzer.ErrNotConfigured)
	}
	return nil
}

func (s *analysisService) AnalyzeDocument(ctx context.Context, doc *models.UploadedDocument) (*models.AnalysisResult, error) {
	result, err := s.analyze(ctx, doc)
	if err != nil {
		s.record(string(utils.KindOf(err)), "")
		return nil, err
	}
	s.record("success", result.Source)
	return result, nil
}

func (s *analysisService) analyze(ctx context.Context, doc *models.UploadedDocument) (*models.AnalysisResult, error) {
	reqID := utils.RequestIDFromContext(ctx)

	text, err := s.extractor.Extract(ctx, doc.Data)
	if err != nil {
		s.logger.Warn("Failed to extract text", "request_id", reqID, "filename", doc.Filename, "error", err)
		switch {
		case errors.Is(err, extractor.ErrNoText):
			return nil, utils.NewBadRequestError(msgNoText)
		case errors.Is(err, extractor.ErrTooManyPages):
			return nil, utils.NewBadRequestError(fmt.Sprintf("PDF exceeds the %d page limit", s.cfg.MaxPDFPages))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, utils.NewBadRequestError(msgInvalidPDF)
		}
	}

	score := classifier.Evaluate(text)
	if !score.Invoice() {
		s.logger.Info("Document rejected by classifier",
			"request_id", reqID,
			"filename", doc.Filename,
			"keyword_hits", score.KeywordHits,
			"currency", score.Currency,
			"amount", score.Amount,
		)
		if s.recorder != nil {
			s.recorder.RecordClassifierRejection()
		}
		return nil, utils.NewContentError(msgNotInvoice)
	}

	raw, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return s.handleAIError(ctx, err)
	}

	result, err := reconciler.Parse(raw)
	if err != nil {
		s.logger.Error("Failed to parse AI response", "request_id", reqID, "error", err, "raw_content", raw)
		return nil, utils.NewAppError(utils.KindResponseFormat, msgParseFailed, err)
	}

	return result, nil
}

func (s *analysisService) handleAIError(ctx context.Context, err error) (*models.AnalysisResult, error) {
	provider := s.cfg.ProviderName()

	switch utils.KindOf(err) {
	case utils.KindRateLimit:
		s.logger.Warn("AI rate limit persisted after retries, serving fallback analysis",
			"request_id", utils.RequestIDFromContext(ctx),
			"provider", provider,
			"error", err,
		)
		return s.mock(models.SourceRateLimitFallback), nil
	case utils.KindAuthentication:
		noun := "API key"
		if s.cfg.AIProvider == config.ProviderVertex {
			noun = "credentials"
		}
		return nil, utils.NewAppError(utils.KindAuthentication,
			fmt.Sprintf("Invalid %s %s. Please check your .env file.", provider, noun), err)
	case utils.KindQuota:
		return nil, utils.NewAppError(utils.KindQuota,
			fmt.Sprintf("%s API quota exceeded. Please check your billing.", provider), err)
	case utils.KindConfiguration:
		return nil, utils.NewAppError(utils.KindConfiguration, s.configurationMessage(), err)
	default:
		return nil, utils.NewAppError(utils.KindUnknown, "Analysis failed: "+cause(err), err)
	}
}

// configurationMessage names the missing credential, or reports that the
// client failed to start when the credential is present.
func (s *analysisService) configurationMessage() string {
	if s.cfg.HasCredential() {
		return s.cfg.ProviderName() + " client is not available. Check the server logs."
	}
	return s.cfg.CredentialEnv() + " is not configured"
}

// mock uses the configured seed, or a time-derived one when unset.
func (s *analysisService) mock(source models.Source) *models.AnalysisResult {
	seed := s.cfg.MockSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return reconciler.GenerateMock(seed, source)
}

func (s *analysisService) record(outcome string, source models.Source) {
	if s.recorder != nil {
		s.recorder.RecordAnalysis(outcome, string(source))
	}
}

func cause(err error) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

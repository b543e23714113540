package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

var (
	ErrNotConfigured = errors.New("AI provider is not configured")
	ErrEmptyResponse = errors.New("No analysis response from AI")
	ErrMaxRetries    = errors.New("Max retries exceeded")
)

// APIError is a non-2xx reply from an HTTP model provider.
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, msg)
}

var quotaCodes = map[string]bool{
	"insufficient_quota":         true,
	"billing_hard_limit_reached": true,
	"billing_not_active":         true,
}

// Classify maps a provider failure to an error kind. Structured status is
// used when present; message matching only applies to errors without one.
func Classify(err error) utils.ErrorKind {
	if err == nil {
		return ""
	}

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return utils.KindRateLimit
		case codes.Unauthenticated, codes.PermissionDenied:
			return utils.KindAuthentication
		}
		return utils.KindUnknown
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return utils.KindUnknown
	}

	return classifyMessage(err.Error())
}

func classifyAPIError(e *APIError) utils.ErrorKind {
	if quotaCodes[e.Code] || quotaCodes[e.Type] || e.StatusCode == http.StatusPaymentRequired {
		return utils.KindQuota
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return utils.KindRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
		return utils.KindAuthentication
	}
	return utils.KindUnknown
}

func classifyMessage(msg string) utils.ErrorKind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "insufficient_quota"), strings.Contains(msg, "billing"):
		return utils.KindQuota
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return utils.KindRateLimit
	case strings.Contains(msg, "401"), strings.Contains(msg, "authentication"):
		return utils.KindAuthentication
	}
	return utils.KindUnknown
}

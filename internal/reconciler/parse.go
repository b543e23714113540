package reconciler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/models"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

// ErrUnparseable marks model output that could not be turned into a result.
var ErrUnparseable = errors.New("unparseable AI response")

var (
	moneyFields  = map[string]bool{"total_amount": true, "amount": true}
	scalarFields = []string{"vendor_name", "total_amount", "executive_summary"}
	listFields   = []string{"flagged_charges", "potential_savings"}
	itemFields   = []string{"description", "amount", "category"}
)

// Parse extracts JSON from model text, coerces near-miss values into the
// contract types and validates the outcome. Failures are KindResponseFormat.
func Parse(text string) (*models.AnalysisResult, error) {
	payload := ExtractJSON(text)

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, formatError(fmt.Errorf("decode: %w", err))
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, formatError(fmt.Errorf("expected JSON object, got %T", doc))
	}
	sanitize(obj)

	if err := resultSchema.Validate(obj); err != nil {
		return nil, formatError(fmt.Errorf("schema: %w", err))
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return nil, formatError(err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, formatError(fmt.Errorf("decode result: %w", err))
	}

	result.Source = models.SourceAI
	result.Normalize()
	return &result, nil
}

func formatError(err error) error {
	return utils.NewAppError(utils.KindResponseFormat, ErrUnparseable.Error(), errors.Join(ErrUnparseable, err))
}

// sanitize rewrites scalars the model commonly gets wrong (numbers where
// strings are expected, null lists). Anything else is left for the schema
// to reject.
func sanitize(obj map[string]any) {
	for _, key := range scalarFields {
		if v, ok := obj[key]; ok {
			obj[key] = coerceScalar(key, v)
		}
	}

	switch items := obj["line_items"].(type) {
	case nil:
		obj["line_items"] = []any{}
	case []any:
		kept := make([]any, 0, len(items))
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range itemFields {
				if v, ok := item[key]; ok {
					item[key] = coerceScalar(key, v)
				}
			}
			kept = append(kept, item)
		}
		obj["line_items"] = kept
	}

	for _, key := range listFields {
		switch list := obj[key].(type) {
		case nil:
			obj[key] = []any{}
		case string:
			obj[key] = []any{list}
		case []any:
			kept := make([]any, 0, len(list))
			for _, v := range list {
				if v = coerceScalar(key, v); v == nil {
					continue
				}
				kept = append(kept, v)
			}
			obj[key] = kept
		}
	}
}

func coerceScalar(key string, v any) any {
	switch t := v.(type) {
	case float64:
		if moneyFields[key] {
			return fmt.Sprintf("%.2f", t)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") {
			return nil
		}
		return s
	default:
		return v
	}
}

package models

// Source records which path produced an AnalysisResult.
type Source string

const (
	SourceAI                Source = "ai"
	SourceDemo              Source = "demo"
	SourceRateLimitFallback Source = "rate_limit_fallback"
)

type UploadedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

type LineItem struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
}

// AnalysisResult is the JSON contract returned to clients. Missing scalar
// fields serialize as null.
type AnalysisResult struct {
	VendorName       *string    `json:"vendor_name"`
	TotalAmount      *string    `json:"total_amount"`
	ExecutiveSummary *string    `json:"executive_summary"`
	LineItems        []LineItem `json:"line_items"`
	FlaggedCharges   []string   `json:"flagged_charges"`
	PotentialSavings []string   `json:"potential_savings"`
	Source           Source     `json:"source"`
}

// Normalize replaces nil slices so they encode as [] rather than null.
func (r *AnalysisResult) Normalize() {
	if r.LineItems == nil {
		r.LineItems = []LineItem{}
	}
	if r.FlaggedCharges == nil {
		r.FlaggedCharges = []string{}
	}
	if r.PotentialSavings == nil {
		r.PotentialSavings = []string{}
	}
}

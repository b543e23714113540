package reconciler

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const analysisSchema = `{
  "type": "object",
  "properties": {
    "vendor_name": {"type": ["string", "null"]},
    "total_amount": {"type": ["string", "null"]},
    "executive_summary": {"type": ["string", "null"]},
    "line_items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "description": {"type": ["string", "null"]},
          "amount": {"type": ["string", "null"]},
          "category": {"type": ["string", "null"]}
        }
      }
    },
    "flagged_charges": {"type": "array", "items": {"type": "string"}},
    "potential_savings": {"type": "array", "items": {"type": "string"}}
  }
}`

var resultSchema = jsonschema.MustCompileString("analysis_result.json", analysisSchema)

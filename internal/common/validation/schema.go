// Package validation checks request payloads against JSON schemas
// before they reach the services.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError is one field-level schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult aggregates the violations for one payload.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Details renders the violations as a single "field: message; ..."
// string for error construction.
func (r *ValidationResult) Details() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

const createTenderSchema = `{
	"type": "object",
	"required": ["title", "description", "category", "urgency", "location"],
	"additionalProperties": false,
	"properties": {
		"title":              {"type": "string", "minLength": 3, "maxLength": 200},
		"description":        {"type": "string", "minLength": 10, "maxLength": 5000},
		"category":           {"type": "string", "minLength": 1},
		"urgency":            {"type": "string", "enum": ["today", "this-week", "flexible"]},
		"location":           {"type": "string", "minLength": 1, "maxLength": 500},
		"city":               {"type": "string"},
		"district":           {"type": "string"},
		"gpsCoordinates":     {"type": "string"},
		"photos":             {"type": "array", "items": {"type": "string"}, "maxItems": 10},
		"maxBudget":          {"type": "integer", "minimum": 0},
		"preferredSchedule":  {"type": "string", "maxLength": 500},
		"specialConstraints": {"type": "string", "maxLength": 2000}
	}
}`

const createBidSchema = `{
	"type": "object",
	"required": ["price", "estimatedDuration"],
	"additionalProperties": false,
	"properties": {
		"price":             {"type": "integer", "minimum": 0},
		"estimatedDuration": {"type": "string", "minLength": 1, "maxLength": 100},
		"guaranteePeriod":   {"type": "string", "maxLength": 100},
		"availability":      {"type": "string", "maxLength": 200},
		"description":       {"type": "string", "maxLength": 2000},
		"photos":            {"type": "array", "items": {"type": "string"}, "maxItems": 10},
		"hasGuarantee":      {"type": "boolean"},
		"canStartToday":     {"type": "boolean"}
	}
}`

var (
	tenderSchema = gojsonschema.NewStringLoader(createTenderSchema)
	bidSchema    = gojsonschema.NewStringLoader(createBidSchema)
)

// ValidateCreateTender checks a raw create-tender payload.
func ValidateCreateTender(payload []byte) (*ValidationResult, error) {
	return validate(tenderSchema, payload)
}

// ValidateCreateBid checks a raw create-bid payload.
func ValidateCreateBid(payload []byte) (*ValidationResult, error) {
	return validate(bidSchema, payload)
}

func validate(schema gojsonschema.JSONLoader, payload []byte) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	out := &ValidationResult{}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return out, nil
}

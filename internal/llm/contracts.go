package llm

import (
	"context"
	"errors"
	"fmt"
)

// Column is one named, ordered value list inside an extracted table. Values
// hold JSON scalars exactly as the model returned them: string, json.Number,
// or nil. Decode with DecodeExtractionResult so number literals survive.
type Column struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// ExtractedTable is one financial table found in the document. All value
// lists within a table are expected to share a length; that invariant is
// enforced downstream at validation, not by construction.
type ExtractedTable struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// ExtractionResult is the schema-conformant representation of all tables
// found in one document. Request-scoped; discarded after rendering.
type ExtractionResult struct {
	Tables []ExtractedTable `json:"tables"`
}

// Document is the input handed to the extractor.
type Document struct {
	Filename string
	Content  []byte
}

// TableExtractor is the single capability the pipeline depends on.
// The second return is the raw model JSON for logging/audit.
type TableExtractor interface {
	ExtractTables(ctx context.Context, doc Document) (*ExtractionResult, []byte, error)
}

// AIErrorKind classifies extractor failures for the caller.
type AIErrorKind string

const (
	// AIRefused: content-policy or similar refusal. Surfaced as a
	// client-facing rejection, not retried.
	AIRefused AIErrorKind = "refused"
	// AIMalformed: response did not conform to the agreed schema.
	AIMalformed AIErrorKind = "malformed"
	// AITransport: network/service failure. No automatic retry.
	AITransport AIErrorKind = "transport"
)

// AIError is the error type returned by TableExtractor implementations.
type AIError struct {
	Kind    AIErrorKind
	Message string
	Cause   error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

func (e *AIError) Unwrap() error { return e.Cause }

// KindOf returns the AIErrorKind of err, or "" when err is not an AIError.
func KindOf(err error) AIErrorKind {
	var ae *AIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

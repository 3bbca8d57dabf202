package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so the HTTP layer can map them to
// status codes without string matching.
type ErrorKind string

const (
	// KindInput covers caller mistakes: missing files, unsupported types,
	// empty datasets, queries with no matching context.
	KindInput ErrorKind = "input"
	// KindUpstream covers failures of external model services: embedding,
	// LLM, partitioning, re-ranking.
	KindUpstream ErrorKind = "upstream"
	// KindContract covers generation-contract violations: the LLM returned
	// no fenced block, an unparsable spec, or a spec referencing unknown
	// columns.
	KindContract ErrorKind = "contract"
)

// PipelineError is the single wrapper for internal pipeline failures. It
// keeps the structured kind that the original service discarded.
type PipelineError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewInputError builds a caller-facing input error.
func NewInputError(op, message string) *PipelineError {
	return &PipelineError{Kind: KindInput, Op: op, Message: message}
}

// NewUpstreamError wraps a failure from an external model service.
func NewUpstreamError(op, message string, err error) *PipelineError {
	return &PipelineError{Kind: KindUpstream, Op: op, Message: message, Err: err}
}

// NewContractError marks a generation-contract violation.
func NewContractError(op, message string) *PipelineError {
	return &PipelineError{Kind: KindContract, Op: op, Message: message}
}

// KindOf extracts the error kind, or empty string for untyped errors.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

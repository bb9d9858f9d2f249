package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/lookahead/internal/frontier"
)

// RuntimeError represents an error detected during a search run.
//
// Runtime errors include:
//   - Consistency violation: a parent, child or relative id is missing
//   - Duplicate key: a node was inserted twice under one (fingerprint, parity)
//   - Collaborator failure: the rules engine or durable store failed
//   - Invalid evaluation: the rules engine returned NaN or infinity
//
// Collaborator failures keep the original error reachable through Unwrap,
// so errors.Is and errors.As see the collaborator's own error values.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// NodeID identifies the node being processed, or -1.
	NodeID int

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeConsistencyViolation indicates the node graph references a missing id.
	ErrCodeConsistencyViolation RuntimeErrorCode = "CONSISTENCY_VIOLATION"

	// ErrCodeDuplicateKey indicates an insert collided with an existing key.
	ErrCodeDuplicateKey RuntimeErrorCode = "DUPLICATE_KEY"

	// ErrCodeCollaboratorFailure indicates the rules engine or durable store failed.
	ErrCodeCollaboratorFailure RuntimeErrorCode = "COLLABORATOR_FAILURE"

	// ErrCodeInvalidEvaluation indicates a NaN or infinite evaluation.
	ErrCodeInvalidEvaluation RuntimeErrorCode = "INVALID_EVALUATION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.NodeID >= 0 {
		msg = fmt.Sprintf("%s (node=%d)", msg, e.NodeID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsConsistencyError returns true if the error is a consistency violation.
// Uses errors.As to handle wrapped errors.
func IsConsistencyError(err error) bool {
	return hasCode(err, ErrCodeConsistencyViolation)
}

// IsDuplicateKeyError returns true if the error is a duplicate key error,
// either from the engine or directly from the node store.
func IsDuplicateKeyError(err error) bool {
	return hasCode(err, ErrCodeDuplicateKey) || errors.Is(err, frontier.ErrDuplicateKey)
}

// IsCollaboratorError returns true if the error came from a collaborator.
func IsCollaboratorError(err error) bool {
	return hasCode(err, ErrCodeCollaboratorFailure)
}

// IsInvalidEvaluationError returns true if an evaluation was rejected.
func IsInvalidEvaluationError(err error) bool {
	return hasCode(err, ErrCodeInvalidEvaluation)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewConsistencyError creates a RuntimeError for a missing node reference.
func NewConsistencyError(nodeID int, role string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeConsistencyViolation,
		Message: fmt.Sprintf("%s reference is missing from the node store", role),
		NodeID:  nodeID,
		Details: map[string]string{"role": role},
		Err:     err,
	}
}

// NewCollaboratorError wraps a failure returned by the rules engine or store.
func NewCollaboratorError(nodeID int, op string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCollaboratorFailure,
		Message: op + " failed",
		NodeID:  nodeID,
		Details: map[string]string{"op": op},
		Err:     err,
	}
}

// storeError classifies an error returned by the node store.
func storeError(nodeID int, role string, err error) error {
	switch {
	case errors.Is(err, frontier.ErrDuplicateKey):
		return &RuntimeError{
			Code:    ErrCodeDuplicateKey,
			Message: "node key already stored",
			NodeID:  nodeID,
			Err:     err,
		}
	default:
		return NewConsistencyError(nodeID, role, err)
	}
}

package analysis

import "errors"

var (
	// ErrInvalidIndex is returned when a proposal index is out of range
	// for the analysis it targets.
	ErrInvalidIndex = errors.New("proposal index out of range")

	// ErrNotPending is returned when an operation requires an analysis
	// that has not yet been approved or rejected.
	ErrNotPending = errors.New("analysis is no longer pending")

	// ErrAnalysisRejected is returned when approval is attempted on a
	// rejected analysis.
	ErrAnalysisRejected = errors.New("analysis was rejected")
)

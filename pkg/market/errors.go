package market

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the input resolved to nothing and no candidates were
// available. Terminal and user-correctable.
var ErrNotFound = errors.New("market: symbol not found")

// maxSuggestions bounds the candidate list offered on ambiguous input.
const maxSuggestions = 5

// AmbiguousError carries up to five candidates in upstream relevance order.
// The user has to disambiguate; nothing is retried.
type AmbiguousError struct {
	Input       string
	Suggestions []Suggestion
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("market: %q is ambiguous (%d candidates)", e.Input, len(e.Suggestions))
}

// InsufficientDataError reports that fewer valid samples survived ingestion
// than the longest indicator lookback requires. Not retried: more history
// will not arrive faster.
type InsufficientDataError struct {
	Count int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("market: insufficient data: %d of %d samples", e.Count, minSamples)
}

// ComputationError wraps an unexpected failure inside indicator math. No
// partial snapshot is ever returned alongside it.
type ComputationError struct {
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("market: indicator computation failed: %v", e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

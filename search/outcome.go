package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/imgvec/feature"
	"github.com/viant/imgvec/rank"
	"github.com/viant/imgvec/vector"
)

// State is the terminal state of an ingestion.
type State string

const (
	StateStored   State = "stored"
	StateRejected State = "rejected"
)

// IngestOutcome reports what happened to one image.
type IngestOutcome struct {
	ID    string
	State State
	// Reason is a human readable rejection reason.
	Reason string
	// Err is the classified error behind a rejection.
	Err error
	// Dimension is the stored vector length.
	Dimension int
}

// Stored reports whether the image was written to the store.
func (o IngestOutcome) Stored() bool { return o.State == StateStored }

// QueryResult holds the ranked matches of a query and what was left out.
type QueryResult struct {
	Matches []rank.Match
	// Candidates is the number of records loaded from the store.
	Candidates int
	Excluded   []rank.Exclusion
	Corrupt    []*vector.CorruptRecordError
}

// NoData reports whether no stored record could be ranked, which includes
// an empty store.
func (r *QueryResult) NoData() bool {
	return len(r.Matches) == 0
}

// Reason returns a short human readable explanation of err.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var dm *vector.DimensionMismatchError
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		return "invalid image identifier"
	case errors.Is(err, ErrDuplicateIdentifier):
		return "duplicate image identifier in batch"
	case errors.Is(err, ErrRemoveUnsupported):
		return "vector store does not support removal"
	case errors.Is(err, vector.ErrNotFound):
		return "image not found"
	case errors.Is(err, feature.ErrDecode):
		return "image could not be decoded"
	case errors.Is(err, feature.ErrNoRegion):
		return "no detectable region in image"
	case errors.Is(err, feature.ErrExtraction):
		return "feature extraction failed"
	case errors.As(err, &dm):
		return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", dm.Expected, dm.Actual)
	case errors.Is(err, vector.ErrInvalidRecord):
		return "invalid vector record"
	case errors.Is(err, vector.ErrStoreUnavailable):
		return "vector store unavailable"
	case errors.Is(err, rank.ErrInvalidK):
		return "k must be at least 1"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request cancelled"
	}
	return err.Error()
}

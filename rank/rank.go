package rank

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/imgvec/vector"
)

var (
	// ErrInvalidK is returned when k is smaller than 1.
	ErrInvalidK = errors.New("rank: k must be at least 1")

	// ErrInvalidQuery is returned for an empty, non-finite or zero-magnitude query.
	ErrInvalidQuery = errors.New("rank: invalid query vector")
)

// Match is a ranked candidate.
type Match struct {
	ID    string
	Score float64
}

// Reason explains why a candidate was not scored.
type Reason string

const (
	ReasonDimensionMismatch Reason = "dimension mismatch"
	ReasonUnusable          Reason = "zero magnitude or non-finite vector"
)

// Exclusion is a candidate skipped during ranking.
type Exclusion struct {
	ID     string
	Reason Reason
	// Dimension is the candidate's vector length.
	Dimension int
}

func (e Exclusion) String() string {
	return fmt.Sprintf("%s: %s (dim %d)", e.ID, e.Reason, e.Dimension)
}

// Result holds the ranked matches, the number of scored candidates and the
// candidates that were excluded.
type Result struct {
	Matches  []Match
	Scored   int
	Excluded []Exclusion
}

// Rank returns up to k records ordered by non-increasing cosine similarity
// to query. Candidates whose vectors cannot be compared with the query are
// reported in Result.Excluded instead of failing the call.
func Rank(query []float32, records []vector.Record, k int) (*Result, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if !vector.IsUsable(query) {
		return nil, ErrInvalidQuery
	}
	type scored struct {
		idx   int
		score float64
	}
	result := &Result{}
	scoreds := make([]scored, 0, len(records))
	for j := range records {
		rec := &records[j]
		if len(rec.Embedding) != len(query) {
			result.Excluded = append(result.Excluded, Exclusion{ID: rec.ID, Reason: ReasonDimensionMismatch, Dimension: len(rec.Embedding)})
			continue
		}
		if !vector.IsUsable(rec.Embedding) {
			result.Excluded = append(result.Excluded, Exclusion{ID: rec.ID, Reason: ReasonUnusable, Dimension: len(rec.Embedding)})
			continue
		}
		s, err := vector.CosineSimilarity(query, rec.Embedding)
		if err != nil || math.IsNaN(s) {
			result.Excluded = append(result.Excluded, Exclusion{ID: rec.ID, Reason: ReasonUnusable, Dimension: len(rec.Embedding)})
			continue
		}
		scoreds = append(scoreds, scored{idx: j, score: clamp(s)})
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].score > scoreds[b].score })
	result.Scored = len(scoreds)
	if k > len(scoreds) {
		k = len(scoreds)
	}
	result.Matches = make([]Match, k)
	for n := 0; n < k; n++ {
		result.Matches[n] = Match{ID: records[scoreds[n].idx].ID, Score: scoreds[n].score}
	}
	return result, nil
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

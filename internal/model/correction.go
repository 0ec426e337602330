package model

import "time"

// CorrectionMatchType restricts how a learned pattern is compared against a
// normalized description.
type CorrectionMatchType string

// Correction match type constants.
const (
	CorrectionExact    CorrectionMatchType = "exact"
	CorrectionContains CorrectionMatchType = "contains"
)

// MinCorrectionConfidence is the floor below which a correction is deleted
// rather than kept around as noise.
const MinCorrectionConfidence = 0.3

// Correction is a learned mapping from a normalized description pattern to
// an entity/category, created from user feedback. (Pattern, MatchType) is
// unique; reapplying a pattern updates the existing row.
type Correction struct {
	LastUsedAt      time.Time
	Pattern         string
	MatchType       CorrectionMatchType
	EntityID        string
	EntityName      string
	Location        string
	TransactionType string
	ID              int64
	TimesApplied    int
	Confidence      float64
	Online          bool
}

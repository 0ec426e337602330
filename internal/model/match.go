package model

// MatchType records which waterfall stage produced an entity match.
type MatchType string

// Match type constants, in waterfall priority order.
const (
	MatchManual   MatchType = "manual"
	MatchExact    MatchType = "exact"
	MatchPrefix   MatchType = "prefix"
	MatchContains MatchType = "contains"
	MatchAI       MatchType = "ai"
	MatchNone     MatchType = "none"
)

// EntityMatch is the outcome of running one transaction through the
// matching waterfall. MatchNone means the transaction is unresolved.
type EntityMatch struct {
	EntityID   string
	EntityName string
	EntityURL  string
	MatchType  MatchType
	Confidence float64
}

// ProcessedTransaction is a parsed transaction after classification. Exactly
// one of Match, SkipReason or Error is populated depending on which result
// bucket the transaction landed in; uncertain transactions carry the AI
// suggestion (when any) for manual resolution.
type ProcessedTransaction struct {
	Transaction ParsedTransaction
	Match       *EntityMatch
	SkipReason  string
	Error       string
	Suggestion  string
}

// ConfirmedTransaction is a matched or manually resolved transaction ready
// to be written to the external ledger. Entity fields may be empty when the
// user explicitly chose "no entity".
type ConfirmedTransaction struct {
	Transaction ParsedTransaction
	EntityID    string
	EntityName  string
	EntityURL   string
}

// ProcessResult partitions an input batch across the four buckets. Every
// input transaction appears in exactly one bucket.
type ProcessResult struct {
	Matched   []ProcessedTransaction
	Uncertain []ProcessedTransaction
	Skipped   []ProcessedTransaction
	Failed    []ProcessedTransaction
}

// Total returns the number of transactions across all buckets.
func (r *ProcessResult) Total() int {
	return len(r.Matched) + len(r.Uncertain) + len(r.Skipped) + len(r.Failed)
}

// ExecutionFailure pairs a transaction with the error that prevented its
// ledger write.
type ExecutionFailure struct {
	Transaction ConfirmedTransaction
	Error       string
}

// ExecuteResult is the terminal result of an execution job.
type ExecuteResult struct {
	Failed   []ExecutionFailure
	Imported int
	Skipped  int
}

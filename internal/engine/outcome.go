package engine

// OutcomeKind classifies how a mutation's remote completion resolved.
type OutcomeKind int

const (
	// OutcomeOK means the write succeeded and this mutation still owned
	// the status indicator.
	OutcomeOK OutcomeKind = iota
	// OutcomeStale means a newer mutation began before this completion
	// arrived; its effect on the indicator was discarded.
	OutcomeStale
	// OutcomeFailed means the write failed and the failure was surfaced.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the tagged result of one mutation's completion. It feeds
// the aggregate status only; local data is never rolled back from it.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

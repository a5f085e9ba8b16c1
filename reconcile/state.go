package reconcile

// State is a stage of one reconciliation attempt.
type State int

const (
	RawReceived State = iota
	Cleaned
	Parsed
	Validated
	Finalized
	// Failed is terminal; the result holds fallback records.
	Failed
)

func (s State) String() string {
	switch s {
	case RawReceived:
		return "raw_received"
	case Cleaned:
		return "cleaned"
	case Parsed:
		return "parsed"
	case Validated:
		return "validated"
	case Finalized:
		return "finalized"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

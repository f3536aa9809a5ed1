package backupq

// Outcome is the terminal result recorded in the Status Store.
// Use the exported constants instead of raw strings to avoid typos.
type Outcome string

const (
	// OutcomeNone means no upload has reached a terminal state yet.
	OutcomeNone Outcome = "none"
	// OutcomeSuccess means the last terminal upload succeeded.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed means the last terminal upload exhausted its retries.
	OutcomeFailed Outcome = "failed"
)

// AllOutcomes lists every valid outcome in a stable order.
var AllOutcomes = []Outcome{OutcomeNone, OutcomeSuccess, OutcomeFailed}

// String returns the raw string value of the outcome.
func (o Outcome) String() string { return string(o) }

// ParseOutcome converts a string into an Outcome, returning an error for unknown values.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case string(OutcomeNone):
		return OutcomeNone, nil
	case string(OutcomeSuccess):
		return OutcomeSuccess, nil
	case string(OutcomeFailed):
		return OutcomeFailed, nil
	default:
		return "", ErrUnknownOutcome
	}
}

package domain

import dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"

// Urgency represents how urgently a blood request needs to be filled.
// This is a domain primitive that enforces validity at parse time.
type Urgency string

// Supported urgency levels.
const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// urgencyRank defines the ordering of urgency levels for ranking.
// Lower numbers sort first.
var urgencyRank = map[Urgency]int{
	UrgencyCritical: 1,
	UrgencyHigh:     2,
	UrgencyMedium:   3,
	UrgencyLow:      4,
}

// ParseUrgency validates and returns an Urgency.
// Returns CodeInvalidInput if the level is unknown.
func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(s)
	if _, ok := urgencyRank[u]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown urgency level: %s", s)
	}
	return u, nil
}

// String returns the string representation of the urgency level.
func (u Urgency) String() string {
	return string(u)
}

// IsValid reports whether the urgency is one of the supported levels.
func (u Urgency) IsValid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// Rank returns the sort rank of the urgency level; critical ranks first.
// Unknown levels rank after every known level.
func (u Urgency) Rank() int {
	if r, ok := urgencyRank[u]; ok {
		return r
	}
	return len(urgencyRank) + 1
}

// MoreUrgentThan reports whether u outranks other.
func (u Urgency) MoreUrgentThan(other Urgency) bool {
	return u.Rank() < other.Rank()
}

// SupportedUrgencies returns all urgency levels in rank order.
func SupportedUrgencies() []Urgency {
	return []Urgency{UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow}
}

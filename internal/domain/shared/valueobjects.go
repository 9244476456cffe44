// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ParticipantID represents a unique participant identifier (UUID format).
type ParticipantID string

// IsValid checks if the participant ID is a valid UUID.
func (p ParticipantID) IsValid() bool {
	return uuidRegex.MatchString(string(p))
}

// String returns the string representation.
func (p ParticipantID) String() string {
	return string(p)
}

// IsEmpty checks if the ID is empty.
func (p ParticipantID) IsEmpty() bool {
	return p == ""
}

// NewParticipantID creates a new ParticipantID with validation.
func NewParticipantID(id string) (ParticipantID, error) {
	pid := ParticipantID(strings.ToLower(strings.TrimSpace(id)))
	if !pid.IsValid() {
		return "", NewDomainError("shared", "NewParticipantID", ErrInvalidID, "invalid participant ID format")
	}
	return pid, nil
}

// CompetitionID represents a unique competition identifier.
// Competitions use human-readable slugs, e.g. "open-source-sprint-2026".
type CompetitionID string

var competitionIDRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{2,63}$`)

// IsValid checks if the competition ID is a valid slug.
func (c CompetitionID) IsValid() bool {
	return competitionIDRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CompetitionID) String() string {
	return string(c)
}

// NewCompetitionID creates a new CompetitionID with validation.
func NewCompetitionID(id string) (CompetitionID, error) {
	cid := CompetitionID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewCompetitionID", ErrInvalidID, "invalid competition ID format")
	}
	return cid, nil
}

// RequirementID represents a unique requirement identifier within a competition.
type RequirementID string

// IsValid checks that the requirement ID is not empty.
func (r RequirementID) IsValid() bool {
	return len(strings.TrimSpace(string(r))) > 0
}

// String returns the string representation.
func (r RequirementID) String() string {
	return string(r)
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Score represents points awarded for submissions and milestones.
type Score int

const (
	// Score boundaries
	MinScore Score = 0
	MaxScore Score = 1000000
)

// IsValid checks if the score is within valid range.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// Add adds points and returns the result, capped at MaxScore.
func (s Score) Add(amount int) Score {
	result := Score(int(s) + amount)
	if result > MaxScore {
		return MaxScore
	}
	if result < MinScore {
		return MinScore
	}
	return result
}

// Diff returns the absolute difference between two scores.
func (s Score) Diff(other Score) Score {
	d := s - other
	if d < 0 {
		return -d
	}
	return d
}

// String returns the string representation.
func (s Score) String() string {
	return fmt.Sprintf("%d", int(s))
}

// ═══════════════════════════════════════════════════════════════════════════
// Percent Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percent represents a completion percentage in [0, 100].
type Percent float64

// IsValid checks that the percentage is within [0, 100].
func (p Percent) IsValid() bool {
	return p >= 0 && p <= 100 && !math.IsNaN(float64(p))
}

// Clamp bounds the percentage to [0, 100].
func (p Percent) Clamp() Percent {
	if math.IsNaN(float64(p)) {
		return 0
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// IsComplete returns true when the percentage is 100.
func (p Percent) IsComplete() bool {
	return p >= 100
}

// Float64 returns the underlying float64 value.
func (p Percent) Float64() float64 {
	return float64(p)
}

// String returns the string representation, e.g. "42.5%".
func (p Percent) String() string {
	return fmt.Sprintf("%.1f%%", float64(p))
}

// Ratio computes a percentage from part/total. A zero total yields 0, never NaN.
func Ratio(part, total int) Percent {
	if total <= 0 {
		return 0
	}
	return Percent(float64(part) / float64(total) * 100).Clamp()
}

// ═══════════════════════════════════════════════════════════════════════════
// Effectiveness Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Effectiveness is the 1-5 outcome rating of a completed intervention.
type Effectiveness int

const (
	// MinEffectiveness is the lowest permitted rating.
	MinEffectiveness Effectiveness = 1
	// MaxEffectiveness is the highest permitted rating.
	MaxEffectiveness Effectiveness = 5
	// SuccessfulEffectiveness is the threshold at which an intervention
	// counts toward the success rate.
	SuccessfulEffectiveness Effectiveness = 4
)

// IsValid checks the rating is within [1, 5].
func (e Effectiveness) IsValid() bool {
	return e >= MinEffectiveness && e <= MaxEffectiveness
}

// IsSuccessful returns true when the rating counts as a success.
func (e Effectiveness) IsSuccessful() bool {
	return e >= SuccessfulEffectiveness
}

// Int returns the underlying int value.
func (e Effectiveness) Int() int {
	return int(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// Actor Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Actor identifies who performed an audited action (an instructor login
// or a system job name such as "job:expire_snoozes").
type Actor string

// IsValid checks that the actor is not empty.
func (a Actor) IsValid() bool {
	return len(strings.TrimSpace(string(a))) > 0
}

// IsSystem reports whether the actor is an automated job.
func (a Actor) IsSystem() bool {
	return strings.HasPrefix(string(a), "job:")
}

// String returns the string representation.
func (a Actor) String() string {
	return string(a)
}

// ═══════════════════════════════════════════════════════════════════════════
// Clock
// ═══════════════════════════════════════════════════════════════════════════

// Clock abstracts time.Now so deterministic tests can inject a fixed time.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real current time in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Intended for tests.
type FixedClock struct {
	T time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.T
}

// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Participation events
	EventSubmissionRecorded  EventType = "participation.submission_recorded"
	EventProgressRecomputed  EventType = "participation.progress_recomputed"
	EventParticipationClosed EventType = "participation.closed"

	// Streak events
	EventStreakUpdated EventType = "streak.updated"
	EventStreakBroken  EventType = "streak.broken"

	// Milestone events
	EventMilestoneAchieved EventType = "milestone.achieved"

	// Leaderboard events
	EventRankChanged        EventType = "leaderboard.rank_changed"
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"

	// Alert events
	EventAlertAcknowledged EventType = "alert.acknowledged"
	EventAlertResolved     EventType = "alert.resolved"
	EventAlertSnoozed      EventType = "alert.snoozed"
	EventAlertWoken        EventType = "alert.woken"

	// Intervention events
	EventInterventionCreated   EventType = "intervention.created"
	EventInterventionStarted   EventType = "intervention.started"
	EventInterventionCompleted EventType = "intervention.completed"
	EventInterventionCancelled EventType = "intervention.cancelled"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus extends EventPublisher with subscription management.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down, waiting for in-flight handlers.
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Participation Events
// ═══════════════════════════════════════════════════════════════════════════

// SubmissionRecordedEvent is emitted when an approved submission is ingested.
type SubmissionRecordedEvent struct {
	BaseEvent
	ParticipantID string `json:"participant_id"`
	RequirementID string `json:"requirement_id"`
	Score         int    `json:"score"`
	NewTotalScore int    `json:"new_total_score"`
}

// Payload implements Event interface.
func (e SubmissionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"participant_id":  e.ParticipantID,
		"requirement_id":  e.RequirementID,
		"score":           e.Score,
		"new_total_score": e.NewTotalScore,
	}
}

// NewSubmissionRecordedEvent creates a new SubmissionRecordedEvent.
func NewSubmissionRecordedEvent(participationID, participantID, requirementID string, score, newTotal int) SubmissionRecordedEvent {
	return SubmissionRecordedEvent{
		BaseEvent:     NewBaseEvent(EventSubmissionRecorded, participationID),
		ParticipantID: participantID,
		RequirementID: requirementID,
		Score:         score,
		NewTotalScore: newTotal,
	}
}

// ProgressRecomputedEvent is emitted after a full progress re-aggregation.
type ProgressRecomputedEvent struct {
	BaseEvent
	ParticipantID        string  `json:"participant_id"`
	CompletionPercentage float64 `json:"completion_percentage"`
	CompletedCount       int     `json:"completed_count"`
	TotalRequirements    int     `json:"total_requirements"`
}

// Payload implements Event interface.
func (e ProgressRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"participant_id":        e.ParticipantID,
		"completion_percentage": e.CompletionPercentage,
		"completed_count":       e.CompletedCount,
		"total_requirements":    e.TotalRequirements,
	}
}

// NewProgressRecomputedEvent creates a new ProgressRecomputedEvent.
func NewProgressRecomputedEvent(participationID, participantID string, pct float64, completed, total int) ProgressRecomputedEvent {
	return ProgressRecomputedEvent{
		BaseEvent:            NewBaseEvent(EventProgressRecomputed, participationID),
		ParticipantID:        participantID,
		CompletionPercentage: pct,
		CompletedCount:       completed,
		TotalRequirements:    total,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakUpdatedEvent is emitted when a participant's streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	ParticipantID string `json:"participant_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"participant_id": e.ParticipantID,
		"current_streak": e.CurrentStreak,
		"longest_streak": e.LongestStreak,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(participantID string, current, longest int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventStreakUpdated, participantID),
		ParticipantID: participantID,
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// StreakBrokenEvent is emitted when an active streak resets to zero.
type StreakBrokenEvent struct {
	BaseEvent
	ParticipantID string `json:"participant_id"`
	BrokenStreak  int    `json:"broken_streak"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"participant_id": e.ParticipantID,
		"broken_streak":  e.BrokenStreak,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(participantID string, brokenStreak int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:     NewBaseEvent(EventStreakBroken, participantID),
		ParticipantID: participantID,
		BrokenStreak:  brokenStreak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Milestone Events
// ═══════════════════════════════════════════════════════════════════════════

// MilestoneAchievedEvent is emitted exactly once per milestone achievement.
type MilestoneAchievedEvent struct {
	BaseEvent
	ParticipantID string    `json:"participant_id"`
	MilestoneID   string    `json:"milestone_id"`
	Title         string    `json:"title"`
	Points        int       `json:"points"`
	AchievedAt    time.Time `json:"achieved_at"`
}

// Payload implements Event interface.
func (e MilestoneAchievedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"participant_id": e.ParticipantID,
		"milestone_id":   e.MilestoneID,
		"title":          e.Title,
		"points":         e.Points,
		"achieved_at":    e.AchievedAt,
	}
}

// NewMilestoneAchievedEvent creates a new MilestoneAchievedEvent.
func NewMilestoneAchievedEvent(participantID, milestoneID, title string, points int, achievedAt time.Time) MilestoneAchievedEvent {
	return MilestoneAchievedEvent{
		BaseEvent:     NewBaseEvent(EventMilestoneAchieved, milestoneID),
		ParticipantID: participantID,
		MilestoneID:   milestoneID,
		Title:         title,
		Points:        points,
		AchievedAt:    achievedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// RankChangedEvent is emitted when a participant's rank changes between snapshots.
type RankChangedEvent struct {
	BaseEvent
	ParticipantID string `json:"participant_id"`
	OldRank       int    `json:"old_rank"`
	NewRank       int    `json:"new_rank"`
}

// Payload implements Event interface.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"participant_id": e.ParticipantID,
		"old_rank":       e.OldRank,
		"new_rank":       e.NewRank,
	}
}

// NewRankChangedEvent creates a new RankChangedEvent.
func NewRankChangedEvent(participantID string, oldRank, newRank int) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent:     NewBaseEvent(EventRankChanged, participantID),
		ParticipantID: participantID,
		OldRank:       oldRank,
		NewRank:       newRank,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Alert Events
// ═══════════════════════════════════════════════════════════════════════════

// AlertTransitionedEvent covers all alert lifecycle transitions.
type AlertTransitionedEvent struct {
	BaseEvent
	AlertID    string `json:"alert_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Actor      string `json:"actor,omitempty"`
}

// Payload implements Event interface.
func (e AlertTransitionedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"alert_id":    e.AlertID,
		"from_status": e.FromStatus,
		"to_status":   e.ToStatus,
		"actor":       e.Actor,
	}
}

// NewAlertTransitionedEvent creates an alert transition event of the given type.
func NewAlertTransitionedEvent(eventType EventType, alertID, from, to, actor string) AlertTransitionedEvent {
	return AlertTransitionedEvent{
		BaseEvent:  NewBaseEvent(eventType, alertID),
		AlertID:    alertID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Intervention Events
// ═══════════════════════════════════════════════════════════════════════════

// InterventionTransitionedEvent covers all intervention lifecycle transitions.
type InterventionTransitionedEvent struct {
	BaseEvent
	InterventionID string `json:"intervention_id"`
	ParticipantID  string `json:"participant_id"`
	FromStatus     string `json:"from_status"`
	ToStatus       string `json:"to_status"`
	Effectiveness  int    `json:"effectiveness,omitempty"`
}

// Payload implements Event interface.
func (e InterventionTransitionedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"intervention_id": e.InterventionID,
		"participant_id":  e.ParticipantID,
		"from_status":     e.FromStatus,
		"to_status":       e.ToStatus,
		"effectiveness":   e.Effectiveness,
	}
}

// NewInterventionTransitionedEvent creates an intervention transition event.
func NewInterventionTransitionedEvent(eventType EventType, interventionID, participantID, from, to string, effectiveness int) InterventionTransitionedEvent {
	return InterventionTransitionedEvent{
		BaseEvent:      NewBaseEvent(eventType, interventionID),
		InterventionID: interventionID,
		ParticipantID:  participantID,
		FromStatus:     from,
		ToStatus:       to,
		Effectiveness:  effectiveness,
	}
}

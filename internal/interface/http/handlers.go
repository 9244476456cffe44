package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/application/command"
	"github.com/arena-hub/arena-progress-hub/internal/application/query"
	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/intervention"
	"github.com/arena-hub/arena-progress-hub/internal/domain/participation"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Arena Progress Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":        "/health",
			"progress":      "/api/v1/participations/{id}/progress",
			"leaderboard":   "/api/v1/competitions/{id}/leaderboard",
			"alerts":        "/api/v1/competitions/{id}/alerts",
			"interventions": "/api/v1/competitions/{id}/interventions/insights",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress handles GET /api/v1/participations/{id}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	participationID := r.PathValue("id")
	if participationID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Participation ID is required")
		return
	}

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), query.GetProgressQuery{
		ParticipationID: participationID,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// recordSubmissionRequest is the request body for recording a submission.
type recordSubmissionRequest struct {
	SubmissionID  string    `json:"submission_id"`
	RequirementID string    `json:"requirement_id"`
	Status        string    `json:"status"`
	Score         int       `json:"score"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// handleRecordSubmission handles POST /api/v1/participations/{id}/submissions
func (s *Server) handleRecordSubmission(w http.ResponseWriter, r *http.Request) {
	participationID := r.PathValue("id")

	var req recordSubmissionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RecordSubmissionHandler.Handle(r.Context(), command.RecordSubmissionCommand{
		ParticipationID: participationID,
		SubmissionID:    req.SubmissionID,
		RequirementID:   req.RequirementID,
		Status:          participation.SubmissionStatus(req.Status),
		Score:           req.Score,
		SubmittedAt:     req.SubmittedAt,
		CorrelationID:   getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to record submission")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/competitions/{id}/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	competitionID := r.PathValue("id")

	q := query.GetLeaderboardQuery{
		CompetitionID:     shared.CompetitionID(competitionID),
		Limit:             getQueryParamInt(r, "limit", 20),
		Offset:            getQueryParamInt(r, "offset", 0),
		AroundParticipant: shared.ParticipantID(getQueryParam(r, "around", "")),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ALERT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListAlerts handles GET /api/v1/competitions/{id}/alerts
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	competitionID := r.PathValue("id")

	q := query.ListOpenAlertsQuery{
		CompetitionID:  shared.CompetitionID(competitionID),
		Severity:       alert.Severity(getQueryParam(r, "severity", "")),
		IncludeSnoozed: getQueryParamBool(r, "include_snoozed"),
	}

	result, err := s.deps.ListOpenAlertsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to list alerts")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// actorRequest carries the acting instructor, shared by lifecycle requests.
type actorRequest struct {
	Actor string `json:"actor"`
}

// handleAcknowledgeAlert handles POST /api/v1/alerts/{id}/acknowledge
func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.AcknowledgeAlertHandler.Handle(r.Context(), command.AcknowledgeAlertCommand{
		AlertID:       r.PathValue("id"),
		Actor:         shared.Actor(req.Actor),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to acknowledge alert")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// resolveAlertRequest is the request body for resolving an alert.
type resolveAlertRequest struct {
	Actor      string `json:"actor"`
	Resolution string `json:"resolution"`
}

// handleResolveAlert handles POST /api/v1/alerts/{id}/resolve
func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	var req resolveAlertRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ResolveAlertHandler.Handle(r.Context(), command.ResolveAlertCommand{
		AlertID:       r.PathValue("id"),
		Actor:         shared.Actor(req.Actor),
		Resolution:    req.Resolution,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to resolve alert")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// snoozeAlertRequest is the request body for snoozing an alert.
type snoozeAlertRequest struct {
	Actor string `json:"actor"`

	// Duration is a Go duration string, e.g. "72h".
	Duration string `json:"duration"`
}

// handleSnoozeAlert handles POST /api/v1/alerts/{id}/snooze
func (s *Server) handleSnoozeAlert(w http.ResponseWriter, r *http.Request) {
	var req snoozeAlertRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "duration must be a valid duration string")
		return
	}

	result, err := s.deps.SnoozeAlertHandler.Handle(r.Context(), command.SnoozeAlertCommand{
		AlertID:       r.PathValue("id"),
		Actor:         shared.Actor(req.Actor),
		Duration:      duration,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to snooze alert")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// addAlertActionRequest is the request body for appending a journal action.
type addAlertActionRequest struct {
	Actor       string `json:"actor"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// handleAddAlertAction handles POST /api/v1/alerts/{id}/actions
func (s *Server) handleAddAlertAction(w http.ResponseWriter, r *http.Request) {
	var req addAlertActionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.AddAlertActionHandler.Handle(r.Context(), command.AddAlertActionCommand{
		AlertID:       r.PathValue("id"),
		Type:          alert.ActionType(req.Type),
		Description:   req.Description,
		Actor:         shared.Actor(req.Actor),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to add alert action")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERVENTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// createInterventionRequest is the request body for planning an intervention.
type createInterventionRequest struct {
	ParticipantID string    `json:"participant_id"`
	CompetitionID string    `json:"competition_id"`
	AlertID       string    `json:"alert_id,omitempty"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Priority      string    `json:"priority"`
	Actor         string    `json:"actor"`
	ScheduledDate time.Time `json:"scheduled_date"`

	MetricsBefore struct {
		Performance float64 `json:"performance"`
		Engagement  float64 `json:"engagement"`
		RiskScore   float64 `json:"risk_score"`
	} `json:"metrics_before"`
}

// handleCreateIntervention handles POST /api/v1/interventions
func (s *Server) handleCreateIntervention(w http.ResponseWriter, r *http.Request) {
	var req createInterventionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreateInterventionHandler.Handle(r.Context(), command.CreateInterventionCommand{
		ParticipantID: shared.ParticipantID(req.ParticipantID),
		CompetitionID: shared.CompetitionID(req.CompetitionID),
		AlertID:       req.AlertID,
		Type:          intervention.Type(req.Type),
		Title:         req.Title,
		Description:   req.Description,
		Priority:      intervention.Priority(req.Priority),
		Actor:         shared.Actor(req.Actor),
		ScheduledDate: req.ScheduledDate,
		MetricsBefore: intervention.Metrics{
			PerformanceBefore: req.MetricsBefore.Performance,
			EngagementBefore:  req.MetricsBefore.Engagement,
			RiskScoreBefore:   req.MetricsBefore.RiskScore,
		},
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to create intervention")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleStartIntervention handles POST /api/v1/interventions/{id}/start
func (s *Server) handleStartIntervention(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.StartInterventionHandler.Handle(r.Context(), command.StartInterventionCommand{
		InterventionID: r.PathValue("id"),
		Actor:          shared.Actor(req.Actor),
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to start intervention")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// completeInterventionRequest is the request body for completing an intervention.
type completeInterventionRequest struct {
	Actor         string    `json:"actor"`
	Outcome       string    `json:"outcome"`
	Effectiveness int       `json:"effectiveness"`
	FollowUpDate  time.Time `json:"follow_up_date,omitempty"`
}

// handleCompleteIntervention handles POST /api/v1/interventions/{id}/complete
func (s *Server) handleCompleteIntervention(w http.ResponseWriter, r *http.Request) {
	var req completeInterventionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CompleteInterventionHandler.Handle(r.Context(), command.CompleteInterventionCommand{
		InterventionID: r.PathValue("id"),
		Actor:          shared.Actor(req.Actor),
		Outcome:        req.Outcome,
		Effectiveness:  shared.Effectiveness(req.Effectiveness),
		FollowUpDate:   req.FollowUpDate,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to complete intervention")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// cancelInterventionRequest is the request body for cancelling an intervention.
type cancelInterventionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// handleCancelIntervention handles POST /api/v1/interventions/{id}/cancel
func (s *Server) handleCancelIntervention(w http.ResponseWriter, r *http.Request) {
	var req cancelInterventionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CancelInterventionHandler.Handle(r.Context(), command.CancelInterventionCommand{
		InterventionID: r.PathValue("id"),
		Actor:          shared.Actor(req.Actor),
		Reason:         req.Reason,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to cancel intervention")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetInsights handles GET /api/v1/competitions/{id}/interventions/insights
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	competitionID := r.PathValue("id")

	result, err := s.deps.GetInterventionInsightsHandler.Handle(r.Context(), query.GetInterventionInsightsQuery{
		CompetitionID: shared.CompetitionID(competitionID),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get intervention insights")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING & ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())

	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())

	case shared.IsStateTransition(err), errors.Is(err, shared.ErrTerminalState):
		writeJSONError(w, http.StatusConflict, "invalid_state_transition", err.Error())

	case errors.Is(err, shared.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())

	case errors.Is(err, shared.ErrOptimisticLock), errors.Is(err, shared.ErrConcurrentModification):
		writeJSONError(w, http.StatusConflict, "conflict", "The resource was modified concurrently, retry the request")

	default:
		s.logger.Error(logMsg,
			"error", err,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PARTICIPATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create participation tables
-- Version: 001

CREATE TABLE IF NOT EXISTS participations (
    id UUID PRIMARY KEY,
    participant_id UUID NOT NULL,
    competition_id VARCHAR(64) NOT NULL,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL,
    timezone VARCHAR(64) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    completion_events JSONB NOT NULL DEFAULT '[]'::jsonb,
    total_score INTEGER NOT NULL DEFAULT 0,
    rank INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_participation_status CHECK (status IN ('active', 'completed', 'withdrawn', 'disqualified')),
    CONSTRAINT valid_total_score CHECK (total_score >= 0),
    CONSTRAINT uniq_participant_competition UNIQUE (participant_id, competition_id)
);

CREATE INDEX IF NOT EXISTS idx_participations_competition ON participations(competition_id);
CREATE INDEX IF NOT EXISTS idx_participations_participant ON participations(participant_id);
CREATE INDEX IF NOT EXISTS idx_participations_competition_score ON participations(competition_id, total_score DESC);
CREATE INDEX IF NOT EXISTS idx_participations_active ON participations(competition_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS requirements (
    competition_id VARCHAR(64) NOT NULL,
    id VARCHAR(64) NOT NULL,
    title VARCHAR(200) NOT NULL DEFAULT '',
    required BOOLEAN NOT NULL DEFAULT FALSE,
    max_score INTEGER NOT NULL DEFAULT 0,
    completion_threshold INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_max_score CHECK (max_score >= 0),
    CONSTRAINT valid_threshold CHECK (completion_threshold <= max_score),
    PRIMARY KEY (competition_id, id)
);

CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY,
    participation_id UUID NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
    requirement_id VARCHAR(64) NOT NULL,
    status VARCHAR(20) NOT NULL,
    score INTEGER NOT NULL DEFAULT 0,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT valid_submission_status CHECK (status IN ('pending', 'approved', 'rejected'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_participation ON submissions(participation_id, submitted_at);
CREATE INDEX IF NOT EXISTS idx_submissions_requirement ON submissions(participation_id, requirement_id);

-- Derived projection: overwritten wholesale on every recompute.
CREATE TABLE IF NOT EXISTS requirement_progress (
    participation_id UUID NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
    requirement_id VARCHAR(64) NOT NULL,
    title VARCHAR(200) NOT NULL DEFAULT '',
    required BOOLEAN NOT NULL DEFAULT FALSE,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    progress DOUBLE PRECISION NOT NULL DEFAULT 0,
    score INTEGER NOT NULL DEFAULT 0,
    max_score INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL,

    PRIMARY KEY (participation_id, requirement_id)
);

CREATE TABLE IF NOT EXISTS streaks (
    participation_id UUID PRIMARY KEY REFERENCES participations(id) ON DELETE CASCADE,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_activity_at TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT valid_streak CHECK (current_streak >= 0 AND longest_streak >= current_streak)
);
`

const migration001Down = `
DROP TABLE IF EXISTS streaks;
DROP TABLE IF EXISTS requirement_progress;
DROP TABLE IF EXISTS submissions;
DROP TABLE IF EXISTS requirements;
DROP TABLE IF EXISTS participations;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MILESTONES & LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create milestone and leaderboard snapshot tables
-- Version: 002

CREATE TABLE IF NOT EXISTS milestones (
    id UUID PRIMARY KEY,
    participation_id UUID NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL DEFAULT '',
    metric VARCHAR(64) NOT NULL,
    target_value INTEGER NOT NULL,
    current_value INTEGER NOT NULL DEFAULT 0,
    points INTEGER NOT NULL DEFAULT 0,
    achieved BOOLEAN NOT NULL DEFAULT FALSE,
    achieved_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_target CHECK (target_value > 0),
    CONSTRAINT valid_points CHECK (points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_milestones_participation ON milestones(participation_id);
CREATE INDEX IF NOT EXISTS idx_milestones_achieved ON milestones(participation_id) WHERE achieved;

-- Snapshots are append-only; old ones are pruned by the rebuild job.
CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
    id UUID PRIMARY KEY,
    competition_id VARCHAR(64) NOT NULL,
    snapshot_at TIMESTAMP WITH TIME ZONE NOT NULL,
    total_participants INTEGER NOT NULL DEFAULT 0,
    total_score INTEGER NOT NULL DEFAULT 0,
    average_score INTEGER NOT NULL DEFAULT 0,
    entries JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_snapshots_competition_time ON leaderboard_snapshots(competition_id, snapshot_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS leaderboard_snapshots;
DROP TABLE IF EXISTS milestones;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ALERTS & INTERVENTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create alert and intervention tables
-- Version: 003

CREATE TABLE IF NOT EXISTS alerts (
    id UUID PRIMARY KEY,
    category VARCHAR(32) NOT NULL,
    severity VARCHAR(16) NOT NULL,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    subject_participant_id UUID,
    competition_id VARCHAR(64) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    actions JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    acknowledged_at TIMESTAMP WITH TIME ZONE,
    acknowledged_by VARCHAR(100) NOT NULL DEFAULT '',
    snoozed_until TIMESTAMP WITH TIME ZONE,
    resolved_at TIMESTAMP WITH TIME ZONE,
    resolved_by VARCHAR(100) NOT NULL DEFAULT '',
    resolution TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 1,

    CONSTRAINT valid_alert_status CHECK (status IN ('active', 'acknowledged', 'snoozed', 'resolved')),
    CONSTRAINT valid_alert_severity CHECK (severity IN ('info', 'low', 'medium', 'high', 'critical'))
);

CREATE INDEX IF NOT EXISTS idx_alerts_open ON alerts(competition_id, severity) WHERE status != 'resolved';
CREATE INDEX IF NOT EXISTS idx_alerts_subject ON alerts(subject_participant_id);
CREATE INDEX IF NOT EXISTS idx_alerts_snoozed ON alerts(snoozed_until) WHERE status = 'snoozed';

CREATE TABLE IF NOT EXISTS interventions (
    id UUID PRIMARY KEY,
    participant_id UUID NOT NULL,
    competition_id VARCHAR(64) NOT NULL DEFAULT '',
    alert_id UUID,
    type VARCHAR(32) NOT NULL,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    priority VARCHAR(16) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'planned',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_by VARCHAR(100) NOT NULL,
    scheduled_date TIMESTAMP WITH TIME ZONE,
    started_at TIMESTAMP WITH TIME ZONE,
    completed_date TIMESTAMP WITH TIME ZONE,
    outcome TEXT NOT NULL DEFAULT '',
    effectiveness INTEGER NOT NULL DEFAULT 0,
    follow_up_required BOOLEAN NOT NULL DEFAULT FALSE,
    follow_up_date TIMESTAMP WITH TIME ZONE,
    metrics JSONB NOT NULL DEFAULT '{}'::jsonb,
    notes JSONB NOT NULL DEFAULT '[]'::jsonb,
    cancel_reason TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 1,

    CONSTRAINT valid_intervention_status CHECK (status IN ('planned', 'in_progress', 'completed', 'cancelled')),
    CONSTRAINT valid_intervention_priority CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
    CONSTRAINT valid_effectiveness CHECK (effectiveness >= 0 AND effectiveness <= 5)
);

CREATE INDEX IF NOT EXISTS idx_interventions_competition ON interventions(competition_id);
CREATE INDEX IF NOT EXISTS idx_interventions_participant ON interventions(participant_id);
CREATE INDEX IF NOT EXISTS idx_interventions_followup ON interventions(follow_up_date) WHERE follow_up_required;
`

const migration003Down = `
DROP TABLE IF EXISTS interventions;
DROP TABLE IF EXISTS alerts;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_participations",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_milestones_leaderboard",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_alerts_interventions",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

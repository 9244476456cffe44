package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arena-hub/arena-progress-hub/internal/domain/leaderboard"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// Key patterns for the leaderboard cache.
const (
	// keySnapshot stores the latest full snapshot as a JSON document.
	keySnapshot = "leaderboard:snapshot:"

	// keyRanks is a hash mapping participant ID to rank.
	keyRanks = "leaderboard:ranks:"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// cachedEntry is the JSON shape of a cached leaderboard entry.
type cachedEntry struct {
	Rank           int       `json:"rank"`
	ParticipantID  string    `json:"participant_id"`
	DisplayName    string    `json:"display_name"`
	TotalScore     int       `json:"total_score"`
	EnrolledAt     time.Time `json:"enrolled_at"`
	Participations int       `json:"participations"`
	Achievements   int       `json:"achievements"`
	Badges         int       `json:"badges"`
	CurrentStreak  int       `json:"current_streak"`
	RankChange     int       `json:"rank_change"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// cachedSnapshot is the JSON shape of a cached snapshot.
type cachedSnapshot struct {
	ID                string        `json:"id"`
	CompetitionID     string        `json:"competition_id"`
	SnapshotAt        time.Time     `json:"snapshot_at"`
	TotalParticipants int           `json:"total_participants"`
	TotalScore        int           `json:"total_score"`
	AverageScore      int           `json:"average_score"`
	Entries           []cachedEntry `json:"entries"`
}

// LeaderboardCache implements leaderboard.Cache on top of Redis.
//
// Architecture:
//   - String "leaderboard:snapshot:{competition}" holds the full snapshot JSON
//   - Hash "leaderboard:ranks:{competition}" maps participantID -> rank
//
// The hash gives O(1) rank lookups without deserializing the whole snapshot.
// The cache is rebuilt wholesale on every leaderboard recompute.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// StoreSnapshot caches a snapshot and rebuilds the rank hash.
func (lc *LeaderboardCache) StoreSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	if snapshot == nil {
		return errors.New("leaderboard_cache: snapshot cannot be nil")
	}

	doc := cachedSnapshot{
		ID:                snapshot.ID,
		CompetitionID:     snapshot.CompetitionID.String(),
		SnapshotAt:        snapshot.SnapshotAt,
		TotalParticipants: snapshot.TotalParticipants,
		TotalScore:        snapshot.TotalScore,
		AverageScore:      int(snapshot.AverageScore),
		Entries:           make([]cachedEntry, 0, len(snapshot.Entries)),
	}

	ranks := make(map[string]interface{}, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		doc.Entries = append(doc.Entries, cachedEntry{
			Rank:           int(e.Rank),
			ParticipantID:  e.ParticipantID.String(),
			DisplayName:    e.DisplayName,
			TotalScore:     int(e.TotalScore),
			EnrolledAt:     e.EnrolledAt,
			Participations: e.Participations,
			Achievements:   e.Achievements,
			Badges:         e.Badges,
			CurrentStreak:  e.CurrentStreak,
			RankChange:     int(e.RankChange),
			UpdatedAt:      e.UpdatedAt,
		})
		ranks[e.ParticipantID.String()] = int(e.Rank)
	}

	competitionID := snapshot.CompetitionID.String()
	if err := lc.cache.Set(ctx, keySnapshot+competitionID, doc, TTLLeaderboardSnapshot); err != nil {
		return fmt.Errorf("leaderboard_cache: failed to store snapshot: %w", err)
	}

	// The rank hash is replaced atomically with a pipeline.
	client := lc.cache.Client()
	pipe := client.TxPipeline()
	pipe.Del(ctx, keyRanks+competitionID)
	if len(ranks) > 0 {
		pipe.HSet(ctx, keyRanks+competitionID, ranks)
	}
	pipe.Expire(ctx, keyRanks+competitionID, TTLRankIndex)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard_cache: failed to store rank index: %w", err)
	}
	return nil
}

// GetSnapshot returns the cached snapshot of a competition.
// Returns shared.ErrSnapshotNotFound on cache miss.
func (lc *LeaderboardCache) GetSnapshot(ctx context.Context, competitionID shared.CompetitionID) (*leaderboard.Snapshot, error) {
	var doc cachedSnapshot
	err := lc.cache.Get(ctx, keySnapshot+competitionID.String(), &doc)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("leaderboard_cache: failed to get snapshot: %w", err)
	}

	snapshot := &leaderboard.Snapshot{
		ID:                doc.ID,
		CompetitionID:     shared.CompetitionID(doc.CompetitionID),
		SnapshotAt:        doc.SnapshotAt,
		TotalParticipants: doc.TotalParticipants,
		TotalScore:        doc.TotalScore,
		AverageScore:      shared.Score(doc.AverageScore),
		Entries:           make([]*leaderboard.Entry, 0, len(doc.Entries)),
	}
	for _, e := range doc.Entries {
		snapshot.Entries = append(snapshot.Entries, &leaderboard.Entry{
			Rank:           leaderboard.Rank(e.Rank),
			ParticipantID:  shared.ParticipantID(e.ParticipantID),
			DisplayName:    e.DisplayName,
			TotalScore:     shared.Score(e.TotalScore),
			EnrolledAt:     e.EnrolledAt,
			Participations: e.Participations,
			Achievements:   e.Achievements,
			Badges:         e.Badges,
			CurrentStreak:  e.CurrentStreak,
			RankChange:     leaderboard.RankChange(e.RankChange),
			UpdatedAt:      e.UpdatedAt,
		})
	}
	snapshot.RebuildIndex()
	return snapshot, nil
}

// GetRank returns the cached rank of a participant (0 = not found).
func (lc *LeaderboardCache) GetRank(ctx context.Context, competitionID shared.CompetitionID, participantID shared.ParticipantID) (leaderboard.Rank, error) {
	val, err := lc.cache.Client().HGet(ctx, keyRanks+competitionID.String(), participantID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("leaderboard_cache: failed to get rank: %w", err)
	}

	rank, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("leaderboard_cache: corrupt rank value %q: %w", val, err)
	}
	return leaderboard.Rank(rank), nil
}

// Invalidate drops the cached leaderboard of a competition.
func (lc *LeaderboardCache) Invalidate(ctx context.Context, competitionID shared.CompetitionID) error {
	return lc.cache.Delete(ctx,
		keySnapshot+competitionID.String(),
		keyRanks+competitionID.String(),
	)
}

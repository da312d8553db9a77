package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/photoly-interactive/game/service"
)

// Round is a finished puzzle round in the database.
type Round struct {
	RoundID    string
	SessionID  string
	Round      int
	BoardSize  int
	Moves      int
	DurationMs int64
	Skipped    bool
	ImageIndex int
	FinishedAt time.Time
}

// RoundRepository provides access to finished rounds.
type RoundRepository struct {
	db *DB
}

// NewRoundRepository creates a new round repository.
func NewRoundRepository(db *DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// Create stores a finished round and returns its ID.
func (r *RoundRepository) Create(ctx context.Context, rec service.RoundRecord) (string, error) {
	id := uuid.New().String()
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rounds (round_id, session_id, round, board_size, moves, duration_ms, skipped, image_index, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, rec.SessionID, rec.Round, rec.BoardSize, rec.Moves, rec.Duration.Milliseconds(),
		boolToInt(rec.Skipped), rec.ImageIndex, finished.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to create round: %w", err)
	}
	return id, nil
}

// ListBySession returns a session's rounds, oldest first.
func (r *RoundRepository) ListBySession(ctx context.Context, sessionID string) ([]Round, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT round_id, session_id, round, board_size, moves, duration_ms, skipped, image_index, finished_at
		FROM rounds WHERE session_id = ?
		ORDER BY finished_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var rd Round
		var skipped int
		var finished string
		if err := rows.Scan(&rd.RoundID, &rd.SessionID, &rd.Round, &rd.BoardSize, &rd.Moves,
			&rd.DurationMs, &skipped, &rd.ImageIndex, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rd.Skipped = skipped != 0
		rd.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}

// roundSummary aggregates a session's rounds
type roundSummary struct {
	solved         int
	skipped        int
	bestMoves      int
	averageMoves   float64
	averageSeconds float64
}

// summary aggregates a session's rounds. Averages cover solved rounds only.
func (r *RoundRepository) summary(ctx context.Context, sessionID string) (roundSummary, error) {
	var s roundSummary
	var best, avgMoves, avgMs *float64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN skipped = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN skipped = 1 THEN 1 ELSE 0 END), 0),
			MIN(CASE WHEN skipped = 0 THEN moves END),
			AVG(CASE WHEN skipped = 0 THEN moves END),
			AVG(CASE WHEN skipped = 0 THEN duration_ms END)
		FROM rounds WHERE session_id = ?
	`, sessionID).Scan(&s.solved, &s.skipped, &best, &avgMoves, &avgMs)
	if err != nil {
		return s, fmt.Errorf("failed to summarise rounds: %w", err)
	}
	if best != nil {
		s.bestMoves = int(*best)
	}
	if avgMoves != nil {
		s.averageMoves = *avgMoves
	}
	if avgMs != nil {
		s.averageSeconds = *avgMs / 1000
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/photoly-interactive/game/service"
)

// AlignmentRepository provides access to completed cube snaps.
type AlignmentRepository struct {
	db *DB
}

// NewAlignmentRepository creates a new alignment repository.
func NewAlignmentRepository(db *DB) *AlignmentRepository {
	return &AlignmentRepository{db: db}
}

// Create stores a completed alignment and returns its ID.
func (r *AlignmentRepository) Create(ctx context.Context, rec service.AlignmentRecord) (string, error) {
	id := uuid.New().String()
	at := rec.AlignedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alignments (alignment_id, session_id, face, face_name, score, aligned_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, rec.SessionID, int(rec.Face), rec.Face.String(), rec.Score, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to create alignment: %w", err)
	}
	return id, nil
}

// CountByFace returns how often each face was expanded in a session.
func (r *AlignmentRepository) CountByFace(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT face_name, COUNT(*) FROM alignments
		WHERE session_id = ?
		GROUP BY face_name
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count alignments: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan alignment count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

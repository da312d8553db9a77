package storage

import (
	"context"

	"github.com/wricardo/photoly-interactive/game/service"
)

// StatsStore implements service.StatsStore on SQLite
type StatsStore struct {
	rounds     *RoundRepository
	alignments *AlignmentRepository
}

var _ service.StatsStore = (*StatsStore)(nil)

// NewStatsStore creates a stats store backed by db
func NewStatsStore(db *DB) *StatsStore {
	return &StatsStore{
		rounds:     NewRoundRepository(db),
		alignments: NewAlignmentRepository(db),
	}
}

// RecordRound stores a finished round
func (s *StatsStore) RecordRound(ctx context.Context, r service.RoundRecord) error {
	_, err := s.rounds.Create(ctx, r)
	return err
}

// RecordAlignment stores a completed cube snap
func (s *StatsStore) RecordAlignment(ctx context.Context, a service.AlignmentRecord) error {
	_, err := s.alignments.Create(ctx, a)
	return err
}

// SessionStats summarises everything recorded for a session
func (s *StatsStore) SessionStats(ctx context.Context, sessionID string) (*service.Stats, error) {
	sum, err := s.rounds.summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	counts, err := s.alignments.CountByFace(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &service.Stats{
		SessionID:      sessionID,
		RoundsSolved:   sum.solved,
		RoundsSkipped:  sum.skipped,
		BestMoves:      sum.bestMoves,
		AverageMoves:   sum.averageMoves,
		AverageSeconds: sum.averageSeconds,
		Alignments:     counts,
	}, nil
}

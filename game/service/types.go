package service

import (
	"time"

	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/puzzle"
	"github.com/wricardo/photoly-interactive/game/studio"
)

// Reason codes reported when an operation was a no-op
const (
	ReasonInvalidMove  = "invalid_move"
	ReasonRoundSolved  = "round_solved"
	ReasonPrecondition = "precondition_not_met"
)

// Event types published to subscribers
const (
	EventPuzzleMoved        = "puzzle_moved"
	EventPuzzleSolved       = "puzzle_solved"
	EventPuzzleSkipped      = "puzzle_skipped"
	EventPuzzleRoundStarted = "puzzle_round_started"
	EventCubeFrontChanged   = "cube_front_changed"
	EventCubeSnapStarted    = "cube_snap_started"
	EventCubeExpand         = "cube_expand"
	EventCubeReleased       = "cube_released"
	EventCubeFrame          = "cube_frame"
	EventSessionDeleted     = "session_deleted"
)

// SessionInfo provides information about a studio session
type SessionInfo struct {
	ID             string         `json:"id"`
	ConfigName     string         `json:"config_name"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	Puzzle         *PuzzleView    `json:"puzzle"`
	Cube           *CubeView      `json:"cube"`
	Config         *studio.Config `json:"config,omitempty"`
}

// PuzzleView is the renderer-facing state of a session's puzzle
type PuzzleView struct {
	puzzle.Snapshot
	Phase          puzzle.Phase      `json:"phase"`
	Round          int               `json:"round"`
	ImageIndex     int               `json:"image_index"`
	Image          string            `json:"image,omitempty"`
	ImageAvailable bool              `json:"image_available"`
	SolvedCount    int               `json:"solved_count"`
	SkippedCount   int               `json:"skipped_count"`
	Moves          int               `json:"moves"`
	ValidMoves     []int             `json:"valid_moves"`
	Distance       int               `json:"manhattan_distance"`
	Layout         []puzzle.TileView `json:"layout"`
	NextRoundInMs  int               `json:"next_round_in_ms,omitempty"`
}

// CubeView is the renderer-facing state of a session's cube
type CubeView struct {
	Phase       cube.Phase              `json:"phase"`
	Rotation    cube.Euler              `json:"rotation"`
	Velocity    cube.Vec2               `json:"velocity"`
	FrontFace   cube.Face               `json:"front_face"`
	FrontName   string                  `json:"front_face_name"`
	FrontScore  float64                 `json:"front_score"`
	Scores      [cube.FaceCount]float64 `json:"scores"`
	AlignedFace cube.Face               `json:"aligned_face"`
	Expanded    *studio.FaceContent     `json:"expanded,omitempty"`
}

// PuzzleResult contains the result of a puzzle operation
type PuzzleResult struct {
	Success bool        `json:"success"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message"`
	Tile    int         `json:"tile,omitempty"`
	Puzzle  *PuzzleView `json:"puzzle"`
	Events  []GameEvent `json:"events,omitempty"`
}

// CubeResult contains the result of a cube operation
type CubeResult struct {
	Success bool        `json:"success"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message"`
	Cube    *CubeView   `json:"cube"`
	Events  []GameEvent `json:"events,omitempty"`
}

// GameEvent represents something that happened in a session
type GameEvent struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	Message   string              `json:"message"`
	Timestamp time.Time           `json:"timestamp"`
	Puzzle    *puzzle.Snapshot    `json:"puzzle,omitempty"`
	Round     int                 `json:"round,omitempty"`
	Moves     int                 `json:"moves,omitempty"`
	Face      *cube.Face          `json:"face,omitempty"`
	Score     float64             `json:"score,omitempty"`
	Rotation  *cube.Euler         `json:"rotation,omitempty"`
	Content   *studio.FaceContent `json:"content,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history for the current round
type HistoryResponse struct {
	Moves       []puzzle.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a studio preset
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`
	Description  string `json:"description"`
	BoardSize    int    `json:"board_size"`
	ShuffleMoves int    `json:"shuffle_moves"`
	Images       int    `json:"images"`
	Faces        int    `json:"faces"`
}

// NewConfigInfo summarises a preset
func NewConfigInfo(filename, id string, c *studio.Config) *ConfigInfo {
	return &ConfigInfo{
		Filename:     filename,
		ConfigID:     id,
		Name:         c.Name,
		Description:  c.Description,
		BoardSize:    c.Puzzle.Size,
		ShuffleMoves: c.Puzzle.Moves(),
		Images:       len(c.Puzzle.Images),
		Faces:        len(c.Cube.Faces),
	}
}

// RoundRecord is a finished puzzle round
type RoundRecord struct {
	SessionID  string
	Round      int
	BoardSize  int
	Moves      int
	Duration   time.Duration
	Skipped    bool
	ImageIndex int
	FinishedAt time.Time
}

// AlignmentRecord is a completed cube snap
type AlignmentRecord struct {
	SessionID string
	Face      cube.Face
	Score     float64
	AlignedAt time.Time
}

// Stats summarises a session's play history
type Stats struct {
	SessionID      string         `json:"session_id"`
	RoundsSolved   int            `json:"rounds_solved"`
	RoundsSkipped  int            `json:"rounds_skipped"`
	BestMoves      int            `json:"best_moves,omitempty"`
	AverageMoves   float64        `json:"average_moves,omitempty"`
	AverageSeconds float64        `json:"average_seconds,omitempty"`
	Alignments     map[string]int `json:"alignments"`
}

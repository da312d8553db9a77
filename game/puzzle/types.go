package puzzle

import (
	"errors"
	"strings"
)

// Direction is a swipe direction as reported by the input layer
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Board constants
	DefaultSize          = 4
	MinSize              = 2
	MaxSize              = 10
	DefaultShuffleMoves  = 150
	MaxShuffleMoves      = 10000
	SwipeThresholdPixels = 30
	EmptyTile            = 0
)

// Directions lists the swipe directions in the order neighbours are reported
var Directions = []Direction{Up, Down, Left, Right}

var (
	// ErrInvalidMove is returned when the target tile is not adjacent to the empty cell
	ErrInvalidMove = errors.New("invalid move")
	// ErrInvalidConfiguration is returned for boards that cannot be built
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrRoundSolved is returned when input arrives after the round was solved
	ErrRoundSolved = errors.New("round already solved")
	// ErrInvalidDirection is returned for unknown swipe directions
	ErrInvalidDirection = errors.New("invalid direction")
)

// Phase is the round state
type Phase string

const (
	PhaseUnsolved Phase = "unsolved"
	PhaseSolved   Phase = "solved"
)

// Snapshot is a read-only copy of a board
type Snapshot struct {
	Size       int   `json:"size"`
	Tiles      []int `json:"tiles"`
	EmptyIndex int   `json:"empty_index"`
	Solved     bool  `json:"solved"`
}

// MoveHistoryEntry represents a single move attempt within a round
type MoveHistoryEntry struct {
	Action     string `json:"action"`
	Tile       int    `json:"tile"`
	FromIndex  int    `json:"from_index"`
	ToIndex    int    `json:"to_index"`
	Timestamp  int64  `json:"timestamp"`
	Success    bool   `json:"success"`
	MoveNumber int    `json:"move_number"`
}

// EventType names the notifications an Engine emits
type EventType string

const (
	EventMoved        EventType = "moved"
	EventSolved       EventType = "solved"
	EventSkipped      EventType = "skipped"
	EventRoundStarted EventType = "round_started"
)

// Event is delivered to the engine listener after a state change
type Event struct {
	Type       EventType `json:"type"`
	Round      int       `json:"round"`
	ImageIndex int       `json:"image_index"`
	Moves      int       `json:"moves"`
	Snapshot   Snapshot  `json:"snapshot"`
}

// State is the persisted form of an Engine
type State struct {
	Board        Snapshot           `json:"board"`
	Phase        Phase              `json:"phase"`
	Round        int                `json:"round"`
	ImageIndex   int                `json:"image_index"`
	SolvedCount  int                `json:"solved_count"`
	SkippedCount int                `json:"skipped_count"`
	Moves        int                `json:"moves"`
	RoundStarted int64              `json:"round_started"`
	History      []MoveHistoryEntry `json:"history"`
}

// ParseDirection converts user input into a Direction
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", ErrInvalidDirection
}

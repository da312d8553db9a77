package puzzle

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Engine provides the round-level operations of the sliding puzzle
type Engine interface {
	// Board access
	Board() *Board
	Snapshot() Snapshot
	Layout() []TileView
	Phase() Phase

	// Input
	Move(index int) (Snapshot, error)
	Click(index int) (Snapshot, error)
	Swipe(dir Direction) (Snapshot, error)
	Skip() Snapshot
	NextRound() Snapshot

	// Round info
	Round() int
	ImageIndex() int
	Image() string
	SolvedCount() int
	Moves() int

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Persistence
	State() State
	Restore(state State) error

	// Notifications
	OnEvent(listener func(Event))
}

// Config holds what the engine needs to build rounds
type Config struct {
	Size         int      `json:"size"`
	ShuffleMoves int      `json:"shuffle_moves"`
	Images       []string `json:"images"`
}

// DefaultConfig returns the stock 4x4 configuration
func DefaultConfig() Config {
	return Config{Size: DefaultSize, ShuffleMoves: DefaultShuffleMoves}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Size < MinSize || c.Size > MaxSize {
		return fmt.Errorf("%w: size must be between %d and %d, got %d", ErrInvalidConfiguration, MinSize, MaxSize, c.Size)
	}
	if c.ShuffleMoves < 0 || c.ShuffleMoves > MaxShuffleMoves {
		return fmt.Errorf("%w: shuffle_moves must be between 0 and %d, got %d", ErrInvalidConfiguration, MaxShuffleMoves, c.ShuffleMoves)
	}
	return nil
}

// PuzzleEngine implements the Engine interface.
// It is not safe for concurrent use; callers serialise input.
type PuzzleEngine struct {
	config   Config
	rng      *rand.Rand
	board    *Board
	phase    Phase
	listener func(Event)

	round        int
	imageIndex   int
	solvedCount  int
	skippedCount int
	moves        int
	roundStarted int64
	history      []MoveHistoryEntry
}

// NewRand returns a generator seeded from the clock
func NewRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// NewEngine creates an engine and starts the first round.
// A nil rng is replaced by a clock-seeded generator.
func NewEngine(config Config, rng *rand.Rand) (*PuzzleEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand()
	}

	e := &PuzzleEngine{config: config, rng: rng}
	board, err := e.freshBoard()
	if err != nil {
		return nil, err
	}
	e.board = board
	e.phase = phaseOf(board)
	e.round = 1
	e.roundStarted = time.Now().Unix()
	e.history = []MoveHistoryEntry{}
	return e, nil
}

// freshBoard builds a shuffled board that is not already solved
func (e *PuzzleEngine) freshBoard() (*Board, error) {
	board, err := New(e.config.Size)
	if err != nil {
		return nil, err
	}
	if e.config.ShuffleMoves == 0 {
		return board, nil
	}

	board.Shuffle(e.config.ShuffleMoves, e.rng)
	for board.IsSolved() {
		board.Shuffle(e.config.ShuffleMoves, e.rng)
	}
	return board, nil
}

// phaseOf derives the round phase from the board; a board built with
// zero shuffle moves starts solved
func phaseOf(b *Board) Phase {
	if b.IsSolved() {
		return PhaseSolved
	}
	return PhaseUnsolved
}

// OnEvent registers the listener that receives state changes
func (e *PuzzleEngine) OnEvent(listener func(Event)) {
	e.listener = listener
}

func (e *PuzzleEngine) emit(t EventType) {
	if e.listener == nil {
		return
	}
	e.listener(Event{
		Type:       t,
		Round:      e.round,
		ImageIndex: e.imageIndex,
		Moves:      e.moves,
		Snapshot:   e.board.Snapshot(),
	})
}

// Config returns the engine configuration
func (e *PuzzleEngine) Config() Config {
	return e.config
}

// Board returns the live board
func (e *PuzzleEngine) Board() *Board {
	return e.board
}

// Snapshot returns a copy of the current board
func (e *PuzzleEngine) Snapshot() Snapshot {
	return e.board.Snapshot()
}

// Layout returns the render descriptors for the current board
func (e *PuzzleEngine) Layout() []TileView {
	return Layout(e.board)
}

// Phase returns the round phase
func (e *PuzzleEngine) Phase() Phase {
	return e.phase
}

// Move slides the tile at index into the empty cell
func (e *PuzzleEngine) Move(index int) (Snapshot, error) {
	return e.apply("move", index)
}

// Click is the pointer form of Move
func (e *PuzzleEngine) Click(index int) (Snapshot, error) {
	return e.apply("click", index)
}

// Swipe moves the tile selected by dir
func (e *PuzzleEngine) Swipe(dir Direction) (Snapshot, error) {
	if _, err := ParseDirection(string(dir)); err != nil {
		return e.board.Snapshot(), fmt.Errorf("%w: %q", err, dir)
	}
	action := "swipe_" + string(dir)

	target, ok := e.board.SwipeTarget(dir)
	if !ok {
		e.record(action, -1, false)
		if e.phase == PhaseSolved {
			return e.board.Snapshot(), ErrRoundSolved
		}
		return e.board.Snapshot(), fmt.Errorf("%w: nothing to swipe %s", ErrInvalidMove, dir)
	}
	return e.apply(action, target)
}

func (e *PuzzleEngine) apply(action string, index int) (Snapshot, error) {
	if e.phase == PhaseSolved {
		e.record(action, index, false)
		return e.board.Snapshot(), ErrRoundSolved
	}

	tile, to := e.board.TileAt(index), e.board.EmptyIndex()
	if err := e.board.Move(index); err != nil {
		e.record(action, index, false)
		return e.board.Snapshot(), err
	}

	e.moves++
	e.history = append(e.history, MoveHistoryEntry{
		Action:     action,
		Tile:       tile,
		FromIndex:  index,
		ToIndex:    to,
		Timestamp:  time.Now().Unix(),
		Success:    true,
		MoveNumber: len(e.history) + 1,
	})
	e.emit(EventMoved)

	if e.board.IsSolved() {
		e.phase = PhaseSolved
		e.solvedCount++
		e.emit(EventSolved)
	}
	return e.board.Snapshot(), nil
}

// record appends a rejected attempt to the history
func (e *PuzzleEngine) record(action string, index int, success bool) {
	e.history = append(e.history, MoveHistoryEntry{
		Action:     action,
		Tile:       e.board.TileAt(index),
		FromIndex:  index,
		ToIndex:    e.board.EmptyIndex(),
		Timestamp:  time.Now().Unix(),
		Success:    success,
		MoveNumber: len(e.history) + 1,
	})
}

// Skip solves the board without counting it as a solve
func (e *PuzzleEngine) Skip() Snapshot {
	if e.phase == PhaseSolved {
		return e.board.Snapshot()
	}
	e.board.SolveInstantly()
	e.phase = PhaseSolved
	e.skippedCount++
	e.emit(EventSkipped)
	return e.board.Snapshot()
}

// NextRound replaces the board with a freshly shuffled one and advances the image
func (e *PuzzleEngine) NextRound() Snapshot {
	// config was validated in NewEngine
	board, _ := e.freshBoard()
	e.board = board
	e.phase = phaseOf(board)
	e.round++
	if n := len(e.config.Images); n > 0 {
		e.imageIndex = (e.imageIndex + 1) % n
	}
	e.moves = 0
	e.roundStarted = time.Now().Unix()
	e.history = []MoveHistoryEntry{}
	e.emit(EventRoundStarted)
	return e.board.Snapshot()
}

// Round returns the 1-based round number
func (e *PuzzleEngine) Round() int {
	return e.round
}

// ImageIndex returns the index of the image used this round
func (e *PuzzleEngine) ImageIndex() int {
	return e.imageIndex
}

// Image returns the image URL for this round, or "" when none is configured
func (e *PuzzleEngine) Image() string {
	if len(e.config.Images) == 0 {
		return ""
	}
	return e.config.Images[e.imageIndex%len(e.config.Images)]
}

// SolvedCount returns how many rounds were solved by moves
func (e *PuzzleEngine) SolvedCount() int {
	return e.solvedCount
}

// SkippedCount returns how many rounds were skipped
func (e *PuzzleEngine) SkippedCount() int {
	return e.skippedCount
}

// Moves returns the number of successful moves this round
func (e *PuzzleEngine) Moves() int {
	return e.moves
}

// RoundStarted returns the unix time the current round began
func (e *PuzzleEngine) RoundStarted() int64 {
	return e.roundStarted
}

// GetMoveHistory returns the move attempts of the current round
func (e *PuzzleEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last move attempt, or nil if there is none
func (e *PuzzleEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// State returns the persisted form of the engine
func (e *PuzzleEngine) State() State {
	history := make([]MoveHistoryEntry, len(e.history))
	copy(history, e.history)
	return State{
		Board:        e.board.Snapshot(),
		Phase:        e.phase,
		Round:        e.round,
		ImageIndex:   e.imageIndex,
		SolvedCount:  e.solvedCount,
		SkippedCount: e.skippedCount,
		Moves:        e.moves,
		RoundStarted: e.roundStarted,
		History:      history,
	}
}

// Restore replaces the engine state (used for persistence loading)
func (e *PuzzleEngine) Restore(state State) error {
	if state.Board.Size != e.config.Size {
		return fmt.Errorf("%w: saved board is %dx%d, engine is %dx%d",
			ErrInvalidConfiguration, state.Board.Size, state.Board.Size, e.config.Size, e.config.Size)
	}
	board, err := FromTiles(state.Board.Size, state.Board.Tiles)
	if err != nil {
		return fmt.Errorf("restoring board: %w", err)
	}

	e.board = board
	e.phase = phaseOf(board)
	e.round = state.Round
	if e.round < 1 {
		e.round = 1
	}
	e.imageIndex = state.ImageIndex
	e.solvedCount = state.SolvedCount
	e.skippedCount = state.SkippedCount
	e.moves = state.Moves
	e.roundStarted = state.RoundStarted
	e.history = state.History
	if e.history == nil {
		e.history = []MoveHistoryEntry{}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/wricardo/photoly-interactive/game/assets"
	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/puzzle"
	"github.com/wricardo/photoly-interactive/game/studio"
)

var (
	// ErrSessionNotFound is returned when a session ID is unknown
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput is returned for malformed directions, faces and the like
	ErrInvalidInput = errors.New("invalid input")
)

// StudioService defines all studio widget operations
type StudioService interface {
	// Session Management
	CreateSession(ctx context.Context, configID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Puzzle
	PuzzleState(ctx context.Context, sessionID string) (*PuzzleView, error)
	PuzzleMove(ctx context.Context, sessionID string, index int) (*PuzzleResult, error)
	PuzzleSwipe(ctx context.Context, sessionID, direction string) (*PuzzleResult, error)
	PuzzleSkip(ctx context.Context, sessionID string) (*PuzzleResult, error)
	PuzzleNextRound(ctx context.Context, sessionID string) (*PuzzleResult, error)
	PuzzleHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Cube
	CubeState(ctx context.Context, sessionID string) (*CubeView, error)
	CubePointerDown(ctx context.Context, sessionID string) (*CubeResult, error)
	CubeDrag(ctx context.Context, sessionID string, dx, dy float64) (*CubeResult, error)
	CubePointerUp(ctx context.Context, sessionID string) (*CubeResult, error)
	CubeStep(ctx context.Context, sessionID string, frames int, dt float64) (*CubeResult, error)
	CubeSnap(ctx context.Context, sessionID, face string) (*CubeResult, error)
	CubeRelease(ctx context.Context, sessionID string) (*CubeResult, error)

	// Stats
	Stats(ctx context.Context, sessionID string) (*Stats, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configID string) (*studio.Config, error)
	SaveConfig(ctx context.Context, configID string, config *studio.Config) error

	// Animation
	RunFrameLoop(ctx context.Context, fps int)

	// Flush persists every session while no operation is running
	Flush(ctx context.Context) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *studio.Config) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	SaveAllSessions() error
}

// ConfigManager handles studio preset loading
type ConfigManager interface {
	LoadConfig(name string) (*studio.Config, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *studio.Config
	SaveConfig(name string, config *studio.Config) error
}

// StatsStore records finished rounds and cube alignments
type StatsStore interface {
	RecordRound(ctx context.Context, r RoundRecord) error
	RecordAlignment(ctx context.Context, a AlignmentRecord) error
	SessionStats(ctx context.Context, sessionID string) (*Stats, error)
}

// Publisher receives session events, typically the websocket hub
type Publisher interface {
	Publish(event GameEvent)
}

// AssetProber checks whether image URLs can be loaded
type AssetProber interface {
	Probe(ctx context.Context, urls []string) ([]assets.Result, error)
}

// Session represents an active studio session
type Session struct {
	ID             string
	ConfigID       string
	Config         *studio.Config
	Puzzle         *puzzle.PuzzleEngine
	Cube           *cube.Tracker
	CreatedAt      time.Time

	// Unavailable holds image URLs the asset probe could not load
	Unavailable map[string]bool

	// unix nanoseconds, touched by readers holding only a read lock
	lastAccessed atomic.Int64
}

// LastAccessed returns when the session was last used
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}

// NewSession builds the engines for a preset
func NewSession(id, configID string, config *studio.Config) (*Session, error) {
	if err := studio.ValidateConfig(config); err != nil {
		return nil, err
	}

	pz, err := puzzle.NewEngine(config.Puzzle.EngineConfig(), nil)
	if err != nil {
		return nil, err
	}
	tr, err := cube.NewTracker(config.Cube.Settings)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:          id,
		ConfigID:    configID,
		Config:      config,
		Puzzle:      pz,
		Cube:        tr,
		CreatedAt:   now,
		Unavailable: map[string]bool{},
	}
	sess.Touch(now)
	return sess, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/puzzle"
	"github.com/wricardo/photoly-interactive/game/studio"
)

// MaxStepFrames caps how many frames one CubeStep call may advance
const MaxStepFrames = 600

// studioServiceImpl implements the StudioService interface
type studioServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	publisher Publisher
	stats     StatsStore
	prober    AssetProber
	log       zerolog.Logger

	mu      sync.RWMutex
	pending map[string]*pendingRound
}

// pendingRound is an auto-advance scheduled after a round was finished
type pendingRound struct {
	round int
	due   time.Time
	timer *time.Timer
}

// Option configures the studio service
type Option func(*studioServiceImpl)

// WithPublisher sends session events to p
func WithPublisher(p Publisher) Option {
	return func(s *studioServiceImpl) { s.publisher = p }
}

// WithStatsStore records finished rounds and alignments in store
func WithStatsStore(store StatsStore) Option {
	return func(s *studioServiceImpl) { s.stats = store }
}

// WithAssetProber checks preset images when sessions are created
func WithAssetProber(p AssetProber) Option {
	return func(s *studioServiceImpl) { s.prober = p }
}

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *studioServiceImpl) { s.log = l }
}

// NewStudioService creates a new studio service instance
func NewStudioService(sessions SessionManager, configs ConfigManager, opts ...Option) StudioService {
	s := &studioServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      zerolog.Nop(),
		pending:  make(map[string]*pendingRound),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given preset name, used for consistent API responses
func (s *studioServiceImpl) getConfigID(configName string) string {
	available, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range available {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *studioServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionNotFound, sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a new studio session
func (s *studioServiceImpl) CreateSession(ctx context.Context, configID string) (*SessionInfo, error) {
	var config *studio.Config
	var err error
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			available, listErr := s.configs.ListConfigs()
			if listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, cfg := range available {
					ids = append(ids, cfg.ConfigID)
				}
				return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configID, err, ids)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// probe outside the lock, it may take a while
	unavailable := s.probeAssets(ctx, config)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	for _, u := range unavailable {
		sess.Unavailable[u] = true
	}
	s.scheduleUnshuffledRound(sess)

	s.log.Info().Str("session", sess.ID).Str("config", configID).Int("unavailable_images", len(unavailable)).Msg("session created")
	return s.sessionInfo(sess), nil
}

func (s *studioServiceImpl) probeAssets(ctx context.Context, config *studio.Config) []string {
	if s.prober == nil || !config.ProbeAssets {
		return nil
	}

	urls := make([]string, 0, len(config.Puzzle.Images)+len(config.Cube.Faces))
	urls = append(urls, config.Puzzle.Images...)
	for _, f := range config.Cube.Faces {
		if f.Image != "" {
			urls = append(urls, f.Image)
		}
	}

	results, err := s.prober.Probe(ctx, urls)
	if err != nil {
		s.log.Warn().Err(err).Msg("asset probe incomplete")
	}
	var unavailable []string
	for _, r := range results {
		if r.URL != "" && !r.Available {
			unavailable = append(unavailable, r.URL)
		}
	}
	return unavailable
}

// GetSession retrieves session information
func (s *studioServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *studioServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *studioServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.cancelPending(sessionID)
	s.publish(GameEvent{
		Type:      EventSessionDeleted,
		SessionID: strings.ToLower(sessionID),
		Message:   "Session deleted",
		Timestamp: time.Now(),
	})
	return nil
}

// PuzzleState returns the renderer view of the puzzle
func (s *studioServiceImpl) PuzzleState(ctx context.Context, sessionID string) (*PuzzleView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.puzzleView(sess), nil
}

// PuzzleMove slides the tile at index into the empty cell
func (s *studioServiceImpl) PuzzleMove(ctx context.Context, sessionID string, index int) (*PuzzleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	tile := sess.Puzzle.Board().TileAt(index)
	rec := s.attach(sess)
	_, moveErr := sess.Puzzle.Move(index)
	return s.puzzleResult(ctx, sess, rec, tile, moveErr, fmt.Sprintf("Moved tile %d", tile))
}

// PuzzleSwipe moves the tile selected by a swipe direction
func (s *studioServiceImpl) PuzzleSwipe(ctx context.Context, sessionID, direction string) (*PuzzleResult, error) {
	dir, err := puzzle.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	tile := -1
	if target, ok := sess.Puzzle.Board().SwipeTarget(dir); ok {
		tile = sess.Puzzle.Board().TileAt(target)
	}
	rec := s.attach(sess)
	_, moveErr := sess.Puzzle.Swipe(dir)
	return s.puzzleResult(ctx, sess, rec, tile, moveErr, fmt.Sprintf("Swiped %s, moved tile %d", dir, tile))
}

// PuzzleSkip solves the current round without counting it
func (s *studioServiceImpl) PuzzleSkip(ctx context.Context, sessionID string) (*PuzzleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var skipErr error
	if sess.Puzzle.Phase() == puzzle.PhaseSolved {
		skipErr = puzzle.ErrRoundSolved
	}
	rec := s.attach(sess)
	sess.Puzzle.Skip()
	return s.puzzleResult(ctx, sess, rec, 0, skipErr, fmt.Sprintf("Round %d skipped", sess.Puzzle.Round()))
}

// PuzzleNextRound starts a freshly shuffled round immediately
func (s *studioServiceImpl) PuzzleNextRound(ctx context.Context, sessionID string) (*PuzzleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.cancelPending(sess.ID)
	rec := s.attach(sess)
	sess.Puzzle.NextRound()
	return s.puzzleResult(ctx, sess, rec, 0, nil, fmt.Sprintf("Round %d started", sess.Puzzle.Round()))
}

// puzzleResult turns an engine outcome into a result. Engine rejections
// become unsuccessful results with a reason code; anything else is returned
// as an error.
func (s *studioServiceImpl) puzzleResult(ctx context.Context, sess *Session, rec *recorder, tile int, opErr error, okMsg string) (*PuzzleResult, error) {
	s.finish(ctx, sess, rec, true)

	result := &PuzzleResult{
		Success: opErr == nil,
		Message: okMsg,
		Puzzle:  s.puzzleView(sess),
		Events:  rec.events,
	}
	if opErr == nil {
		if tile > 0 {
			result.Tile = tile
		}
		return result, nil
	}

	reason := reasonFor(opErr)
	if reason == "" {
		return nil, opErr
	}
	result.Reason = reason
	result.Message = opErr.Error()
	return result, nil
}

// PuzzleHistory returns paginated move attempts for the current round
func (s *studioServiceImpl) PuzzleHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Puzzle.GetMoveHistory()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []puzzle.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// CubeState returns the renderer view of the cube
func (s *studioServiceImpl) CubeState(ctx context.Context, sessionID string) (*CubeView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return cubeView(sess), nil
}

// CubePointerDown starts a drag
func (s *studioServiceImpl) CubePointerDown(ctx context.Context, sessionID string) (*CubeResult, error) {
	return s.cubeOp(ctx, sessionID, "Drag started", func(t *cube.Tracker) error {
		return t.BeginDrag()
	})
}

// CubeDrag applies a pointer delta in pixels
func (s *studioServiceImpl) CubeDrag(ctx context.Context, sessionID string, dx, dy float64) (*CubeResult, error) {
	return s.cubeOp(ctx, sessionID, fmt.Sprintf("Dragged (%.0f, %.0f)", dx, dy), func(t *cube.Tracker) error {
		return t.ApplyDrag(dx, dy)
	})
}

// CubePointerUp ends a drag and hands over to momentum
func (s *studioServiceImpl) CubePointerUp(ctx context.Context, sessionID string) (*CubeResult, error) {
	return s.cubeOp(ctx, sessionID, "Drag ended", func(t *cube.Tracker) error {
		return t.EndDrag()
	})
}

// CubeStep advances the animation by frames steps of dt seconds
func (s *studioServiceImpl) CubeStep(ctx context.Context, sessionID string, frames int, dt float64) (*CubeResult, error) {
	if frames < 1 {
		frames = 1
	}
	if frames > MaxStepFrames {
		frames = MaxStepFrames
	}
	if dt <= 0 {
		dt = 1.0 / 60
	}
	return s.cubeOp(ctx, sessionID, fmt.Sprintf("Advanced %d frames", frames), func(t *cube.Tracker) error {
		for i := 0; i < frames; i++ {
			t.Step(dt)
		}
		return nil
	})
}

// CubeSnap asks the cube to align the named face with the viewer
func (s *studioServiceImpl) CubeSnap(ctx context.Context, sessionID, face string) (*CubeResult, error) {
	f, err := cube.ParseFace(face)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.cubeOp(ctx, sessionID, fmt.Sprintf("Snapping to %s", f), func(t *cube.Tracker) error {
		return t.RequestSnap(f)
	})
}

// CubeRelease closes the expanded face
func (s *studioServiceImpl) CubeRelease(ctx context.Context, sessionID string) (*CubeResult, error) {
	return s.cubeOp(ctx, sessionID, "Released", func(t *cube.Tracker) error {
		return t.Release()
	})
}

func (s *studioServiceImpl) cubeOp(ctx context.Context, sessionID, okMsg string, op func(*cube.Tracker) error) (*CubeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	rec := s.attach(sess)
	opErr := op(sess.Cube)
	s.finish(ctx, sess, rec, true)

	result := &CubeResult{
		Success: opErr == nil,
		Message: okMsg,
		Cube:    cubeView(sess),
		Events:  rec.events,
	}
	if opErr != nil {
		reason := reasonFor(opErr)
		if reason == "" {
			return nil, opErr
		}
		result.Reason = reason
		result.Message = opErr.Error()
	}
	return result, nil
}

// Stats summarises a session's history. Without a stats store only the
// in-memory counters of a live session are available.
func (s *studioServiceImpl) Stats(ctx context.Context, sessionID string) (*Stats, error) {
	if s.stats != nil {
		return s.stats.SessionStats(ctx, strings.ToLower(sessionID))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		SessionID:     sess.ID,
		RoundsSolved:  sess.Puzzle.SolvedCount(),
		RoundsSkipped: sess.Puzzle.SkippedCount(),
		Alignments:    map[string]int{},
	}, nil
}

// ListConfigs returns all available presets
func (s *studioServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific preset
func (s *studioServiceImpl) LoadConfig(ctx context.Context, configID string) (*studio.Config, error) {
	return s.configs.LoadConfig(configID)
}

// SaveConfig saves a preset to disk
func (s *studioServiceImpl) SaveConfig(ctx context.Context, configID string, config *studio.Config) error {
	return s.configs.SaveConfig(configID, config)
}

// RunFrameLoop steps every session's cube at fps until ctx is cancelled
func (s *studioServiceImpl) RunFrameLoop(ctx context.Context, fps int) {
	if fps <= 0 {
		fps = 60
	}
	dt := 1.0 / float64(fps)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	s.log.Debug().Int("fps", fps).Msg("frame loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("frame loop stopped")
			return
		case <-ticker.C:
			s.tick(ctx, dt)
		}
	}
}

// Flush persists every session under the service lock
func (s *studioServiceImpl) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.SaveAllSessions()
}

func (s *studioServiceImpl) tick(ctx context.Context, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions.List() {
		if sess.Cube.Phase() == cube.PhaseAligned {
			continue
		}
		rec := s.attach(sess)
		sess.Cube.Step(dt)

		rot := sess.Cube.Rotation()
		face, score := sess.Cube.FrontFace()
		s.publish(GameEvent{
			Type:      EventCubeFrame,
			SessionID: sess.ID,
			Timestamp: time.Now(),
			Face:      &face,
			Score:     score,
			Rotation:  &rot,
		})
		s.finish(ctx, sess, rec, len(rec.events) > 0)
	}
}

// recorder collects the events engines emit during one operation
type recorder struct {
	events []GameEvent
}

// attach points the session's engine listeners at a fresh recorder.
// Must be called with s.mu held for writing.
func (s *studioServiceImpl) attach(sess *Session) *recorder {
	rec := &recorder{events: []GameEvent{}}
	sess.Puzzle.OnEvent(func(e puzzle.Event) {
		rec.events = append(rec.events, puzzleEvent(sess.ID, e))
	})
	sess.Cube.OnEvent(func(e cube.Event) {
		rec.events = append(rec.events, cubeEvent(sess, e))
	})
	return rec
}

// finish publishes recorded events, feeds the stats store, schedules
// auto-advance and persists the session
func (s *studioServiceImpl) finish(ctx context.Context, sess *Session, rec *recorder, save bool) {
	for _, ev := range rec.events {
		s.publish(ev)

		switch ev.Type {
		case EventPuzzleSolved, EventPuzzleSkipped:
			skipped := ev.Type == EventPuzzleSkipped
			s.recordRound(ctx, sess, ev, skipped)
			s.scheduleNextRound(sess, skipped)
		case EventCubeExpand:
			s.recordAlignment(ctx, sess, ev)
		}
	}
	s.scheduleUnshuffledRound(sess)

	if !save {
		return
	}
	if err := s.sessions.Save(sess.ID); err != nil {
		s.log.Warn().Err(err).Str("session", sess.ID).Msg("failed to persist session")
	}
}

func (s *studioServiceImpl) publish(ev GameEvent) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}

func (s *studioServiceImpl) recordRound(ctx context.Context, sess *Session, ev GameEvent, skipped bool) {
	if s.stats == nil {
		return
	}
	started := time.Unix(sess.Puzzle.RoundStarted(), 0)
	rec := RoundRecord{
		SessionID:  sess.ID,
		Round:      ev.Round,
		BoardSize:  sess.Puzzle.Config().Size,
		Moves:      ev.Moves,
		Duration:   ev.Timestamp.Sub(started),
		Skipped:    skipped,
		ImageIndex: sess.Puzzle.ImageIndex(),
		FinishedAt: ev.Timestamp,
	}
	if err := s.stats.RecordRound(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("session", sess.ID).Int("round", ev.Round).Msg("failed to record round")
	}
}

func (s *studioServiceImpl) recordAlignment(ctx context.Context, sess *Session, ev GameEvent) {
	if s.stats == nil || ev.Face == nil {
		return
	}
	rec := AlignmentRecord{
		SessionID: sess.ID,
		Face:      *ev.Face,
		Score:     ev.Score,
		AlignedAt: ev.Timestamp,
	}
	if err := s.stats.RecordAlignment(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("session", sess.ID).Msg("failed to record alignment")
	}
}

// scheduleNextRound starts the reset delay for a finished round.
// Must be called with s.mu held for writing.
func (s *studioServiceImpl) scheduleNextRound(sess *Session, skipped bool) {
	cfg := sess.Config.Puzzle
	if !cfg.AutoAdvance {
		return
	}
	delay := time.Duration(cfg.ResetDelayMs) * time.Millisecond
	if skipped {
		delay = time.Duration(cfg.SkipResetDelayMs) * time.Millisecond
	}

	s.cancelPending(sess.ID)
	id, round := sess.ID, sess.Puzzle.Round()
	p := &pendingRound{round: round, due: time.Now().Add(delay)}
	p.timer = time.AfterFunc(delay, func() { s.autoAdvance(id, round) })
	s.pending[id] = p
}

// scheduleUnshuffledRound advances a round that started solved, which
// never emits a solved event. Must be called with s.mu held for writing.
func (s *studioServiceImpl) scheduleUnshuffledRound(sess *Session) {
	if sess.Puzzle.Phase() != puzzle.PhaseSolved || sess.Puzzle.Moves() != 0 {
		return
	}
	if _, ok := s.pending[sess.ID]; ok {
		return
	}
	s.scheduleNextRound(sess, false)
}

func (s *studioServiceImpl) autoAdvance(sessionID string, round int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[sessionID]
	if !ok || p.round != round {
		return
	}
	delete(s.pending, sessionID)

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return
	}
	if sess.Puzzle.Round() != round || sess.Puzzle.Phase() != puzzle.PhaseSolved {
		return
	}

	rec := s.attach(sess)
	sess.Puzzle.NextRound()
	s.finish(context.Background(), sess, rec, true)
	s.log.Debug().Str("session", sessionID).Int("round", sess.Puzzle.Round()).Msg("next round started")
}

func (s *studioServiceImpl) cancelPending(sessionID string) {
	id := strings.ToLower(sessionID)
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

func (s *studioServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		Puzzle:         s.puzzleView(sess),
		Cube:           cubeView(sess),
		Config:         sess.Config,
	}
}

func (s *studioServiceImpl) puzzleView(sess *Session) *PuzzleView {
	e := sess.Puzzle
	img := e.Image()
	v := &PuzzleView{
		Snapshot:       e.Snapshot(),
		Phase:          e.Phase(),
		Round:          e.Round(),
		ImageIndex:     e.ImageIndex(),
		Image:          img,
		ImageAvailable: img != "" && !sess.Unavailable[img],
		SolvedCount:    e.SolvedCount(),
		SkippedCount:   e.SkippedCount(),
		Moves:          e.Moves(),
		ValidMoves:     e.Board().ValidMoves(),
		Distance:       e.Board().ManhattanDistance(),
		Layout:         e.Layout(),
	}
	if p, ok := s.pending[sess.ID]; ok {
		v.NextRoundInMs = max(int(time.Until(p.due).Milliseconds()), 1)
	}
	return v
}

func cubeView(sess *Session) *CubeView {
	t := sess.Cube
	rot := t.Rotation()
	front, score := t.FrontFace()
	v := &CubeView{
		Phase:       t.Phase(),
		Rotation:    rot,
		Velocity:    t.Velocity(),
		FrontFace:   front,
		FrontName:   front.String(),
		FrontScore:  score,
		Scores:      cube.FaceScores(rot),
		AlignedFace: t.AlignedFace(),
	}
	if af := t.AlignedFace(); af.Valid() {
		v.Expanded = faceContent(sess, af)
	}
	return v
}

// faceContent returns what a face shows; an image that failed the asset
// probe is dropped so the renderer uses the fallback colour
func faceContent(sess *Session, f cube.Face) *studio.FaceContent {
	c := sess.Config.Face(f)
	if sess.Unavailable[c.Image] {
		c.Image = ""
	}
	return &c
}

func puzzleEvent(sessionID string, e puzzle.Event) GameEvent {
	snap := e.Snapshot
	ev := GameEvent{
		SessionID: sessionID,
		Timestamp: time.Now(),
		Puzzle:    &snap,
		Round:     e.Round,
		Moves:     e.Moves,
	}
	switch e.Type {
	case puzzle.EventMoved:
		ev.Type = EventPuzzleMoved
		ev.Message = fmt.Sprintf("Move %d", e.Moves)
	case puzzle.EventSolved:
		ev.Type = EventPuzzleSolved
		ev.Message = fmt.Sprintf("Round %d solved in %d moves", e.Round, e.Moves)
	case puzzle.EventSkipped:
		ev.Type = EventPuzzleSkipped
		ev.Message = fmt.Sprintf("Round %d skipped", e.Round)
	case puzzle.EventRoundStarted:
		ev.Type = EventPuzzleRoundStarted
		ev.Message = fmt.Sprintf("Round %d started", e.Round)
	}
	return ev
}

func cubeEvent(sess *Session, e cube.Event) GameEvent {
	face, rot := e.Face, e.Rotation
	ev := GameEvent{
		SessionID: sess.ID,
		Timestamp: time.Now(),
		Face:      &face,
		Score:     e.Score,
		Rotation:  &rot,
	}
	switch e.Type {
	case cube.EventFrontChanged:
		ev.Type = EventCubeFrontChanged
		ev.Message = fmt.Sprintf("%s face is in front", face)
	case cube.EventSnapStarted:
		ev.Type = EventCubeSnapStarted
		ev.Message = fmt.Sprintf("Snapping to %s", face)
	case cube.EventExpand:
		ev.Type = EventCubeExpand
		ev.Message = fmt.Sprintf("%s face expanded", face)
		ev.Content = faceContent(sess, face)
	case cube.EventReleased:
		ev.Type = EventCubeReleased
		ev.Message = fmt.Sprintf("%s face released", face)
	}
	return ev
}

// reasonFor maps an engine rejection to its reason code, or "" when err is
// not a rejection
func reasonFor(err error) string {
	switch {
	case errors.Is(err, puzzle.ErrRoundSolved):
		return ReasonRoundSolved
	case errors.Is(err, puzzle.ErrInvalidMove):
		return ReasonInvalidMove
	case errors.Is(err, cube.ErrPreconditionNotMet):
		return ReasonPrecondition
	}
	return ""
}

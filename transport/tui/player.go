package tui

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/puzzle"
	"github.com/wricardo/photoly-interactive/game/studio"
)

const (
	// FrameRate is the animation rate of the cube
	FrameRate     = 60
	frameInterval = time.Second / FrameRate

	// flickPixels is the pointer distance a single flick key simulates
	flickPixels = 12.0

	// maxFrameSeconds caps dt after the terminal stalls
	maxFrameSeconds = 0.1
)

type mode int

const (
	modePuzzle mode = iota
	modeCube
)

func (m mode) String() string {
	if m == modeCube {
		return "cube"
	}
	return "puzzle"
}

// frameMsg drives the animation loop
type frameMsg time.Time

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Player is the bubbletea model that plays one puzzle and one cube locally
type Player struct {
	config  *studio.Config
	engine  *puzzle.PuzzleEngine
	tracker *cube.Tracker

	mode      mode
	status    string
	lastErr   error
	solvedAt  time.Time
	skipped   bool
	lastFrame time.Time
	frames    int
	quitting  bool
}

// NewPlayer builds fresh engines from cfg. A nil rng uses a clock seed.
func NewPlayer(cfg *studio.Config, rng *rand.Rand) (*Player, error) {
	if cfg == nil {
		cfg = studio.DefaultConfig()
	}
	if err := studio.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	engine, err := puzzle.NewEngine(cfg.Puzzle.EngineConfig(), rng)
	if err != nil {
		return nil, fmt.Errorf("failed to create puzzle: %w", err)
	}
	tracker, err := cube.NewTracker(cfg.Cube.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create cube: %w", err)
	}

	p := &Player{config: cfg, engine: engine, tracker: tracker}
	engine.OnEvent(p.onPuzzleEvent)
	tracker.OnEvent(p.onCubeEvent)
	if engine.Phase() == puzzle.PhaseSolved {
		p.solvedAt = time.Now()
	}
	return p, nil
}

// Run starts the terminal player on the alternate screen
func Run(cfg *studio.Config) error {
	player, err := NewPlayer(cfg, nil)
	if err != nil {
		return err
	}
	program := tea.NewProgram(player, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("player error: %w", err)
	}
	return nil
}

func (p *Player) onPuzzleEvent(e puzzle.Event) {
	switch e.Type {
	case puzzle.EventSolved:
		p.solvedAt = time.Now()
		p.skipped = false
		p.status = fmt.Sprintf("Solved round %d in %d moves", e.Round, e.Moves)
	case puzzle.EventSkipped:
		p.solvedAt = time.Now()
		p.skipped = true
		p.status = fmt.Sprintf("Skipped round %d", e.Round)
	case puzzle.EventRoundStarted:
		p.solvedAt = time.Time{}
		p.skipped = false
		p.status = fmt.Sprintf("Round %d", e.Round)
	}
	log.Debug().Str("event", string(e.Type)).Int("round", e.Round).Int("moves", e.Moves).Msg("puzzle event")
}

func (p *Player) onCubeEvent(e cube.Event) {
	content := p.config.Face(e.Face)
	switch e.Type {
	case cube.EventFrontChanged:
		p.status = fmt.Sprintf("Facing %s", content.Title)
	case cube.EventSnapStarted:
		p.status = fmt.Sprintf("Snapping to %s", content.Title)
	case cube.EventExpand:
		p.status = fmt.Sprintf("%s · %s", content.Title, content.Category)
	case cube.EventReleased:
		p.status = "Released"
	}
	log.Debug().Str("event", string(e.Type)).Str("face", e.Face.String()).Float64("score", e.Score).Msg("cube event")
}

// Init starts the frame clock
func (p *Player) Init() tea.Cmd {
	p.lastFrame = time.Now()
	return frame()
}

// Update handles keys and frames
func (p *Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p, p.handleKey(msg.String())

	case frameMsg:
		p.advance(time.Time(msg))
		return p, frame()
	}
	return p, nil
}

func (p *Player) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c":
		p.quitting = true
		return tea.Quit
	case "tab":
		if p.mode == modePuzzle {
			p.mode = modeCube
		} else {
			p.mode = modePuzzle
		}
		p.lastErr = nil
		return nil
	}

	if p.mode == modePuzzle {
		p.lastErr = p.puzzleKey(key)
	} else {
		p.lastErr = p.cubeKey(key)
	}
	return nil
}

func (p *Player) puzzleKey(key string) error {
	var dir puzzle.Direction
	switch key {
	case "up":
		dir = puzzle.Up
	case "down":
		dir = puzzle.Down
	case "left":
		dir = puzzle.Left
	case "right":
		dir = puzzle.Right
	case "s":
		p.engine.Skip()
		return nil
	case "n":
		p.engine.NextRound()
		return nil
	default:
		return nil
	}
	_, err := p.engine.Swipe(dir)
	return err
}

func (p *Player) cubeKey(key string) error {
	switch key {
	case "w":
		return p.flick(0, -flickPixels)
	case "s":
		return p.flick(0, flickPixels)
	case "a":
		return p.flick(-flickPixels, 0)
	case "d":
		return p.flick(flickPixels, 0)
	case "enter":
		face, _ := p.tracker.FrontFace()
		return p.tracker.RequestSnap(face)
	case "esc":
		return p.tracker.Release()
	}
	return nil
}

// flick plays a one-event drag gesture so the cube coasts on momentum
func (p *Player) flick(dx, dy float64) error {
	if err := p.tracker.BeginDrag(); err != nil {
		return err
	}
	if err := p.tracker.ApplyDrag(dx, dy); err != nil {
		return err
	}
	return p.tracker.EndDrag()
}

// advance runs one frame at time now
func (p *Player) advance(now time.Time) {
	dt := now.Sub(p.lastFrame).Seconds()
	if p.lastFrame.IsZero() || dt < 0 {
		dt = frameInterval.Seconds()
	}
	if dt > maxFrameSeconds {
		dt = maxFrameSeconds
	}
	p.lastFrame = now
	p.frames++
	p.tracker.Step(dt)

	if p.solvedAt.IsZero() || !p.config.Puzzle.AutoAdvance {
		return
	}
	delay := p.config.Puzzle.ResetDelayMs
	if p.skipped {
		delay = p.config.Puzzle.SkipResetDelayMs
	}
	if now.Sub(p.solvedAt) >= time.Duration(delay)*time.Millisecond {
		p.engine.NextRound()
	}
}

// View renders the puzzle and cube side by side
func (p *Player) View() string {
	if p.quitting {
		return "Thanks for playing.\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Photoly Studio"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(fmt.Sprintf("[%s]", p.mode)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(p.renderPuzzle()),
		"  ",
		panelStyle.Render(p.renderCube()),
	))
	b.WriteString("\n\n")

	if p.status != "" {
		b.WriteString(statusStyle.Render(p.status))
		b.WriteString("\n")
	}
	if p.lastErr != nil {
		b.WriteString(errorStyle.Render(p.lastErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	help := "arrows=swipe  s=skip  n=next round  tab=cube  q=quit"
	if p.mode == modeCube {
		help = "w/a/s/d=flick  enter=snap  esc=release  tab=puzzle  q=quit"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")
	return b.String()
}

func (p *Player) renderPuzzle() string {
	var b strings.Builder
	e := p.engine
	b.WriteString(fmt.Sprintf("Round %d  Moves %d  Solved %d  Skipped %d\n",
		e.Round(), e.Moves(), e.SolvedCount(), e.SkippedCount()))

	size := e.Board().Size()
	layout := e.Layout()
	rows := make([]string, 0, size)
	for r := 0; r < size; r++ {
		cells := make([]string, 0, size)
		for c := 0; c < size; c++ {
			tile := layout[r*size+c]
			if tile.Empty {
				cells = append(cells, emptyTileStyle.Render("·"))
				continue
			}
			cells = append(cells, swatch(tile.Fallback, fmt.Sprint(tile.Value), tileWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n")

	if e.Phase() == puzzle.PhaseSolved {
		b.WriteString(solvedStyle.Render("SOLVED!"))
	} else {
		b.WriteString(fmt.Sprintf("Distance %d", e.Board().ManhattanDistance()))
	}
	return b.String()
}

func (p *Player) renderCube() string {
	var b strings.Builder
	t := p.tracker
	rot := t.Rotation()
	b.WriteString(fmt.Sprintf("Phase %s\n", phaseStyle.Render(string(t.Phase()))))
	b.WriteString(fmt.Sprintf("Rotation x=%.2f y=%.2f\n", rot.X, rot.Y))

	front, score := t.FrontFace()
	scores := cube.FaceScores(rot)
	for f := cube.Face(0); f < cube.FaceCount; f++ {
		content := p.config.Face(f)
		marker := " "
		if f == front {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", marker, swatch(content.Fallback, f.String(), 8), scoreBar(scores[f])))
	}

	if aligned := t.AlignedFace(); aligned.Valid() {
		content := p.config.Face(aligned)
		b.WriteString(solvedStyle.Render(fmt.Sprintf("%s · %s", content.Title, content.Category)))
	} else {
		b.WriteString(fmt.Sprintf("Front %s (%.2f)", front, score))
	}
	return b.String()
}

// scoreBar draws the positive part of a face score as a ten cell bar
func scoreBar(score float64) string {
	n := int(score*10 + 0.5)
	if n < 0 {
		n = 0
	}
	if n > 10 {
		n = 10
	}
	return strings.Repeat("█", n) + strings.Repeat("░", 10-n) + fmt.Sprintf(" %5.2f", score)
}

// Err returns the last rejected input, nil when the last key was accepted
func (p *Player) Err() error {
	return p.lastErr
}

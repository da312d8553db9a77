package cube

import (
	"fmt"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tracker follows the orientation of the gallery cube through drag input,
// momentum, front-face detection and snapping.
// It is not safe for concurrent use.
type Tracker struct {
	settings Settings
	rotation Euler
	velocity Vec2
	phase    Phase
	listener func(Event)

	front      Face
	frontScore float64
	aligned    Face
	pending    bool

	snapFace  Face
	snapFrom  Euler
	snapTo    Euler
	snapTween *gween.Tween
}

// NewTracker creates an idle tracker at the configured initial rotation
func NewTracker(settings Settings) (*Tracker, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.IdleRotation != nil {
		idle := *settings.IdleRotation
		settings.IdleRotation = &idle
	}
	t := &Tracker{
		settings: settings,
		rotation: settings.InitialRotation,
		phase:    PhaseIdle,
		aligned:  NoFace,
		snapFace: NoFace,
	}
	t.front, t.frontScore = FrontFace(t.rotation)
	return t, nil
}

// OnEvent registers the listener that receives state changes
func (t *Tracker) OnEvent(listener func(Event)) {
	t.listener = listener
}

func (t *Tracker) emit(typ EventType, face Face, score float64) {
	if t.listener == nil {
		return
	}
	t.listener(Event{Type: typ, Face: face, Score: score, Rotation: t.rotation})
}

// Settings returns the tracker tuning
func (t *Tracker) Settings() Settings {
	return t.settings
}

// Rotation returns the accumulated rotation
func (t *Tracker) Rotation() Euler {
	return t.rotation
}

// Velocity returns the current angular velocity
func (t *Tracker) Velocity() Vec2 {
	return t.velocity
}

// Phase returns the interaction state
func (t *Tracker) Phase() Phase {
	return t.phase
}

// FrontFace returns the face found by the most recent detection and its score
func (t *Tracker) FrontFace() (Face, float64) {
	return t.front, t.frontScore
}

// AlignedFace returns the expanded face, or NoFace when not aligned
func (t *Tracker) AlignedFace() Face {
	return t.aligned
}

// SnapProgress returns the face being snapped to and the target rotation
func (t *Tracker) SnapProgress() (Face, Euler, bool) {
	if t.phase != PhaseSnapping {
		return NoFace, Euler{}, false
	}
	return t.snapFace, t.snapTo, true
}

// SetRotation places the cube directly. Not allowed while snapping or aligned.
func (t *Tracker) SetRotation(rot Euler) error {
	if t.phase == PhaseSnapping || t.phase == PhaseAligned {
		return fmt.Errorf("%w: cannot set rotation while %s", ErrPreconditionNotMet, t.phase)
	}
	t.rotation = rot
	t.velocity = Vec2{}
	t.DetectFrontFace()
	return nil
}

// BeginDrag starts a drag gesture
func (t *Tracker) BeginDrag() error {
	if t.phase != PhaseIdle {
		return fmt.Errorf("%w: cannot start drag while %s", ErrPreconditionNotMet, t.phase)
	}
	t.phase = PhaseDragging
	t.velocity = Vec2{}
	t.pending = false
	return nil
}

// ApplyDrag turns a pointer delta in pixels into rotation. Vertical motion
// pitches around X and horizontal motion yaws around Y.
func (t *Tracker) ApplyDrag(dx, dy float64) error {
	if t.phase != PhaseDragging {
		return fmt.Errorf("%w: drag input while %s", ErrPreconditionNotMet, t.phase)
	}
	t.velocity = Vec2{X: dy * t.settings.DragSensitivity, Y: dx * t.settings.DragSensitivity}
	t.rotation.X += t.velocity.X
	t.rotation.Y += t.velocity.Y
	return nil
}

// EndDrag finishes a drag gesture and arms the alignment check that runs
// once momentum settles
func (t *Tracker) EndDrag() error {
	if t.phase != PhaseDragging {
		return fmt.Errorf("%w: no drag in progress", ErrPreconditionNotMet)
	}
	t.phase = PhaseIdle
	t.pending = true
	return nil
}

// Settled reports whether momentum has decayed below epsilon on both axes
func (t *Tracker) Settled() bool {
	return math.Abs(t.velocity.X) < t.settings.Epsilon && math.Abs(t.velocity.Y) < t.settings.Epsilon
}

// ApplyMomentum advances one frame of free rotation. Velocity decays until
// it drops below epsilon, after which the idle rotation takes over.
func (t *Tracker) ApplyMomentum() {
	if t.phase != PhaseIdle {
		return
	}
	t.velocity.X *= t.settings.MomentumDecay
	t.velocity.Y *= t.settings.MomentumDecay

	if t.Settled() {
		t.velocity = Vec2{}
		if idle := t.settings.IdleRotation; idle != nil {
			t.rotation.X += idle.X
			t.rotation.Y += idle.Y
		}
		return
	}
	t.rotation.X += t.velocity.X
	t.rotation.Y += t.velocity.Y
}

// DetectFrontFace recomputes the face pointing at the viewer
func (t *Tracker) DetectFrontFace() (Face, float64) {
	face, score := FrontFace(t.rotation)
	changed := face != t.front
	t.front, t.frontScore = face, score
	if changed {
		t.emit(EventFrontChanged, face, score)
	}
	return face, score
}

// RequestSnap starts the snap transition toward face. The face must be the
// current front face and its score must reach the snap threshold.
func (t *Tracker) RequestSnap(face Face) error {
	if !face.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidFace, face)
	}
	if t.phase != PhaseIdle {
		return fmt.Errorf("%w: cannot snap while %s", ErrPreconditionNotMet, t.phase)
	}

	front, score := FrontFace(t.rotation)
	if front != face {
		return fmt.Errorf("%w: %s is not the front face (%s is)", ErrPreconditionNotMet, face, front)
	}
	if score < t.settings.SnapThreshold {
		return fmt.Errorf("%w: alignment %.3f below threshold %.2f", ErrPreconditionNotMet, score, t.settings.SnapThreshold)
	}

	target, err := SnapTarget(t.rotation, face)
	if err != nil {
		return err
	}

	t.phase = PhaseSnapping
	t.pending = false
	t.velocity = Vec2{}
	t.snapFace = face
	t.snapFrom = t.rotation
	t.snapTo = target
	t.snapTween = gween.New(0, 1, float32(t.settings.SnapSeconds), ease.OutCubic)
	t.emit(EventSnapStarted, face, score)
	return nil
}

// Step advances one animation frame of dt seconds. While snapping the
// tween is advanced; while idle, momentum runs first, then front-face
// detection, then any armed alignment check.
func (t *Tracker) Step(dt float64) {
	switch t.phase {
	case PhaseSnapping:
		t.stepSnap(dt)
	case PhaseIdle:
		t.ApplyMomentum()
		face, score := t.DetectFrontFace()
		if t.pending && t.Settled() {
			t.pending = false
			if score >= t.settings.SnapThreshold {
				// face is the current front face, so this only fails on a bad index
				_ = t.RequestSnap(face)
			}
		}
	case PhaseDragging:
		t.DetectFrontFace()
	}
}

func (t *Tracker) stepSnap(dt float64) {
	progress, finished := t.snapTween.Update(float32(dt))
	if finished {
		t.rotation = t.snapTo
		t.phase = PhaseAligned
		t.aligned = t.snapFace
		t.snapTween = nil
		face, score := t.DetectFrontFace()
		t.emit(EventExpand, face, score)
		return
	}

	p := float64(progress)
	t.rotation = Euler{
		X: t.snapFrom.X + (t.snapTo.X-t.snapFrom.X)*p,
		Y: t.snapFrom.Y + (t.snapTo.Y-t.snapFrom.Y)*p,
		Z: t.snapFrom.Z + (t.snapTo.Z-t.snapFrom.Z)*p,
	}
}

// Release closes the expanded face and returns to free rotation
func (t *Tracker) Release() error {
	if t.phase != PhaseAligned {
		return fmt.Errorf("%w: nothing is expanded", ErrPreconditionNotMet)
	}
	face := t.aligned
	t.phase = PhaseIdle
	t.aligned = NoFace
	t.snapFace = NoFace
	t.velocity = Vec2{}
	t.emit(EventReleased, face, t.frontScore)
	return nil
}

// State returns the persisted form of the tracker. A snap in flight is
// saved as already aligned.
func (t *Tracker) State() State {
	s := State{
		Rotation:    t.rotation,
		Velocity:    t.velocity,
		Phase:       t.phase,
		FrontFace:   t.front,
		FrontScore:  t.frontScore,
		AlignedFace: t.aligned,
		Pending:     t.pending,
	}
	if t.phase == PhaseSnapping {
		s.Rotation = t.snapTo
		s.Phase = PhaseAligned
		s.AlignedFace = t.snapFace
	}
	if s.Phase == PhaseDragging {
		s.Phase = PhaseIdle
	}
	return s
}

// Restore replaces the tracker state (used for persistence loading)
func (t *Tracker) Restore(s State) error {
	switch s.Phase {
	case PhaseIdle, PhaseDragging, "":
		t.phase = PhaseIdle
		t.aligned = NoFace
	case PhaseAligned:
		if !s.AlignedFace.Valid() {
			return fmt.Errorf("%w: aligned state without a face", ErrInvalidFace)
		}
		t.phase = PhaseAligned
		t.aligned = s.AlignedFace
	default:
		return fmt.Errorf("%w: cannot restore phase %q", ErrPreconditionNotMet, s.Phase)
	}
	t.rotation = s.Rotation
	t.velocity = s.Velocity
	t.pending = s.Pending && t.phase == PhaseIdle
	t.snapFace = t.aligned
	t.snapTween = nil
	t.front, t.frontScore = FrontFace(t.rotation)
	return nil
}

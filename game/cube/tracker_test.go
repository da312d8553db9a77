package cube

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 1.0 / 60

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	settings := DefaultSettings()
	settings.InitialRotation = Euler{}
	tr, err := NewTracker(settings)
	require.NoError(t, err)
	return tr
}

func collectEvents(tr *Tracker) *[]Event {
	var events []Event
	tr.OnEvent(func(ev Event) { events = append(events, ev) })
	return &events
}

func countEvents(events []Event, typ EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestNewTrackerDefaults(t *testing.T) {
	tr, err := NewTracker(DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, PhaseIdle, tr.Phase())
	assert.Equal(t, Euler{X: 0.3, Y: 0.5}, tr.Rotation())
	assert.Equal(t, NoFace, tr.AlignedFace())

	face, score := tr.FrontFace()
	assert.Equal(t, Front, face)
	assert.InDelta(t, math.Cos(0.3)*math.Cos(0.5), score, 1e-12)
}

func TestNewTrackerRejectsBadSettings(t *testing.T) {
	s := DefaultSettings()
	s.MomentumDecay = 1.2
	_, err := NewTracker(s)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	s = DefaultSettings()
	s.SnapThreshold = 0
	_, err = NewTracker(s)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestNilIdleRotationHoldsStill(t *testing.T) {
	s := DefaultSettings()
	s.IdleRotation = nil
	tr, err := NewTracker(s)
	require.NoError(t, err)

	start := tr.Rotation()
	for i := 0; i < 10; i++ {
		tr.ApplyMomentum()
	}
	assert.Equal(t, start, tr.Rotation())
}

func TestIdleRotationIsCopied(t *testing.T) {
	s := DefaultSettings()
	s.InitialRotation = Euler{}
	tr, err := NewTracker(s)
	require.NoError(t, err)

	s.IdleRotation.X = 1
	tr.ApplyMomentum()
	assert.InDelta(t, 0.003, tr.Rotation().X, tolerance)
	assert.InDelta(t, 0.005, tr.Rotation().Y, tolerance)
}

func TestDragMapsDeltasToAxes(t *testing.T) {
	tr := newTestTracker(t)
	require.NoError(t, tr.BeginDrag())
	assert.Equal(t, PhaseDragging, tr.Phase())

	require.NoError(t, tr.ApplyDrag(10, 5))
	assert.InDelta(t, 0.04, tr.Velocity().X, tolerance)
	assert.InDelta(t, 0.08, tr.Velocity().Y, tolerance)
	assert.InDelta(t, 0.04, tr.Rotation().X, tolerance)
	assert.InDelta(t, 0.08, tr.Rotation().Y, tolerance)

	require.NoError(t, tr.ApplyDrag(-10, 0))
	assert.InDelta(t, 0.0, tr.Rotation().Y, tolerance)
}

func TestDragRequiresDragging(t *testing.T) {
	tr := newTestTracker(t)
	assert.ErrorIs(t, tr.ApplyDrag(1, 1), ErrPreconditionNotMet)
	assert.ErrorIs(t, tr.EndDrag(), ErrPreconditionNotMet)

	require.NoError(t, tr.BeginDrag())
	assert.ErrorIs(t, tr.BeginDrag(), ErrPreconditionNotMet)
}

func TestMomentumDecaysThenIdles(t *testing.T) {
	tr := newTestTracker(t)
	require.NoError(t, tr.BeginDrag())
	require.NoError(t, tr.ApplyDrag(10, 0))
	require.NoError(t, tr.EndDrag())

	before := tr.Rotation().Y
	tr.ApplyMomentum()
	assert.InDelta(t, 0.08*0.96, tr.Velocity().Y, tolerance)
	assert.InDelta(t, before+0.08*0.96, tr.Rotation().Y, tolerance)

	prev := tr.Velocity().Y
	for i := 0; i < 300 && !tr.Settled(); i++ {
		tr.ApplyMomentum()
		assert.LessOrEqual(t, tr.Velocity().Y, prev)
		prev = tr.Velocity().Y
	}
	require.True(t, tr.Settled())
	assert.Equal(t, Vec2{}, tr.Velocity())

	rot := tr.Rotation()
	tr.ApplyMomentum()
	assert.InDelta(t, rot.X+0.003, tr.Rotation().X, tolerance)
	assert.InDelta(t, rot.Y+0.005, tr.Rotation().Y, tolerance)
}

func TestMomentumIgnoredWhileDragging(t *testing.T) {
	tr := newTestTracker(t)
	require.NoError(t, tr.BeginDrag())
	rot := tr.Rotation()
	tr.ApplyMomentum()
	assert.Equal(t, rot, tr.Rotation())
}

func TestSnapThreshold(t *testing.T) {
	tr := newTestTracker(t)

	require.NoError(t, tr.SetRotation(Euler{Y: math.Acos(0.84)}))
	err := tr.RequestSnap(Front)
	assert.ErrorIs(t, err, ErrPreconditionNotMet)
	assert.Equal(t, PhaseIdle, tr.Phase())

	require.NoError(t, tr.SetRotation(Euler{Y: math.Acos(0.86)}))
	require.NoError(t, tr.RequestSnap(Front))
	assert.Equal(t, PhaseSnapping, tr.Phase())
}

func TestSnapRejectsWrongFace(t *testing.T) {
	tr := newTestTracker(t)

	assert.ErrorIs(t, tr.RequestSnap(Top), ErrPreconditionNotMet)
	assert.ErrorIs(t, tr.RequestSnap(Face(6)), ErrInvalidFace)
	assert.ErrorIs(t, tr.RequestSnap(NoFace), ErrInvalidFace)

	require.NoError(t, tr.BeginDrag())
	assert.ErrorIs(t, tr.RequestSnap(Front), ErrPreconditionNotMet)
}

func TestSnapAlignsAndExpandsOnce(t *testing.T) {
	tr := newTestTracker(t)
	events := collectEvents(tr)
	require.NoError(t, tr.SetRotation(Euler{Y: 0.2}))
	require.NoError(t, tr.RequestSnap(Front))

	assert.ErrorIs(t, tr.BeginDrag(), ErrPreconditionNotMet)
	assert.ErrorIs(t, tr.SetRotation(Euler{}), ErrPreconditionNotMet)

	tr.Step(0.1)
	mid := tr.Rotation().Y
	assert.Less(t, mid, 0.2)
	assert.Greater(t, mid, 0.0)
	assert.Equal(t, PhaseSnapping, tr.Phase())

	for i := 0; i < 10; i++ {
		tr.Step(0.1)
	}

	assert.Equal(t, PhaseAligned, tr.Phase())
	assert.Equal(t, Front, tr.AlignedFace())
	assert.Equal(t, Euler{}, tr.Rotation())

	face, score := tr.FrontFace()
	assert.Equal(t, Front, face)
	assert.InDelta(t, 1.0, score, 1e-6)
	assert.Equal(t, 1, countEvents(*events, EventSnapStarted))
	assert.Equal(t, 1, countEvents(*events, EventExpand))
}

func TestSnapUsesNearestEquivalentAngle(t *testing.T) {
	tr := newTestTracker(t)
	require.NoError(t, tr.SetRotation(Euler{X: 2 * math.Pi, Y: 4*math.Pi + 0.1}))
	require.NoError(t, tr.RequestSnap(Front))

	_, target, ok := tr.SnapProgress()
	require.True(t, ok)
	assert.InDelta(t, 2*math.Pi, target.X, tolerance)
	assert.InDelta(t, 4*math.Pi, target.Y, tolerance)

	for tr.Phase() == PhaseSnapping {
		tr.Step(frame)
	}
	assert.InDelta(t, 4*math.Pi, tr.Rotation().Y, tolerance)
}

func TestDragReleaseSnapsWhenSettled(t *testing.T) {
	tr := newTestTracker(t)
	events := collectEvents(tr)

	require.NoError(t, tr.BeginDrag())
	require.NoError(t, tr.ApplyDrag(1, 0))
	require.NoError(t, tr.EndDrag())

	for i := 0; i < 600 && tr.Phase() != PhaseAligned; i++ {
		tr.Step(frame)
	}

	require.Equal(t, PhaseAligned, tr.Phase())
	assert.Equal(t, Front, tr.AlignedFace())
	assert.InDelta(t, 0.0, tr.Rotation().X, tolerance)
	assert.InDelta(t, 0.0, tr.Rotation().Y, tolerance)
	assert.Equal(t, 1, countEvents(*events, EventExpand))

	// aligned cube stays put
	rot := tr.Rotation()
	tr.Step(frame)
	assert.Equal(t, rot, tr.Rotation())
	assert.Equal(t, 1, countEvents(*events, EventExpand))
}

func TestNoSnapBelowThresholdAfterDrag(t *testing.T) {
	tr := newTestTracker(t)
	require.NoError(t, tr.SetRotation(Euler{Y: math.Pi / 4}))

	require.NoError(t, tr.BeginDrag())
	require.NoError(t, tr.EndDrag())

	for i := 0; i < 5; i++ {
		tr.Step(frame)
	}
	assert.Equal(t, PhaseIdle, tr.Phase())
	assert.Greater(t, tr.Rotation().Y, math.Pi/4, "idle rotation continues")
}

func TestIdleWithoutDragNeverSnaps(t *testing.T) {
	tr := newTestTracker(t)
	for i := 0; i < 120; i++ {
		tr.Step(frame)
	}
	assert.Equal(t, PhaseIdle, tr.Phase())
	assert.InDelta(t, 120*0.005, tr.Rotation().Y, 1e-9)
}

func TestRelease(t *testing.T) {
	tr := newTestTracker(t)
	events := collectEvents(tr)
	assert.ErrorIs(t, tr.Release(), ErrPreconditionNotMet)

	require.NoError(t, tr.RequestSnap(Front))
	for tr.Phase() == PhaseSnapping {
		tr.Step(frame)
	}
	require.NoError(t, tr.Release())

	assert.Equal(t, PhaseIdle, tr.Phase())
	assert.Equal(t, NoFace, tr.AlignedFace())
	assert.Equal(t, 1, countEvents(*events, EventReleased))
	assert.NoError(t, tr.BeginDrag())
}

func TestStateRoundTrip(t *testing.T) {
	tr := newTestTracker(t)
	require.NoError(t, tr.SetRotation(Euler{Y: 0.1}))
	require.NoError(t, tr.RequestSnap(Front))
	tr.Step(0.05)

	state := tr.State()
	assert.Equal(t, PhaseAligned, state.Phase)
	assert.Equal(t, Front, state.AlignedFace)

	restored := newTestTracker(t)
	require.NoError(t, restored.Restore(state))
	assert.Equal(t, PhaseAligned, restored.Phase())
	assert.Equal(t, Front, restored.AlignedFace())
	assert.Equal(t, Euler{}, restored.Rotation())

	err := restored.Restore(State{Phase: PhaseAligned, AlignedFace: NoFace})
	assert.ErrorIs(t, err, ErrInvalidFace)
}

package cube

import (
	"errors"
	"fmt"
	"strings"
)

// Face identifies one of the six cube faces by index
type Face int

const (
	Right  Face = iota // +X
	Left               // -X
	Top                // +Y
	Bottom             // -Y
	Front              // +Z
	Back               // -Z

	FaceCount = 6
	NoFace    = Face(-1)
)

var faceNames = [FaceCount]string{"right", "left", "top", "bottom", "front", "back"}

func (f Face) String() string {
	if !f.Valid() {
		return "none"
	}
	return faceNames[f]
}

// Valid reports whether f names a face
func (f Face) Valid() bool {
	return f >= 0 && f < FaceCount
}

// ParseFace accepts a face name or index
func ParseFace(s string) (Face, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range faceNames {
		if key == name || key == fmt.Sprint(i) {
			return Face(i), nil
		}
	}
	return NoFace, fmt.Errorf("%w: %q", ErrInvalidFace, s)
}

// Vec2 is a per-axis angular velocity in radians per frame
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec3 is a direction in cube space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Euler is an accumulated rotation in radians, applied in X, Y, Z order.
// Components are unbounded.
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Phase is the interaction state of the tracker
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseDragging Phase = "dragging"
	PhaseSnapping Phase = "snapping"
	PhaseAligned  Phase = "aligned"
)

// FaceNormals are the outward unit normals, indexed by Face
var FaceNormals = [FaceCount]Vec3{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// ViewerAxis points from the cube toward the viewer
var ViewerAxis = Vec3{Z: 1}

var (
	// ErrPreconditionNotMet is returned when an operation is not allowed in the current state
	ErrPreconditionNotMet = errors.New("precondition not met")
	// ErrInvalidFace is returned for face indices outside 0..5
	ErrInvalidFace = errors.New("invalid face")
	// ErrInvalidSettings is returned by Settings.Validate
	ErrInvalidSettings = errors.New("invalid cube settings")
)

// Settings tune the tracker. A nil IdleRotation disables the idle spin.
type Settings struct {
	DragSensitivity float64 `json:"drag_sensitivity"`
	MomentumDecay   float64 `json:"momentum_decay"`
	Epsilon         float64 `json:"epsilon"`
	IdleRotation    *Vec2   `json:"idle_rotation"`
	SnapThreshold   float64 `json:"snap_threshold"`
	SnapSeconds     float64 `json:"snap_seconds"`
	InitialRotation Euler   `json:"initial_rotation"`
}

// DefaultSettings returns the stock tuning
func DefaultSettings() Settings {
	return Settings{
		DragSensitivity: 0.008,
		MomentumDecay:   0.96,
		Epsilon:         0.001,
		IdleRotation:    &Vec2{X: 0.003, Y: 0.005},
		SnapThreshold:   0.85,
		SnapSeconds:     0.4,
		InitialRotation: Euler{X: 0.3, Y: 0.5},
	}
}

// Validate checks the settings
func (s Settings) Validate() error {
	if s.DragSensitivity <= 0 {
		return fmt.Errorf("%w: drag_sensitivity must be positive", ErrInvalidSettings)
	}
	if s.MomentumDecay <= 0 || s.MomentumDecay >= 1 {
		return fmt.Errorf("%w: momentum_decay must be in (0,1), got %g", ErrInvalidSettings, s.MomentumDecay)
	}
	if s.Epsilon <= 0 {
		return fmt.Errorf("%w: epsilon must be positive", ErrInvalidSettings)
	}
	if s.SnapThreshold <= 0 || s.SnapThreshold > 1 {
		return fmt.Errorf("%w: snap_threshold must be in (0,1], got %g", ErrInvalidSettings, s.SnapThreshold)
	}
	if s.SnapSeconds <= 0 {
		return fmt.Errorf("%w: snap_seconds must be positive", ErrInvalidSettings)
	}
	return nil
}

// EventType names the notifications a Tracker emits
type EventType string

const (
	EventFrontChanged EventType = "front_changed"
	EventSnapStarted  EventType = "snap_started"
	EventExpand       EventType = "expand"
	EventReleased     EventType = "released"
)

// Event is delivered to the tracker listener
type Event struct {
	Type     EventType `json:"type"`
	Face     Face      `json:"face"`
	Score    float64   `json:"score"`
	Rotation Euler     `json:"rotation"`
}

// State is the persisted form of a Tracker
type State struct {
	Rotation    Euler   `json:"rotation"`
	Velocity    Vec2    `json:"velocity"`
	Phase       Phase   `json:"phase"`
	FrontFace   Face    `json:"front_face"`
	FrontScore  float64 `json:"front_score"`
	AlignedFace Face    `json:"aligned_face"`
	Pending     bool    `json:"pending_check"`
}

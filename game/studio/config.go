package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/puzzle"
)

var ErrInvalidConfig = errors.New("invalid studio configuration")

// Config is a studio preset: one puzzle and one cube with their content
type Config struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Puzzle      PuzzleConfig `json:"puzzle"`
	Cube        CubeConfig   `json:"cube"`
	ProbeAssets bool         `json:"probe_assets"`
}

// PuzzleConfig describes the sliding puzzle and its round timing.
// A nil ShuffleMoves means the default; 0 starts every round solved.
type PuzzleConfig struct {
	Size             int      `json:"size"`
	ShuffleMoves     *int     `json:"shuffle_moves"`
	Images           []string `json:"images"`
	ResetDelayMs     int      `json:"reset_delay_ms"`
	SkipResetDelayMs int      `json:"skip_reset_delay_ms"`
	AutoAdvance      bool     `json:"auto_advance"`
}

// EngineConfig returns the puzzle engine configuration
func (p PuzzleConfig) EngineConfig() puzzle.Config {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return puzzle.Config{Size: p.Size, ShuffleMoves: p.Moves(), Images: images}
}

// Moves returns the shuffle length, falling back to the default when unset
func (p PuzzleConfig) Moves() int {
	if p.ShuffleMoves == nil {
		return puzzle.DefaultShuffleMoves
	}
	return *p.ShuffleMoves
}

// IntPtr returns a pointer to n, for optional preset fields
func IntPtr(n int) *int {
	return &n
}

// CubeConfig holds the tracker tuning plus what each face shows
type CubeConfig struct {
	cube.Settings
	Faces []FaceContent `json:"faces"`
}

// FaceContent is the photo and caption of one cube face
type FaceContent struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Fallback string `json:"fallback"`
}

// DefaultConfig returns the built-in preset
func DefaultConfig() *Config {
	images := make([]string, 5)
	for i := range images {
		images[i] = fmt.Sprintf("/assets/images/puzzle/puzzle-%d.jpg", i+1)
	}

	return &Config{
		Name:        "default",
		Description: "Built-in studio preset",
		Puzzle: PuzzleConfig{
			Size:             puzzle.DefaultSize,
			ShuffleMoves:     IntPtr(puzzle.DefaultShuffleMoves),
			Images:           images,
			ResetDelayMs:     2500,
			SkipResetDelayMs: 1500,
			AutoAdvance:      true,
		},
		Cube: CubeConfig{
			Settings: cube.DefaultSettings(),
			Faces:    DefaultFaces(),
		},
	}
}

// DefaultFaces returns the stock gallery, indexed like cube.Face
func DefaultFaces() []FaceContent {
	return []FaceContent{
		{Title: "Eternal Moments", Category: "Weddings", Image: "https://picsum.photos/seed/cube1/1024/1024", Fallback: "#c9a167"},
		{Title: "Natural Light", Category: "Portraits", Image: "https://picsum.photos/seed/cube2/1024/1024", Fallback: "#1a1614"},
		{Title: "Urban Stories", Category: "Editorial", Image: "https://picsum.photos/seed/cube3/1024/1024", Fallback: "#e8e2d9"},
		{Title: "Quiet Reflections", Category: "Personal", Image: "https://picsum.photos/seed/cube4/1024/1024", Fallback: "#2c2622"},
		{Title: "Golden Hour", Category: "Landscapes", Image: "https://picsum.photos/seed/cube5/1024/1024", Fallback: "#f5f0e8"},
		{Title: "Candid Joy", Category: "Lifestyle", Image: "https://picsum.photos/seed/cube6/1024/1024", Fallback: "#6b5d52"},
	}
}

// ApplyDefaults fills unset fields from the built-in preset. Optional
// fields are pointers so an explicit zero survives.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()

	if c.Puzzle.Size == 0 {
		c.Puzzle.Size = def.Puzzle.Size
	}
	if c.Puzzle.ShuffleMoves == nil {
		c.Puzzle.ShuffleMoves = def.Puzzle.ShuffleMoves
	}
	if c.Puzzle.ResetDelayMs == 0 {
		c.Puzzle.ResetDelayMs = def.Puzzle.ResetDelayMs
	}
	if c.Puzzle.SkipResetDelayMs == 0 {
		c.Puzzle.SkipResetDelayMs = def.Puzzle.SkipResetDelayMs
	}

	s, d := &c.Cube.Settings, def.Cube.Settings
	if s.DragSensitivity == 0 {
		s.DragSensitivity = d.DragSensitivity
	}
	if s.MomentumDecay == 0 {
		s.MomentumDecay = d.MomentumDecay
	}
	if s.Epsilon == 0 {
		s.Epsilon = d.Epsilon
	}
	if s.IdleRotation == nil {
		s.IdleRotation = d.IdleRotation
	}
	if s.SnapThreshold == 0 {
		s.SnapThreshold = d.SnapThreshold
	}
	if s.SnapSeconds == 0 {
		s.SnapSeconds = d.SnapSeconds
	}
	if len(c.Cube.Faces) == 0 {
		c.Cube.Faces = def.Cube.Faces
	}
}

// ValidateConfig validates a preset
func ValidateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if err := c.Puzzle.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("%w: puzzle: %v", ErrInvalidConfig, err)
	}
	if c.Puzzle.ResetDelayMs < 0 || c.Puzzle.SkipResetDelayMs < 0 {
		return fmt.Errorf("%w: puzzle reset delays cannot be negative", ErrInvalidConfig)
	}
	for i, img := range c.Puzzle.Images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: puzzle image %d is empty", ErrInvalidConfig, i)
		}
	}
	if err := c.Cube.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: cube: %v", ErrInvalidConfig, err)
	}
	if len(c.Cube.Faces) != cube.FaceCount {
		return fmt.Errorf("%w: cube needs %d faces, got %d", ErrInvalidConfig, cube.FaceCount, len(c.Cube.Faces))
	}
	for i, f := range c.Cube.Faces {
		if f.Title == "" {
			return fmt.Errorf("%w: cube face %s has no title", ErrInvalidConfig, cube.Face(i))
		}
		if f.Image == "" && f.Fallback == "" {
			return fmt.Errorf("%w: cube face %s needs an image or a fallback colour", ErrInvalidConfig, cube.Face(i))
		}
	}
	return nil
}

// ParseConfig decodes, defaults and validates a preset
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.ApplyDefaults()
	if err := ValidateConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfigFromFile reads a preset from a JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config '%s': %w", path, err)
	}
	return c, nil
}

// LoadConfigByName reads dir/name.json
func LoadConfigByName(dir, name string) (*Config, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return LoadConfigFromFile(filepath.Join(dir, name))
}

// Face returns the content of face f, or an empty value when out of range
func (c *Config) Face(f cube.Face) FaceContent {
	if !f.Valid() || int(f) >= len(c.Cube.Faces) {
		return FaceContent{}
	}
	return c.Cube.Faces[f]
}

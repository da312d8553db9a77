// Command validate checks the studio presets in a configs directory
// (../configs by default, or the first argument). It checks:
//   - JSON structure, rejecting unknown fields
//   - Puzzle size, shuffle moves and reset delays
//   - Image lists without blanks or duplicates
//   - Cube tuning and six faces, each with a title and an image or colour
//   - Fallback colours that parse as hex
//   - Shuffled boards that are solvable and not already solved
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/puzzle"
	"github.com/wricardo/photoly-interactive/game/studio"
)

// shuffleSamples is how many shuffled boards are checked per preset
const shuffleSamples = 20

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config studio.Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	config.ApplyDefaults()

	if err := studio.ValidateConfig(&config); err != nil {
		result.fail("%v", err)
	}
	checkImages(&result, config.Puzzle.Images)
	checkFaces(&result, config.Cube.Faces)

	// Shuffle check only makes sense for a board that can be built
	if result.Valid {
		shuffle := validateShuffle(config.Puzzle.EngineConfig(), shuffleSamples)
		result.Valid = shuffle.Valid
		result.Errors = append(result.Errors, shuffle.Errors...)
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Board: %dx%d, %d shuffle moves", config.Puzzle.Size, config.Puzzle.Size, config.Puzzle.Moves()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Images: %d", len(config.Puzzle.Images)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Rounds: reset %dms, skip reset %dms, auto advance %t", config.Puzzle.ResetDelayMs, config.Puzzle.SkipResetDelayMs, config.Puzzle.AutoAdvance))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Snap: threshold %.2f over %.2fs", config.Cube.SnapThreshold, config.Cube.SnapSeconds))
		titles := make([]string, 0, len(config.Cube.Faces))
		for _, f := range config.Cube.Faces {
			titles = append(titles, f.Title)
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Faces: %s", strings.Join(titles, ", ")))
	}

	return result
}

func checkImages(result *ValidationResult, images []string) {
	seen := make(map[string]int, len(images))
	for i, img := range images {
		if prev, ok := seen[img]; ok {
			result.fail("Duplicate puzzle image %q at positions %d and %d", img, prev+1, i+1)
			continue
		}
		seen[img] = i
	}
}

func checkFaces(result *ValidationResult, faces []studio.FaceContent) {
	for i, f := range faces {
		if f.Fallback == "" {
			continue
		}
		if _, err := colorful.Hex(f.Fallback); err != nil {
			result.fail("Face %s has invalid fallback colour %q", cube.Face(i), f.Fallback)
		}
	}
}

// validateShuffle builds boards with a fixed seed and checks that every
// shuffle is solvable and, when shuffling is enabled, not already solved
func validateShuffle(cfg puzzle.Config, samples int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	rng := rand.New(rand.NewPCG(1, 2))
	engine, err := puzzle.NewEngine(cfg, rng)
	if err != nil {
		result.fail("Cannot build puzzle: %v", err)
		return result
	}

	totalDistance := 0
	for i := 0; i < samples; i++ {
		if i > 0 {
			engine.NextRound()
		}
		board := engine.Board()
		if !puzzle.IsSolvable(board.Size(), board.Tiles()) {
			result.fail("Shuffle %d produced an unsolvable board", i+1)
		}
		if cfg.ShuffleMoves > 0 && board.IsSolved() {
			result.fail("Shuffle %d produced an already solved board", i+1)
		}
		totalDistance += board.ManhattanDistance()
	}

	if result.Valid {
		mean := float64(totalDistance) / float64(samples)
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Shuffle: %d boards solvable, mean distance %.1f", samples, mean))
	}
	return result
}

// main validates every *.json preset, printing a concise report and exiting
// with non-zero status if any are invalid
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No presets found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
}

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/photoly-interactive/game/puzzle"
)

const validPreset = `{
	"name": "Test Preset",
	"description": "Test configuration",
	"puzzle": {
		"size": 3,
		"shuffle_moves": 40,
		"images": ["/a.jpg", "/b.jpg"],
		"reset_delay_ms": 1000,
		"skip_reset_delay_ms": 500,
		"auto_advance": true
	},
	"cube": {
		"snap_threshold": 0.8,
		"snap_seconds": 0.3,
		"faces": [
			{"title": "One", "category": "A", "fallback": "#112233"},
			{"title": "Two", "category": "B", "fallback": "#445566"},
			{"title": "Three", "category": "C", "image": "https://example.com/3.jpg"},
			{"title": "Four", "category": "D", "fallback": "#778899"},
			{"title": "Five", "category": "E", "fallback": "#aabbcc"},
			{"title": "Six", "category": "F", "fallback": "#ddeeff"}
		]
	}
}`

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}
	return path
}

func TestValidateConfig_ValidPreset(t *testing.T) {
	result := validateConfig(writePreset(t, validPreset))
	if !result.Valid {
		t.Fatalf("Expected valid preset, but got errors: %v", result.Errors)
	}
	if result.File != "preset.json" {
		t.Errorf("Expected file name preset.json, got %s", result.File)
	}

	for _, want := range []string{"✓ Name: Test Preset", "✓ Board: 3x3, 40 shuffle moves", "✓ Images: 2", "✓ Shuffle:", "✓ Faces: One, Two"} {
		found := false
		for _, info := range result.Errors {
			if strings.Contains(info, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected info line %q in %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	result := validateConfig(writePreset(t, `{"name": "Broken",`))
	if result.Valid {
		t.Error("Expected invalid result for malformed JSON")
	}
	if len(result.Errors) == 0 || !strings.HasPrefix(result.Errors[0], "Invalid JSON") {
		t.Errorf("Expected JSON error, got %v", result.Errors)
	}
}

func TestValidateConfig_UnknownField(t *testing.T) {
	preset := strings.Replace(validPreset, `"shuffle_moves": 40`, `"shuffle_moves": 40, "shufle": 3`, 1)
	result := validateConfig(writePreset(t, preset))
	if result.Valid {
		t.Error("Expected unknown field to be rejected")
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !strings.Contains(result.Errors[0], "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateConfig_Rules(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr string
	}{
		{"missing name", `"name": "Test Preset"`, `"name": ""`, "name is required"},
		{"board too small", `"size": 3`, `"size": 1`, "puzzle"},
		{"negative delay", `"reset_delay_ms": 1000`, `"reset_delay_ms": -1`, "reset delays"},
		{"duplicate image", `["/a.jpg", "/b.jpg"]`, `["/a.jpg", "/a.jpg"]`, "Duplicate puzzle image"},
		{"blank image", `["/a.jpg", "/b.jpg"]`, `["/a.jpg", " "]`, "image 1 is empty"},
		{"bad colour", `"fallback": "#112233"`, `"fallback": "teal-ish"`, "invalid fallback colour"},
		{"snap threshold", `"snap_threshold": 0.8`, `"snap_threshold": 1.5`, "snap_threshold"},
		{"face without title", `"title": "Four"`, `"title": ""`, "has no title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset := strings.Replace(validPreset, tt.from, tt.to, 1)
			if preset == validPreset {
				t.Fatalf("Replacement %q not found in preset", tt.from)
			}

			result := validateConfig(writePreset(t, preset))
			if result.Valid {
				t.Fatalf("Expected invalid preset")
			}
			if !contains(strings.Join(result.Errors, "\n"), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, result.Errors)
			}
		})
	}
}

func TestValidateConfig_DefaultsFillGaps(t *testing.T) {
	result := validateConfig(writePreset(t, `{"name": "Minimal"}`))
	if !result.Valid {
		t.Fatalf("Expected defaults to make a minimal preset valid, got %v", result.Errors)
	}
}

func TestValidateShuffle(t *testing.T) {
	result := validateShuffle(puzzle.Config{Size: 4, ShuffleMoves: 150}, 10)
	if !result.Valid {
		t.Fatalf("Expected solvable shuffles, got %v", result.Errors)
	}
	if !contains(result.Errors[0], "10 boards solvable") {
		t.Errorf("Unexpected summary: %v", result.Errors)
	}
}

func TestValidateShuffle_NoShuffle(t *testing.T) {
	result := validateShuffle(puzzle.Config{Size: 3, ShuffleMoves: 0}, 3)
	if !result.Valid {
		t.Fatalf("Unshuffled boards are allowed, got %v", result.Errors)
	}
	if !contains(result.Errors[0], "mean distance 0.0") {
		t.Errorf("Expected zero distance, got %v", result.Errors)
	}
}

func TestValidateShuffle_BadConfig(t *testing.T) {
	result := validateShuffle(puzzle.Config{Size: 0}, 3)
	if result.Valid {
		t.Error("Expected invalid result for a board that cannot be built")
	}
}

func TestShippedPresets(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if err != nil || len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			result := validateConfig(file)
			if !result.Valid {
				t.Errorf("Shipped preset is invalid: %v", result.Errors)
			}
		})
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

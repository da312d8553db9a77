// Command analyze prints quick, human-readable heuristics about how well
// random-walk shuffles scramble the sliding puzzle. It reports mean Manhattan
// distance and misplaced tiles at several move counts, then the same numbers
// for every preset in the configs directory (or the first argument).
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wricardo/photoly-interactive/game/puzzle"
	"github.com/wricardo/photoly-interactive/game/studio"
)

const defaultSamples = 200

// baselineMoves are the shuffle lengths compared for the stock board
var baselineMoves = []int{10, 25, 50, 100, 150, 300, 1000}

// ShuffleStats summarises many boards shuffled with the same settings
type ShuffleStats struct {
	Size           int
	Moves          int
	Samples        int
	MeanDistance   float64
	MaxDistance    int
	MeanMisplaced  float64
	SolvedByChance int
}

// MisplacedRatio is the mean share of tiles away from home, 0 to 1
func (s ShuffleStats) MisplacedRatio() float64 {
	tiles := s.Size*s.Size - 1
	if tiles <= 0 {
		return 0
	}
	return s.MeanMisplaced / float64(tiles)
}

// Quality labels how scrambled the boards are
func (s ShuffleStats) Quality() string {
	switch r := s.MisplacedRatio(); {
	case s.Moves == 0:
		return "none"
	case r < 0.5:
		return "light"
	case r < 0.85:
		return "moderate"
	default:
		return "thorough"
	}
}

// analyzeShuffle shuffles samples boards. Boards that land solved are
// counted, the engine would reshuffle those.
func analyzeShuffle(size, moves, samples int, rng *rand.Rand) (ShuffleStats, error) {
	stats := ShuffleStats{Size: size, Moves: moves, Samples: samples}
	if samples <= 0 {
		return stats, fmt.Errorf("samples must be positive, got %d", samples)
	}

	distance, misplaced := 0, 0
	for i := 0; i < samples; i++ {
		board, err := puzzle.New(size)
		if err != nil {
			return stats, err
		}
		board.Shuffle(moves, rng)

		d := board.ManhattanDistance()
		distance += d
		misplaced += board.Misplaced()
		if d > stats.MaxDistance {
			stats.MaxDistance = d
		}
		if board.IsSolved() {
			stats.SolvedByChance++
		}
	}

	stats.MeanDistance = float64(distance) / float64(samples)
	stats.MeanMisplaced = float64(misplaced) / float64(samples)
	return stats, nil
}

// PresetStats pairs a preset with its shuffle statistics
type PresetStats struct {
	File  string
	Name  string
	Stats ShuffleStats
}

// analyzePreset loads a preset file and measures its shuffle
func analyzePreset(path string, samples int, rng *rand.Rand) (PresetStats, error) {
	cfg, err := studio.LoadConfigFromFile(path)
	if err != nil {
		return PresetStats{}, err
	}
	stats, err := analyzeShuffle(cfg.Puzzle.Size, cfg.Puzzle.Moves(), samples, rng)
	if err != nil {
		return PresetStats{}, err
	}
	return PresetStats{File: filepath.Base(path), Name: cfg.Name, Stats: stats}, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

func statsRow(s ShuffleStats) []string {
	return []string{
		fmt.Sprintf("%dx%d", s.Size, s.Size),
		strconv.Itoa(s.Moves),
		fmt.Sprintf("%.1f", s.MeanDistance),
		strconv.Itoa(s.MaxDistance),
		fmt.Sprintf("%.1f (%.0f%%)", s.MeanMisplaced, s.MisplacedRatio()*100),
		strconv.Itoa(s.SolvedByChance),
		s.Quality(),
	}
}

var statsHeaders = []string{"Board", "Moves", "Mean distance", "Max", "Misplaced", "Solved", "Quality"}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	rng := rand.New(rand.NewPCG(42, 7))

	fmt.Printf("\n=== Shuffle depth on a %dx%d board (%d samples) ===\n", puzzle.DefaultSize, puzzle.DefaultSize, defaultSamples)
	var rows [][]string
	for _, moves := range baselineMoves {
		stats, err := analyzeShuffle(puzzle.DefaultSize, moves, defaultSamples, rng)
		if err != nil {
			fmt.Printf("Error analysing %d moves: %v\n", moves, err)
			continue
		}
		rows = append(rows, statsRow(stats))
	}
	fmt.Println(renderTable(statsHeaders, rows))

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("\nNo presets found in %s\n", configDir)
		return
	}

	fmt.Printf("\n=== Presets in %s ===\n", configDir)
	rows = nil
	for _, file := range files {
		preset, err := analyzePreset(file, defaultSamples, rng)
		if err != nil {
			fmt.Printf("Error analysing %s: %v\n", filepath.Base(file), err)
			continue
		}
		rows = append(rows, append([]string{preset.Name}, statsRow(preset.Stats)...))
	}
	fmt.Println(renderTable(append([]string{"Preset"}, statsHeaders...), rows))
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/photoly-interactive/game/config"
	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/puzzle"
	"github.com/wricardo/photoly-interactive/game/service"
	"github.com/wricardo/photoly-interactive/game/studio"
	"github.com/wricardo/photoly-interactive/transport/websocket"
)

// MockStudioService implements service.StudioService for testing
type MockStudioService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configID string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error
	StatsFunc         func(ctx context.Context, sessionID string) (*service.Stats, error)

	// Puzzle
	PuzzleStateFunc   func(ctx context.Context, sessionID string) (*service.PuzzleView, error)
	PuzzleMoveFunc    func(ctx context.Context, sessionID string, index int) (*service.PuzzleResult, error)
	PuzzleSwipeFunc   func(ctx context.Context, sessionID, direction string) (*service.PuzzleResult, error)
	PuzzleSkipFunc    func(ctx context.Context, sessionID string) (*service.PuzzleResult, error)
	PuzzleHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Cube
	CubeDragFunc func(ctx context.Context, sessionID string, dx, dy float64) (*service.CubeResult, error)
	CubeStepFunc func(ctx context.Context, sessionID string, frames int, dt float64) (*service.CubeResult, error)
	CubeSnapFunc func(ctx context.Context, sessionID, face string) (*service.CubeResult, error)

	// Configuration
	LoadConfigFunc func(ctx context.Context, configID string) (*studio.Config, error)
	SaveConfigFunc func(ctx context.Context, configID string, cfg *studio.Config) error
}

// Session Management
func (m *MockStudioService) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configID)
	}
	return &service.SessionInfo{ID: "ab12", ConfigName: configID, CreatedAt: time.Now()}, nil
}

func (m *MockStudioService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "Classic", CreatedAt: time.Now()}, nil
}

func (m *MockStudioService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockStudioService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockStudioService) Stats(ctx context.Context, sessionID string) (*service.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, sessionID)
	}
	return &service.Stats{SessionID: sessionID, Alignments: map[string]int{}}, nil
}

// Puzzle
func (m *MockStudioService) PuzzleState(ctx context.Context, sessionID string) (*service.PuzzleView, error) {
	if m.PuzzleStateFunc != nil {
		return m.PuzzleStateFunc(ctx, sessionID)
	}
	return &service.PuzzleView{Round: 1}, nil
}

func (m *MockStudioService) PuzzleMove(ctx context.Context, sessionID string, index int) (*service.PuzzleResult, error) {
	if m.PuzzleMoveFunc != nil {
		return m.PuzzleMoveFunc(ctx, sessionID, index)
	}
	return &service.PuzzleResult{Success: true, Puzzle: &service.PuzzleView{}}, nil
}

func (m *MockStudioService) PuzzleSwipe(ctx context.Context, sessionID, direction string) (*service.PuzzleResult, error) {
	if m.PuzzleSwipeFunc != nil {
		return m.PuzzleSwipeFunc(ctx, sessionID, direction)
	}
	return &service.PuzzleResult{Success: true, Puzzle: &service.PuzzleView{}}, nil
}

func (m *MockStudioService) PuzzleSkip(ctx context.Context, sessionID string) (*service.PuzzleResult, error) {
	if m.PuzzleSkipFunc != nil {
		return m.PuzzleSkipFunc(ctx, sessionID)
	}
	return &service.PuzzleResult{Success: true, Puzzle: &service.PuzzleView{}}, nil
}

func (m *MockStudioService) PuzzleNextRound(ctx context.Context, sessionID string) (*service.PuzzleResult, error) {
	return &service.PuzzleResult{Success: true, Puzzle: &service.PuzzleView{Round: 2}}, nil
}

func (m *MockStudioService) PuzzleHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.PuzzleHistoryFunc != nil {
		return m.PuzzleHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []puzzle.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

// Cube
func (m *MockStudioService) CubeState(ctx context.Context, sessionID string) (*service.CubeView, error) {
	return &service.CubeView{Phase: cube.PhaseIdle, FrontFace: cube.Front}, nil
}

func (m *MockStudioService) CubePointerDown(ctx context.Context, sessionID string) (*service.CubeResult, error) {
	return &service.CubeResult{Success: true, Cube: &service.CubeView{Phase: cube.PhaseDragging}}, nil
}

func (m *MockStudioService) CubeDrag(ctx context.Context, sessionID string, dx, dy float64) (*service.CubeResult, error) {
	if m.CubeDragFunc != nil {
		return m.CubeDragFunc(ctx, sessionID, dx, dy)
	}
	return &service.CubeResult{Success: true, Cube: &service.CubeView{}}, nil
}

func (m *MockStudioService) CubePointerUp(ctx context.Context, sessionID string) (*service.CubeResult, error) {
	return &service.CubeResult{Success: true, Cube: &service.CubeView{Phase: cube.PhaseIdle}}, nil
}

func (m *MockStudioService) CubeStep(ctx context.Context, sessionID string, frames int, dt float64) (*service.CubeResult, error) {
	if m.CubeStepFunc != nil {
		return m.CubeStepFunc(ctx, sessionID, frames, dt)
	}
	return &service.CubeResult{Success: true, Cube: &service.CubeView{}}, nil
}

func (m *MockStudioService) CubeSnap(ctx context.Context, sessionID, face string) (*service.CubeResult, error) {
	if m.CubeSnapFunc != nil {
		return m.CubeSnapFunc(ctx, sessionID, face)
	}
	return &service.CubeResult{Success: true, Cube: &service.CubeView{}}, nil
}

func (m *MockStudioService) CubeRelease(ctx context.Context, sessionID string) (*service.CubeResult, error) {
	return &service.CubeResult{Success: true, Cube: &service.CubeView{Phase: cube.PhaseIdle}}, nil
}

// Configuration
func (m *MockStudioService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", BoardSize: 4}}, nil
}

func (m *MockStudioService) LoadConfig(ctx context.Context, configID string) (*studio.Config, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configID)
	}
	cfg := studio.DefaultConfig()
	cfg.Name = configID
	return cfg, nil
}

func (m *MockStudioService) SaveConfig(ctx context.Context, configID string, cfg *studio.Config) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configID, cfg)
	}
	return nil
}

func (m *MockStudioService) RunFrameLoop(ctx context.Context, fps int) {}

func (m *MockStudioService) Flush(ctx context.Context) error { return nil }

// Test helpers
func setupTestServer(mockService *MockStudioService) *Server {
	return NewServer(mockService, websocket.NewHub(mockService))
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockStudioService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockStudioService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					if configID != "" {
						t.Errorf("Expected empty config ID, got %s", configID)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "Classic"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "easy"},
			setupMock: func(m *MockStudioService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					if configID != "easy" {
						t.Errorf("Expected config ID 'easy', got %s", configID)
					}
					return &service.SessionInfo{ID: "cd34", ConfigName: "Easy"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Legacy config_name is accepted",
			requestBody: map[string]string{"config_name": "showcase"},
			setupMock: func(m *MockStudioService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					if configID != "showcase" {
						t.Errorf("Expected config ID 'showcase', got %s", configID)
					}
					return &service.SessionInfo{ID: "ef56"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockStudioService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config 'nope': %w", config.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockStudioService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockStudioService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			var req *http.Request
			if tt.requestBody == nil {
				req = httptest.NewRequest("POST", "/api/sessions", nil)
			} else {
				req = makeRequest("POST", "/api/sessions", tt.requestBody)
			}
			w := serve(setupTestServer(mockService), req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old1", ConfigName: "Classic", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
			{ID: "mid2", ConfigName: "Easy", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
			{ID: "new3", ConfigName: "Classic", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now},
		}
	}

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
	}{
		{"default sorts by last access desc", "", []string{"new3", "old1", "mid2"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"old1", "mid2", "new3"}, 3},
		{"limit", "?sort=created&limit=1", []string{"new3"}, 3},
		{"filter by config", "?config=Classic&sort=created&order=asc", []string{"old1", "new3"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockStudioService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}
			w := serve(setupTestServer(mockService), httptest.NewRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, resp.Total)
			}
			if resp.Count != len(tt.wantIDs) {
				t.Fatalf("Expected %d sessions, got %d", len(tt.wantIDs), resp.Count)
			}
			for i, id := range tt.wantIDs {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockStudioService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "ab12" {
				return &service.SessionInfo{ID: "ab12"}, nil
			}
			return nil, service.ErrSessionNotFound
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "ab12" {
				return nil
			}
			return service.ErrSessionNotFound
		},
	}
	server := setupTestServer(mockService)

	if w := serve(server, httptest.NewRequest("GET", "/api/sessions/ab12", nil)); w.Code != http.StatusOK {
		t.Errorf("GET existing: expected 200, got %d", w.Code)
	}
	if w := serve(server, httptest.NewRequest("GET", "/api/sessions/zz99", nil)); w.Code != http.StatusNotFound {
		t.Errorf("GET missing: expected 404, got %d", w.Code)
	}
	if w := serve(server, httptest.NewRequest("DELETE", "/api/sessions/ab12", nil)); w.Code != http.StatusOK {
		t.Errorf("DELETE existing: expected 200, got %d", w.Code)
	}
	if w := serve(server, httptest.NewRequest("DELETE", "/api/sessions/zz99", nil)); w.Code != http.StatusNotFound {
		t.Errorf("DELETE missing: expected 404, got %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	mockService := &MockStudioService{
		StatsFunc: func(ctx context.Context, sessionID string) (*service.Stats, error) {
			return &service.Stats{SessionID: sessionID, RoundsSolved: 4, Alignments: map[string]int{"front": 2}}, nil
		},
	}
	w := serve(setupTestServer(mockService), httptest.NewRequest("GET", "/api/sessions/ab12/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp service.Stats
	parseResponse(t, w, &resp)
	if resp.RoundsSolved != 4 || resp.Alignments["front"] != 2 {
		t.Errorf("Unexpected stats: %+v", resp)
	}
}

// Puzzle Tests

func TestPuzzleMove(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockStudioService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Valid move",
			body: map[string]int{"index": 11},
			setupMock: func(m *MockStudioService) {
				m.PuzzleMoveFunc = func(ctx context.Context, sessionID string, index int) (*service.PuzzleResult, error) {
					if index != 11 {
						t.Errorf("Expected index 11, got %d", index)
					}
					return &service.PuzzleResult{Success: true, Tile: 12, Puzzle: &service.PuzzleView{Moves: 1}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.PuzzleResult
				parseResponse(t, w, &resp)
				if !resp.Success || resp.Tile != 12 {
					t.Errorf("Unexpected result: %+v", resp)
				}
			},
		},
		{
			name: "Index zero is a valid index",
			body: map[string]int{"index": 0},
			setupMock: func(m *MockStudioService) {
				m.PuzzleMoveFunc = func(ctx context.Context, sessionID string, index int) (*service.PuzzleResult, error) {
					return &service.PuzzleResult{Success: false, Reason: service.ReasonInvalidMove, Puzzle: &service.PuzzleView{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.PuzzleResult
				parseResponse(t, w, &resp)
				if resp.Success || resp.Reason != service.ReasonInvalidMove {
					t.Errorf("Expected invalid_move no-op, got %+v", resp)
				}
			},
		},
		{
			name:           "Missing index",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unknown session",
			body: map[string]int{"index": 1},
			setupMock: func(m *MockStudioService) {
				m.PuzzleMoveFunc = func(ctx context.Context, sessionID string, index int) (*service.PuzzleResult, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockStudioService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			w := serve(setupTestServer(mockService), makeRequest("POST", "/api/sessions/ab12/puzzle/move", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestPuzzleSwipe(t *testing.T) {
	mockService := &MockStudioService{
		PuzzleSwipeFunc: func(ctx context.Context, sessionID, direction string) (*service.PuzzleResult, error) {
			if direction == "diagonal" {
				return nil, fmt.Errorf("%w: bad direction", service.ErrInvalidInput)
			}
			return &service.PuzzleResult{Success: true, Puzzle: &service.PuzzleView{}}, nil
		},
	}
	server := setupTestServer(mockService)

	if w := serve(server, makeRequest("POST", "/api/sessions/ab12/puzzle/swipe", map[string]string{"direction": "up"})); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := serve(server, makeRequest("POST", "/api/sessions/ab12/puzzle/swipe", map[string]string{"direction": "diagonal"})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad direction, got %d", w.Code)
	}
	req := httptest.NewRequest("POST", "/api/sessions/ab12/puzzle/swipe", strings.NewReader("{"))
	if w := serve(server, req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", w.Code)
	}
}

func TestPuzzleSkipAndNextRound(t *testing.T) {
	mockService := &MockStudioService{
		PuzzleSkipFunc: func(ctx context.Context, sessionID string) (*service.PuzzleResult, error) {
			return &service.PuzzleResult{Success: true, Puzzle: &service.PuzzleView{Phase: puzzle.PhaseSolved, NextRoundInMs: 700}}, nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, httptest.NewRequest("POST", "/api/sessions/ab12/puzzle/skip", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("skip: expected 200, got %d", w.Code)
	}
	var skipped service.PuzzleResult
	parseResponse(t, w, &skipped)
	if skipped.Puzzle.NextRoundInMs != 700 {
		t.Errorf("Expected next round countdown, got %+v", skipped.Puzzle)
	}

	w = serve(server, httptest.NewRequest("POST", "/api/sessions/ab12/puzzle/next-round", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("next-round: expected 200, got %d", w.Code)
	}
	var next service.PuzzleResult
	parseResponse(t, w, &next)
	if next.Puzzle.Round != 2 {
		t.Errorf("Expected round 2, got %d", next.Puzzle.Round)
	}
}

func TestPuzzleHistory(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"garbage falls back", "?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockStudioService{
				PuzzleHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page}, nil
				},
			}
			w := serve(setupTestServer(mockService), httptest.NewRequest("GET", "/api/sessions/ab12/puzzle/history"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			if got != tt.want {
				t.Errorf("Expected options %+v, got %+v", tt.want, got)
			}
		})
	}
}

// Cube Tests

func TestCubeRoutes(t *testing.T) {
	server := setupTestServer(&MockStudioService{})

	routes := []struct {
		method, path string
		body         interface{}
	}{
		{"GET", "/api/sessions/ab12/cube", nil},
		{"POST", "/api/sessions/ab12/cube/pointer-down", nil},
		{"POST", "/api/sessions/ab12/cube/drag", map[string]float64{"dx": 10, "dy": -4}},
		{"POST", "/api/sessions/ab12/cube/pointer-up", nil},
		{"POST", "/api/sessions/ab12/cube/step", map[string]interface{}{"frames": 30}},
		{"POST", "/api/sessions/ab12/cube/snap", map[string]string{"face": "top"}},
		{"POST", "/api/sessions/ab12/cube/release", nil},
	}
	for _, rt := range routes {
		w := serve(server, makeRequest(rt.method, rt.path, rt.body))
		if w.Code != http.StatusOK {
			t.Errorf("%s %s: expected 200, got %d", rt.method, rt.path, w.Code)
		}
	}
}

func TestCubeDragAndStepArguments(t *testing.T) {
	var dx, dy, dt float64
	var frames int
	mockService := &MockStudioService{
		CubeDragFunc: func(ctx context.Context, sessionID string, x, y float64) (*service.CubeResult, error) {
			dx, dy = x, y
			return &service.CubeResult{Success: true}, nil
		},
		CubeStepFunc: func(ctx context.Context, sessionID string, f int, d float64) (*service.CubeResult, error) {
			frames, dt = f, d
			return &service.CubeResult{Success: true}, nil
		},
	}
	server := setupTestServer(mockService)

	serve(server, makeRequest("POST", "/api/sessions/ab12/cube/drag", map[string]float64{"dx": 12.5, "dy": -3}))
	if dx != 12.5 || dy != -3 {
		t.Errorf("Expected drag (12.5,-3), got (%v,%v)", dx, dy)
	}

	// empty body steps one frame with the default dt
	serve(server, httptest.NewRequest("POST", "/api/sessions/ab12/cube/step", nil))
	if frames != 1 || dt != 0 {
		t.Errorf("Expected 1 frame with dt 0, got %d frames dt %v", frames, dt)
	}

	serve(server, makeRequest("POST", "/api/sessions/ab12/cube/step", map[string]interface{}{"frames": 90, "dt": 0.02}))
	if frames != 90 || dt != 0.02 {
		t.Errorf("Expected 90 frames dt 0.02, got %d frames dt %v", frames, dt)
	}
}

func TestCubeSnapErrors(t *testing.T) {
	mockService := &MockStudioService{
		CubeSnapFunc: func(ctx context.Context, sessionID, face string) (*service.CubeResult, error) {
			switch face {
			case "sideways":
				return nil, fmt.Errorf("%w: unknown face", service.ErrInvalidInput)
			case "top":
				return &service.CubeResult{Success: false, Reason: service.ReasonPrecondition, Cube: &service.CubeView{}}, nil
			}
			return &service.CubeResult{Success: true}, nil
		},
	}
	server := setupTestServer(mockService)

	if w := serve(server, makeRequest("POST", "/api/sessions/ab12/cube/snap", map[string]string{"face": "sideways"})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}

	w := serve(server, makeRequest("POST", "/api/sessions/ab12/cube/snap", map[string]string{"face": "top"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for rejected snap, got %d", w.Code)
	}
	var resp service.CubeResult
	parseResponse(t, w, &resp)
	if resp.Reason != service.ReasonPrecondition {
		t.Errorf("Expected reason %s, got %s", service.ReasonPrecondition, resp.Reason)
	}
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	mockService := &MockStudioService{
		LoadConfigFunc: func(ctx context.Context, configID string) (*studio.Config, error) {
			if configID != "classic" {
				return nil, config.ErrConfigNotFound
			}
			return studio.DefaultConfig(), nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, httptest.NewRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list []*service.ConfigInfo
	parseResponse(t, w, &list)
	if len(list) != 1 || list[0].ConfigID != "classic" {
		t.Errorf("Unexpected config list: %+v", list)
	}

	if w := serve(server, httptest.NewRequest("GET", "/api/configs/classic.json", nil)); w.Code != http.StatusOK {
		t.Errorf("get with extension: expected 200, got %d", w.Code)
	}
	if w := serve(server, httptest.NewRequest("GET", "/api/configs/missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("get missing: expected 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	var savedID string
	var saved *studio.Config
	mockService := &MockStudioService{
		SaveConfigFunc: func(ctx context.Context, configID string, cfg *studio.Config) error {
			savedID, saved = configID, cfg
			return studio.ValidateConfig(cfg)
		},
	}
	server := setupTestServer(mockService)

	body := map[string]interface{}{
		"name":   "Spring Sale",
		"puzzle": map[string]interface{}{"size": 3, "shuffle_moves": 20, "images": []string{"/a.jpg"}},
	}
	w := serve(server, makeRequest("POST", "/api/configs", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedID != "spring-sale" {
		t.Errorf("Expected derived ID spring-sale, got %s", savedID)
	}
	if saved.Puzzle.Size != 3 || len(saved.Cube.Faces) != cube.FaceCount {
		t.Errorf("Expected defaults applied around the given puzzle, got %+v", saved)
	}

	if w := serve(server, makeRequest("POST", "/api/configs", map[string]string{"description": "no name"})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without name, got %d", w.Code)
	}

	bad := map[string]interface{}{"name": "Huge", "puzzle": map[string]interface{}{"size": 99}}
	if w := serve(server, makeRequest("POST", "/api/configs", bad)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid config, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	w := serve(setupTestServer(&MockStudioService{}), httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %s", resp["status"])
	}
}

func TestWebSocket(t *testing.T) {
	mockService := &MockStudioService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(mockService)

	if w := serve(server, httptest.NewRequest("GET", "/ws", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session, got %d", w.Code)
	}
	if w := serve(server, httptest.NewRequest("GET", "/ws?session=zz99", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}

	noHub := NewServer(&MockStudioService{}, nil)
	if w := serve(noHub, httptest.NewRequest("GET", "/ws?session=ab12", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without hub, got %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", config.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: face", service.ErrInvalidInput), http.StatusBadRequest},
		{studio.ErrInvalidConfig, http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

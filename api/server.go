package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/photoly-interactive/game/config"
	"github.com/wricardo/photoly-interactive/game/service"
	"github.com/wricardo/photoly-interactive/game/session"
	"github.com/wricardo/photoly-interactive/game/studio"
	"github.com/wricardo/photoly-interactive/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.StudioService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
func NewServer(studioService service.StudioService, hub *websocket.Hub) *Server {
	s := &Server{
		service: studioService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/stats", s.handleStats).Methods("GET")

	// Puzzle
	api.HandleFunc("/sessions/{id}/puzzle", s.handlePuzzleState).Methods("GET")
	api.HandleFunc("/sessions/{id}/puzzle/move", s.handlePuzzleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/swipe", s.handlePuzzleSwipe).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/skip", s.handlePuzzleSkip).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/next-round", s.handlePuzzleNextRound).Methods("POST")
	api.HandleFunc("/sessions/{id}/puzzle/history", s.handlePuzzleHistory).Methods("GET")

	// Cube
	api.HandleFunc("/sessions/{id}/cube", s.handleCubeState).Methods("GET")
	api.HandleFunc("/sessions/{id}/cube/pointer-down", s.handleCubePointerDown).Methods("POST")
	api.HandleFunc("/sessions/{id}/cube/drag", s.handleCubeDrag).Methods("POST")
	api.HandleFunc("/sessions/{id}/cube/pointer-up", s.handleCubePointerUp).Methods("POST")
	api.HandleFunc("/sessions/{id}/cube/step", s.handleCubeStep).Methods("POST")
	api.HandleFunc("/sessions/{id}/cube/snap", s.handleCubeSnap).Methods("POST")
	api.HandleFunc("/sessions/{id}/cube/release", s.handleCubeRelease).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Widget assets
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, studio.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return
	configName := query.Get("config")

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if configName != "" {
		filtered := sessions[:0]
		for _, info := range sessions {
			if info.ConfigName == configName {
				filtered = append(filtered, info)
			}
		}
		sessions = filtered
	}
	total := len(sessions)

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// Puzzle Handlers

func (s *Server) handlePuzzleState(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.PuzzleState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handlePuzzleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: index is required")
		return
	}

	result, err := s.service.PuzzleMove(r.Context(), sessionID, *req.Index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	logPuzzle(sessionID, fmt.Sprintf("move index=%d", *req.Index), result)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePuzzleSwipe(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.PuzzleSwipe(r.Context(), sessionID, req.Direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	logPuzzle(sessionID, "swipe "+req.Direction, result)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePuzzleSkip(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.PuzzleSkip(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePuzzleNextRound(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.PuzzleNextRound(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePuzzleHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.PuzzleHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Cube Handlers

func (s *Server) handleCubeState(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.CubeState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCubePointerDown(w http.ResponseWriter, r *http.Request) {
	s.respondCube(w, r, func(id string) (*service.CubeResult, error) {
		return s.service.CubePointerDown(r.Context(), id)
	})
}

func (s *Server) handleCubeDrag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.respondCube(w, r, func(id string) (*service.CubeResult, error) {
		return s.service.CubeDrag(r.Context(), id, req.DX, req.DY)
	})
}

func (s *Server) handleCubePointerUp(w http.ResponseWriter, r *http.Request) {
	s.respondCube(w, r, func(id string) (*service.CubeResult, error) {
		return s.service.CubePointerUp(r.Context(), id)
	})
}

func (s *Server) handleCubeStep(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Frames int     `json:"frames"`
		DT     float64 `json:"dt"`
	}{Frames: 1}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.respondCube(w, r, func(id string) (*service.CubeResult, error) {
		return s.service.CubeStep(r.Context(), id, req.Frames, req.DT)
	})
}

func (s *Server) handleCubeSnap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Face string `json:"face"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.respondCube(w, r, func(id string) (*service.CubeResult, error) {
		return s.service.CubeSnap(r.Context(), id, req.Face)
	})
}

func (s *Server) handleCubeRelease(w http.ResponseWriter, r *http.Request) {
	s.respondCube(w, r, func(id string) (*service.CubeResult, error) {
		return s.service.CubeRelease(r.Context(), id)
	})
}

func (s *Server) respondCube(w http.ResponseWriter, r *http.Request, op func(id string) (*service.CubeResult, error)) {
	result, err := op(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id"`
		studio.Config
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = slug(req.Name)
	}
	cfg := req.Config
	cfg.ApplyDefaults()

	if err := s.service.SaveConfig(r.Context(), configID, &cfg); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// slug turns a preset name into a file-safe config ID
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// logPuzzle writes a compact line per puzzle input
func logPuzzle(sessionID, input string, result *service.PuzzleResult) {
	ev := log.Debug().Str("session", sessionID).Str("input", input).Bool("success", result.Success)
	if result.Reason != "" {
		ev = ev.Str("reason", result.Reason)
	}
	if result.Puzzle != nil {
		ev = ev.Int("moves", result.Puzzle.Moves).Int("distance", result.Puzzle.Distance)
	}
	ev.Msg("puzzle input")
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/photoly-interactive/game/cube"
	"github.com/wricardo/photoly-interactive/game/service"
)

// default frames stepped after a flick so the cube settles
const flickFrames = 240

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Photoly Studio",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Photoly Studio - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session has two widgets:
- a sliding photo puzzle (square board, one empty cell; solve it to reveal the photo)
- a photo cube you can flick; when it settles on a face it snaps and expands that photo

AVAILABLE TOOLS:
- create_session, get_session, list_sessions, session_stats
- puzzle_state, puzzle_move, puzzle_swipe, puzzle_skip, puzzle_next_round, puzzle_history
- cube_state, cube_flick, cube_step, cube_snap, cube_release
- list_configs, studio_instructions

NOTE: the 'intent' parameter on puzzle_swipe is for your own reasoning; explain the plan!`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnly(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new studio session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active studio sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(sessionOnly("get_session", "Get details of a specific session"), c.handleGetSession)
	c.mcpServer.AddTool(sessionOnly("session_stats", "Rounds solved and skipped, best move count and cube alignments"), c.handleStats)

	// Puzzle
	c.mcpServer.AddTool(sessionOnly("puzzle_state", "Show the sliding puzzle board"), c.handlePuzzleState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_move",
		Description: "Slide the tile at a board index into the empty cell. Only tiles next to the empty cell move.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Row-major board index of the tile to move (0 is top-left)",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handlePuzzleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_swipe",
		Description: "Swipe the board. The tile on the opposite side of the empty cell slides toward it: swiping up moves the tile below the empty cell up.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Swipe direction",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "What you are trying to achieve with this swipe",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handlePuzzleSwipe)

	c.mcpServer.AddTool(sessionOnly("puzzle_skip", "Give up on the round: the board is solved instantly"), c.handlePuzzleSkip)
	c.mcpServer.AddTool(sessionOnly("puzzle_next_round", "Start the next round with the next photo"), c.handlePuzzleNextRound)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_history",
		Description: "Moves made in the current round",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Moves per page (default 20, max 100)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePuzzleHistory)

	// Cube
	c.mcpServer.AddTool(sessionOnly("cube_state", "Show the cube rotation, front face and phase"), c.handleCubeState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cube_flick",
		Description: "Grab the cube, drag it by (dx, dy) pixels and let go, then run frames so momentum plays out",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"dx": map[string]interface{}{
					"type":        "number",
					"description": "Horizontal drag in pixels (positive = right)",
				},
				"dy": map[string]interface{}{
					"type":        "number",
					"description": "Vertical drag in pixels (positive = down)",
				},
				"frames": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Frames to simulate after release (default %d)", flickFrames),
				},
			},
			Required: []string{"session_id", "dx", "dy"},
		},
	}, c.handleCubeFlick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cube_step",
		Description: "Advance the cube animation by a number of frames",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"frames": map[string]interface{}{
					"type":        "integer",
					"description": "Frames to advance (default 60)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleCubeStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "cube_snap",
		Description: "Snap the cube to a face and expand its photo",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"face": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"right", "left", "top", "bottom", "front", "back"},
					"description": "Face to bring forward (default: the current front face)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleCubeSnap)

	c.mcpServer.AddTool(sessionOnly("cube_release", "Close the expanded photo and let the cube spin again"), c.handleCubeRelease)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available studio presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "studio_instructions",
		Description: "How the puzzle and cube widgets behave",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStudioInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := request.GetString("config_id", "")

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall("POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatPuzzle(session.Puzzle))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		round := 0
		if s.Puzzle != nil {
			round = s.Puzzle.Round
		}
		fmt.Fprintf(&result, "- %s (Config: %s, Round: %d, Created: %s)\n",
			s.ID, s.ConfigName, round, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall("GET", sessionPath(request.GetString("session_id", ""), ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiCall("GET", sessionPath(request.GetString("session_id", ""), "/stats"), nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Rounds solved: %d | skipped: %d\n", stats.RoundsSolved, stats.RoundsSkipped)
	if stats.RoundsSolved > 0 {
		fmt.Fprintf(&result, "Best: %d moves | Average: %.1f moves in %.1fs\n", stats.BestMoves, stats.AverageMoves, stats.AverageSeconds)
	}
	for f := cube.Face(0); f < cube.FaceCount; f++ {
		if n := stats.Alignments[f.String()]; n > 0 {
			fmt.Fprintf(&result, "Cube %s expanded %d times\n", f, n)
		}
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handlePuzzleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var view service.PuzzleView
	if err := c.apiCall("GET", sessionPath(request.GetString("session_id", ""), "/puzzle"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPuzzle(&view)), nil
}

func (c *Client) handlePuzzleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]int{"index": int(request.GetFloat("index", -1))}
	return c.puzzleCall(request, "/puzzle/move", body)
}

func (c *Client) handlePuzzleSwipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// intent is only there to make the caller think
	body := map[string]string{"direction": request.GetString("direction", "")}
	return c.puzzleCall(request, "/puzzle/swipe", body)
}

func (c *Client) handlePuzzleSkip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.puzzleCall(request, "/puzzle/skip", nil)
}

func (c *Client) handlePuzzleNextRound(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.puzzleCall(request, "/puzzle/next-round", nil)
}

func (c *Client) puzzleCall(request mcp.CallToolRequest, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.PuzzleResult
	if err := c.apiCall("POST", sessionPath(request.GetString("session_id", ""), suffix), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPuzzleResult(&result)), nil
}

func (c *Client) handlePuzzleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	if page := int(request.GetFloat("page", 0)); page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit := int(request.GetFloat("limit", 0)); limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(request.GetString("session_id", ""), "/puzzle/history")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall("GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleCubeState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var view service.CubeView
	if err := c.apiCall("GET", sessionPath(request.GetString("session_id", ""), "/cube"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCube(&view)), nil
}

func (c *Client) handleCubeFlick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("session_id", "")
	frames := int(request.GetFloat("frames", flickFrames))
	drag := map[string]float64{
		"dx": request.GetFloat("dx", 0),
		"dy": request.GetFloat("dy", 0),
	}

	steps := []struct {
		suffix string
		body   interface{}
	}{
		{"/cube/pointer-down", nil},
		{"/cube/drag", drag},
		{"/cube/pointer-up", nil},
		{"/cube/step", map[string]int{"frames": frames}},
	}

	var events []service.GameEvent
	var last service.CubeResult
	for _, step := range steps {
		last = service.CubeResult{}
		if err := c.apiCall("POST", sessionPath(id, step.suffix), step.body, &last); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !last.Success {
			return mcp.NewToolResultText(formatCubeResult(&last)), nil
		}
		events = append(events, last.Events...)
	}
	last.Events = events

	return mcp.NewToolResultText(formatCubeResult(&last)), nil
}

func (c *Client) handleCubeStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]int{"frames": int(request.GetFloat("frames", 60))}
	return c.cubeCall(request, "/cube/step", body)
}

func (c *Client) handleCubeSnap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if face := request.GetString("face", ""); face != "" {
		body["face"] = face
	}
	return c.cubeCall(request, "/cube/snap", body)
}

func (c *Client) handleCubeRelease(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cubeCall(request, "/cube/release", nil)
}

func (c *Client) cubeCall(request mcp.CallToolRequest, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.CubeResult
	if err := c.apiCall("POST", sessionPath(request.GetString("session_id", ""), suffix), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCubeResult(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&result, "• %s (config_id: %s)\n  %s\n  Board: %dx%d, Shuffle: %d moves, Photos: %d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.BoardSize, cfg.BoardSize, cfg.ShuffleMoves, cfg.Images)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleStudioInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Photoly Studio - Widget Guide

SLIDING PUZZLE:
• The board is N x N with one empty cell; tiles are numbered 1..N²-1 in solved order
• Board indices are row-major: index = row*N + col, 0 is the top-left cell
• Only a tile orthogonally next to the empty cell can move (puzzle_move with its index)
• Swipes name the direction a tile travels: "up" moves the tile BELOW the empty cell up
• Every round starts from a random walk of legal moves, so it is always solvable
• When the board is solved the photo is revealed; the next round uses the next photo
• puzzle_skip solves the board instantly; puzzle_next_round starts a new shuffle

PUZZLE STRATEGY:
• Solve the top row first, then the left column, and repeat on the smaller board
• Place the last two tiles of a row together: park one, rotate the other in beside it
• The manhattan distance in puzzle_state drops to 0 when solved

PHOTO CUBE:
• cube_flick drags the cube and lets go; it keeps spinning and slows down
• Each frame the face pointing most toward the viewer is the front face
• When the spin settles on a face pointing at least the snap threshold toward you,
  the cube snaps square to it and the photo expands
• cube_snap forces a snap to any face; cube_release closes the photo
• Small flicks tend to settle on the face already in front

SCORES:
• session_stats shows rounds solved and skipped, best move counts and which cube
  faces were expanded

Have fun!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatPuzzle(session.Puzzle),
		formatCube(session.Cube))
}

func formatPuzzle(view *service.PuzzleView) string {
	if view == nil || view.Size == 0 {
		return "No puzzle available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Round %d | Moves: %d | Distance: %d | Phase: %s\n",
		view.Round, view.Moves, view.Distance, view.Phase)
	if view.Image != "" {
		fmt.Fprintf(&result, "Photo: %s\n", view.Image)
	}

	width := len(fmt.Sprint(view.Size*view.Size - 1))
	for row := 0; row < view.Size; row++ {
		for col := 0; col < view.Size; col++ {
			if col > 0 {
				result.WriteString(" ")
			}
			idx := row*view.Size + col
			if idx >= len(view.Tiles) || view.Tiles[idx] == 0 {
				result.WriteString(strings.Repeat(" ", width-1) + ".")
				continue
			}
			fmt.Fprintf(&result, "%*d", width, view.Tiles[idx])
		}
		result.WriteString("\n")
	}

	if len(view.ValidMoves) > 0 {
		fmt.Fprintf(&result, "Movable indices: %v (empty at %d)\n", view.ValidMoves, view.EmptyIndex)
	}
	if view.Solved {
		result.WriteString("Solved!")
		if view.NextRoundInMs > 0 {
			fmt.Fprintf(&result, " Next round in %dms", view.NextRoundInMs)
		}
		result.WriteString("\n")
	}
	return result.String()
}

func formatPuzzleResult(result *service.PuzzleResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	b.WriteString(result.Message)
	if result.Reason != "" {
		fmt.Fprintf(&b, " (%s)", result.Reason)
	}
	b.WriteString("\n")
	for _, ev := range result.Events {
		if ev.Type != service.EventPuzzleMoved {
			fmt.Fprintf(&b, "Event: %s %s\n", ev.Type, ev.Message)
		}
	}
	b.WriteString("\n")
	b.WriteString(formatPuzzle(result.Puzzle))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move history (page %d/%d, %d moves total):\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		status := "✓"
		if !m.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "#%d %s tile %d: %d→%d %s\n", m.MoveNumber, m.Action, m.Tile, m.FromIndex, m.ToIndex, status)
	}
	if history.HasNext {
		b.WriteString("(more on the next page)\n")
	}
	return b.String()
}

func formatCube(view *service.CubeView) string {
	if view == nil {
		return "No cube available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cube phase: %s | Front: %s (%.2f)\n", view.Phase, view.FrontName, view.FrontScore)
	fmt.Fprintf(&b, "Rotation: x=%.3f y=%.3f z=%.3f rad | Velocity: (%.4f, %.4f)\n",
		view.Rotation.X, view.Rotation.Y, view.Rotation.Z, view.Velocity.X, view.Velocity.Y)
	if view.Expanded != nil {
		fmt.Fprintf(&b, "Expanded: %s [%s]", view.Expanded.Title, view.Expanded.Category)
		if view.Expanded.Image != "" {
			fmt.Fprintf(&b, " %s", view.Expanded.Image)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatCubeResult(result *service.CubeResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	b.WriteString(result.Message)
	if result.Reason != "" {
		fmt.Fprintf(&b, " (%s)", result.Reason)
	}
	b.WriteString("\n")
	for _, ev := range result.Events {
		if ev.Type != service.EventCubeFrame {
			fmt.Fprintf(&b, "Event: %s %s\n", ev.Type, ev.Message)
		}
	}
	b.WriteString("\n")
	b.WriteString(formatCube(result.Cube))
	return b.String()
}

// Package mcp exposes Photoly Studio to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes one or more REST
// requests against a running server, and the JSON answer is rendered as
// plain text an agent can read (the puzzle board as a number grid, the
// cube as phase, front face and rotation).
//
// Tools:
//   - create_session, get_session, list_sessions, session_stats
//   - puzzle_state, puzzle_move, puzzle_swipe, puzzle_skip,
//     puzzle_next_round, puzzle_history
//   - cube_state, cube_flick, cube_step, cube_snap, cube_release
//   - list_configs, studio_instructions
//
// cube_flick is the only composite tool: pointer-down, drag, pointer-up,
// then a step of enough frames for momentum to settle.
//
// API errors are returned as tool error results, never as Go errors, so
// the agent sees the message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

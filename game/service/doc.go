// Package service provides the business logic layer for Photoly Studio.
//
// The service package implements:
//   - Multi-session management of the puzzle and cube widgets
//   - Preset loading through a ConfigManager
//   - Event fan-out to an optional Publisher (the websocket hub)
//   - Stats recording for finished rounds and cube alignments
//   - Automatic advance to the next round after a solve or skip
//
// Core Interfaces:
//
// StudioService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
// StatsStore persists play statistics.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP and
// the terminal player) and the two engines in game/puzzle and game/cube.
// Engines are not safe for concurrent use, so every mutation runs under the
// service lock; the frame loop started by RunFrameLoop takes the same lock
// to advance each session's cube.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewStudioService(sessionMgr, configMgr,
//		service.WithPublisher(hub),
//		service.WithLogger(log.Logger),
//	)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal().Err(err).Msg("create session")
//	}
//	res, err := svc.PuzzleSwipe(ctx, info.ID, "up")
//
// Rejected input (a tile that cannot move, a snap whose preconditions do not
// hold) is not an error: the result carries Success=false and a Reason code.
// Errors are reserved for unknown sessions and malformed input.
package service

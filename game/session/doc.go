// Package session provides session management for Photoly Studio.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiry
//   - JSON file persistence of puzzle and cube state
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence stores one JSON document per session. A stored session
// is rebuilt from its preset and then restored from the saved puzzle and
// cube state, so a preset whose board size changed can no longer be loaded.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs generated with crypto/rand. Custom IDs
// are accepted when they are lowercase letters, digits, '-' or '_'; lookups
// are case-insensitive.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("sessions", configMgr)
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Warn().Err(err).Msg("could not load sessions")
//	}
//
//	sess, err := manager.Create("", "classic", preset)
//
// Cleanup:
//
// CleanupExpiredSessions drops idle sessions from memory. Their files are
// kept, and Get loads them back on the next access.
package session

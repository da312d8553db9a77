// Package api provides the HTTP REST API for Photoly Studio widgets.
//
// Endpoints:
//
// Session Management:
//   - POST   /api/sessions               - Create session ({"config_id":"classic"})
//   - GET    /api/sessions               - List sessions (?sort=created|accessed&order=asc|desc&limit=N&config=Name)
//   - GET    /api/sessions/{id}          - Session info with puzzle and cube views
//   - DELETE /api/sessions/{id}          - Delete session
//   - GET    /api/sessions/{id}/stats    - Solved/skipped rounds and cube alignments
//
// Puzzle:
//   - GET  /api/sessions/{id}/puzzle            - Board, layout and round state
//   - POST /api/sessions/{id}/puzzle/move       - {"index": 14}
//   - POST /api/sessions/{id}/puzzle/swipe      - {"direction": "up|down|left|right"}
//   - POST /api/sessions/{id}/puzzle/skip       - Solve the round instantly
//   - POST /api/sessions/{id}/puzzle/next-round - Start the next round now
//   - GET  /api/sessions/{id}/puzzle/history    - ?page=1&limit=20&order=desc
//
// Cube:
//   - GET  /api/sessions/{id}/cube              - Rotation, front face and phase
//   - POST /api/sessions/{id}/cube/pointer-down
//   - POST /api/sessions/{id}/cube/drag         - {"dx": 12.5, "dy": -3}
//   - POST /api/sessions/{id}/cube/pointer-up
//   - POST /api/sessions/{id}/cube/step         - {"frames": 60, "dt": 0.016}
//   - POST /api/sessions/{id}/cube/snap         - {"face": "top"} or {} for the front face
//   - POST /api/sessions/{id}/cube/release
//
// Configuration:
//   - GET  /api/configs        - List presets
//   - POST /api/configs        - Save a preset (missing fields take defaults)
//   - GET  /api/configs/{name} - Load a preset
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - WebSocket upgrade, see package websocket
//
// Inputs the engines reject (a tile that is not adjacent to the empty cell,
// a snap while dragging) are not HTTP errors: they return 200 with
// "success": false and a "reason" code. Errors are JSON with a status code:
//
//	{"error": "session not found"}
//
// 400 for malformed input, 404 for unknown sessions and presets, 500 otherwise.
package api

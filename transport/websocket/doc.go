// Package websocket pushes studio events to browser widgets and accepts
// pointer and puzzle actions from them.
//
// Clients connect to /ws?session=<id>. A single Hub goroutine owns the
// client registry; everything else talks to it through channels. The hub
// implements service.Publisher, so every GameEvent a session emits
// (puzzle_moved, cube_frame, cube_expand, ...) reaches the clients of
// that session only.
//
// Outgoing messages:
//
//	{"session_id":"ab12","event":"cube_frame","data":{...GameEvent...}}
//
// Several queued messages may share one frame, separated by newlines.
//
// Incoming actions:
//
//	{"action":"swipe","direction":"left"}
//	{"action":"move","index":14}
//	{"action":"pointer_down"}
//	{"action":"drag","dx":12.5,"dy":-3}
//	{"action":"pointer_up"}
//	{"action":"snap","face":"top"}
//	{"action":"skip"} {"action":"next_round"} {"action":"release"}
//
// Each action is answered to the sender with a "result" message carrying
// the operation result, or an "error" message.
package websocket

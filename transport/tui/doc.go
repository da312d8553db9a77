// Package tui is a terminal player for the studio widgets.
//
// It runs its own puzzle engine and cube tracker, without a server. The cube
// advances at 60 frames per second. Keys:
//
//	puzzle: arrows swipe, s skip, n next round
//	cube:   w/a/s/d flick, enter snap to the front face, esc release
//	both:   tab switches widget, q quits
package tui

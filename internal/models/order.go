package models

// OrderAssigner computes the position of a membership appended to a playlist.
//
// max is the largest position currently in the playlist and ok is false when the playlist is empty.
type OrderAssigner func(max int, ok bool) int

// NextOrder is the default [OrderAssigner]: 1 for an empty playlist, otherwise max + 1.
func NextOrder(max int, ok bool) int {
	if !ok {
		return 1
	}
	return max + 1
}

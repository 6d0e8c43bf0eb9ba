package core

import "strings"

// Key and mouse button codes use GLFW numbering.
const (
	KeySpace  = 32
	KeyA      = 65
	KeyD      = 68
	KeyE      = 69
	KeyP      = 80
	KeyQ      = 81
	KeyS      = 83
	KeyW      = 87
	KeyEscape = 256
	KeyEnter  = 257
	KeyF1     = 290

	KeyArrowRight = 262
	KeyArrowLeft  = 263
	KeyArrowDown  = 264
	KeyArrowUp    = 265
)

const (
	MouseLeft   = 0
	MouseRight  = 1
	MouseMiddle = 2
)

var keyNames = map[string]int{
	"space":  KeySpace,
	"a":      KeyA,
	"d":      KeyD,
	"e":      KeyE,
	"p":      KeyP,
	"q":      KeyQ,
	"s":      KeyS,
	"w":      KeyW,
	"escape": KeyEscape,
	"enter":  KeyEnter,
	"right":  KeyArrowRight,
	"left":   KeyArrowLeft,
	"down":   KeyArrowDown,
	"up":     KeyArrowUp,
	"f1":     KeyF1,
}

// KeyByName resolves a configured key name such as "space" or "p".
func KeyByName(name string) (int, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

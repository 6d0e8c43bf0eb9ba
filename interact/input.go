package interact

import (
	"physics-viewer/core"
)

// Device is the polled input surface of a window.
type Device interface {
	IsKeyPressed(key int) bool
	IsMouseButtonPressed(button int) bool
	GetCursorPos() (float64, float64)
}

// watchedKeys are the keys the camera controls poll each frame.
var watchedKeys = []int{
	core.KeyW, core.KeyA, core.KeyS, core.KeyD, core.KeyE, core.KeyQ,
	core.KeyArrowUp, core.KeyArrowDown, core.KeyArrowLeft, core.KeyArrowRight,
}

// Input tracks mouse and keyboard state between frames.
type Input struct {
	// Mouse state
	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	lastMouseX, lastMouseY   float64

	// Button states
	mouseButtons     [3]bool
	mouseButtonsPrev [3]bool

	keys       map[int]bool
	firstFrame bool
}

func NewInput() *Input {
	return &Input{
		keys:       make(map[int]bool, len(watchedKeys)),
		firstFrame: true,
	}
}

// Update should be called once per frame to compute deltas and poll state
func (in *Input) Update(dev Device) {
	x, y := dev.GetCursorPos()
	if in.firstFrame {
		in.lastMouseX = x
		in.lastMouseY = y
		in.firstFrame = false
	}
	in.MouseDeltaX = x - in.lastMouseX
	in.MouseDeltaY = y - in.lastMouseY
	in.lastMouseX = x
	in.lastMouseY = y
	in.MouseX = x
	in.MouseY = y

	in.mouseButtonsPrev = in.mouseButtons
	for b := range in.mouseButtons {
		in.mouseButtons[b] = dev.IsMouseButtonPressed(b)
	}
	for _, k := range watchedKeys {
		in.keys[k] = dev.IsKeyPressed(k)
	}
}

func (in *Input) IsMouseDown(button int) bool {
	if button < 0 || button >= len(in.mouseButtons) {
		return false
	}
	return in.mouseButtons[button]
}

func (in *Input) IsMousePressed(button int) bool {
	if button < 0 || button >= len(in.mouseButtons) {
		return false
	}
	return in.mouseButtons[button] && !in.mouseButtonsPrev[button]
}

func (in *Input) IsKeyDown(key int) bool {
	return in.keys[key]
}

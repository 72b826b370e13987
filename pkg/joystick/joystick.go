// Package joystick reads a handheld controller through the Linux joystick
// driver (/dev/input/js*) and exposes its state as per-tick snapshots.
package joystick

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"syscall"
)

// Axis and button numbering for a PS4-style pad under the Linux driver:
//
// Axes
//
//	L stick l/r = 0 (left = -32767; right = +32767)
//	        u/d = 1 (up = -32767; down = +32767)
//	L2          = 2 (unpressed = -32767; fully-pressed = 32767)
//	R stick l/r = 3
//	        u/d = 4
//	R2          = 5
//
// Buttons
//
//	Cross = 0, Circle = 1, Triangle = 2, Square = 3,
//	L1 = 4, R1 = 5, L2 = 6, R2 = 7, Share = 8, Options = 9
const (
	AxisLStickX = 0
	AxisLStickY = 1
	AxisL2      = 2
	AxisRStickX = 3
	AxisRStickY = 4
	AxisR2      = 5

	ButtonCross    = 0
	ButtonCircle   = 1
	ButtonTriangle = 2
	ButtonSquare   = 3
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonL2       = 6
	ButtonR2       = 7
	ButtonShare    = 8
	ButtonOptions  = 9
)

const (
	eventTypeButton = 1
	eventTypeAxis   = 2
	eventTypeInit   = 0x80
)

// Device is the collaborator contract consumed by the control loop. Update
// must be called once per tick before reading Axis or Button.
type Device interface {
	Update() error
	Axis() map[int]int
	Button() map[int]bool
}

// rawEvent mirrors struct js_event from linux/joystick.h.
type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

// Joystick folds driver events into axis/button state.
type Joystick struct {
	device  *os.File
	axes    map[int]int
	buttons map[int]bool
}

var _ Device = (*Joystick)(nil)

// Open opens the joystick device in non-blocking mode so Update can drain
// pending events without stalling the tick.
func Open(device string) (*Joystick, error) {
	f, err := os.OpenFile(device, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	return &Joystick{
		device:  f,
		axes:    make(map[int]int),
		buttons: make(map[int]bool),
	}, nil
}

// Update drains all pending driver events into the current snapshot.
func (j *Joystick) Update() error {
	for {
		var ev rawEvent
		err := binary.Read(j.device, binary.LittleEndian, &ev)
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		// Synthetic init events carry the current state at open; fold them
		// in the same as live events.
		switch ev.Type &^ eventTypeInit {
		case eventTypeAxis:
			j.axes[int(ev.Number)] = int(ev.Value)
		case eventTypeButton:
			j.buttons[int(ev.Number)] = ev.Value != 0
		}
	}
}

// Axis returns a copy of the latest axis snapshot.
func (j *Joystick) Axis() map[int]int {
	out := make(map[int]int, len(j.axes))
	for id, v := range j.axes {
		out[id] = v
	}
	return out
}

// Button returns a copy of the latest button snapshot.
func (j *Joystick) Button() map[int]bool {
	out := make(map[int]bool, len(j.buttons))
	for id, v := range j.buttons {
		out[id] = v
	}
	return out
}

// Close closes the underlying device.
func (j *Joystick) Close() error {
	return j.device.Close()
}

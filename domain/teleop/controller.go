// Package teleop implements the per-tick control pipeline of the arm
// controller: joystick input is routed into a 7-DOF pose offset, resolved
// through kinematics into joint-angle targets and, when worth preempting the
// motion in flight, pushed to the serial link.
package teleop

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/open-teleop/armctl/domain/diagnostic"
	"github.com/open-teleop/armctl/pkg/config"
	"github.com/open-teleop/armctl/pkg/input"
	"github.com/open-teleop/armctl/pkg/joystick"
	"github.com/open-teleop/armctl/pkg/kinematics"
	customlog "github.com/open-teleop/armctl/pkg/log"
	"github.com/open-teleop/armctl/pkg/pose"
	"github.com/open-teleop/armctl/pkg/serialarm"
)

// NumJoints is the number of arm joints commanded over the serial link. The
// gripper angle travels as a trailing extra value.
const NumJoints = 6

type speedCategory int

const (
	categoryTranslation speedCategory = iota
	categoryRotation
)

// axisRoute sends one adapted physical axis into a pose component. The speed
// category names which configured scalar multiplies the delta.
type axisRoute struct {
	axis     int
	slot     int
	sign     float64
	category speedCategory
}

// State is a snapshot of the controller published after each tick.
type State struct {
	Tick         uint64      `json:"tick"`
	Offset       pose.Offset `json:"offset"`
	RotationMode bool        `json:"rotation_mode"`
	TargetDeg    []float64   `json:"target_deg,omitempty"`
	Submitted    bool        `json:"submitted"`
}

// Controller drives one arm from one joystick. Tick is synchronous and must
// be called from a single goroutine; State, Offset and ShouldQuit are safe
// to call concurrently with Tick.
type Controller struct {
	logger   customlog.Logger
	joystick joystick.Device
	solver   kinematics.Solver
	serial   serialarm.Client
	metrics  *diagnostic.Service

	translationSpeed float64
	rotationSpeed    float64
	axes             config.AxisMapping
	modeButton       int
	quitButton       int

	// Neutral end-effector pose at the zero joint configuration, the
	// reference frame for every accumulated offset.
	neutral *mat.Dense

	// Routing tables, fixed at construction. The twist channel keeps its
	// slot in both tables but its speed category follows the mode flag;
	// that mirrors the pendant firmware and is covered by tests, do not
	// "fix" it without confirming intent.
	translationRoutes []axisRoute
	rotationRoutes    []axisRoute

	acc pose.Accumulator

	mu    sync.RWMutex
	state State
}

// NewController builds the controller around its collaborators. The neutral
// pose is computed once via forward kinematics of the zero configuration.
func NewController(cfg *config.Config, dev joystick.Device, solver kinematics.Solver, client serialarm.Client, metrics *diagnostic.Service, logger customlog.Logger) *Controller {
	ax := cfg.Joystick.Axes
	c := &Controller{
		logger:           logger,
		joystick:         dev,
		solver:           solver,
		serial:           client,
		metrics:          metrics,
		translationSpeed: cfg.Control.TranslationSpeed,
		rotationSpeed:    cfg.Control.RotationSpeed,
		axes:             ax,
		modeButton:       cfg.Joystick.Buttons.Mode,
		quitButton:       cfg.Joystick.Buttons.Quit,
		neutral:          solver.Forward(make([]float64, NumJoints)),
	}

	c.translationRoutes = []axisRoute{
		{axis: ax.Lateral, slot: pose.Y, sign: 1, category: categoryTranslation},
		{axis: ax.Primary, slot: pose.X, sign: 1, category: categoryTranslation},
		{axis: ax.Secondary, slot: pose.Z, sign: -1, category: categoryTranslation},
		{axis: ax.Twist, slot: pose.A3, sign: 1, category: categoryTranslation},
	}
	c.rotationRoutes = []axisRoute{
		{axis: ax.Lateral, slot: pose.Y, sign: 1, category: categoryTranslation},
		{axis: ax.Primary, slot: pose.A1, sign: -1, category: categoryRotation},
		{axis: ax.Secondary, slot: pose.A2, sign: 1, category: categoryRotation},
		{axis: ax.Twist, slot: pose.A3, sign: 1, category: categoryRotation},
	}

	return c
}

// Tick runs one full control cycle. dt scales this tick's deltas; values
// <= 0 mean 1. The only error condition is a joystick read failure; every
// downstream "failure" is a normal no-transmission outcome.
func (c *Controller) Tick(dt float64) error {
	if dt <= 0 {
		dt = 1
	}

	if err := c.joystick.Update(); err != nil {
		return err
	}
	axes := c.joystick.Axis()
	buttons := c.joystick.Button()

	mode := buttons[c.modeButton]
	delta, speed := c.route(mode, axes)
	offset := c.acc.Apply(delta, speed, dt)

	target := c.resolve(offset)
	submitted := c.maybeSubmit(target)

	c.metrics.RecordTick()

	c.mu.Lock()
	c.state = State{
		Tick:         c.state.Tick + 1,
		Offset:       offset,
		RotationMode: mode,
		TargetDeg:    target,
		Submitted:    submitted,
	}
	c.mu.Unlock()

	return nil
}

// route applies the input adapter to the snapshot and spreads the results
// over pose components per the mode's routing table. Axes missing from the
// snapshot read as raw 0.
func (c *Controller) route(rotationMode bool, axes map[int]int) (delta, speed pose.Offset) {
	routes := c.translationRoutes
	if rotationMode {
		routes = c.rotationRoutes
	}

	for _, r := range routes {
		delta[r.slot] = r.sign * input.Adapt(axes[r.axis])
		speed[r.slot] = c.speedFor(r.category)
	}

	// The gripper channel is live in both modes.
	delta[pose.Gripper] = input.Adapt(axes[c.axes.GripperOpen]) - input.Adapt(axes[c.axes.GripperClose])
	speed[pose.Gripper] = c.translationSpeed

	return delta, speed
}

func (c *Controller) speedFor(cat speedCategory) float64 {
	if cat == categoryRotation {
		return c.rotationSpeed
	}
	return c.translationSpeed
}

// resolve turns the accumulated offset into a joint-angle target in degrees,
// or nil when the pose is unreachable. The accumulation is never rolled
// back; only transmission is skipped.
func (c *Controller) resolve(offset pose.Offset) []float64 {
	var target mat.Dense
	target.Mul(c.neutral, offset.Transform())

	joints, ok := c.solver.Inverse(&target)
	if !ok {
		c.metrics.RecordIKFailure()
		c.logger.Debugf("No IK solution for offset %v, skipping transmission", offset)
		return nil
	}

	return kinematics.Degrees(append(joints, offset[pose.Gripper]))
}

// maybeSubmit applies the admission rule: push the target only when the link
// is ready and the new motion would take meaningfully longer than letting
// the in-flight one finish.
func (c *Controller) maybeSubmit(target []float64) bool {
	if target == nil {
		return false
	}
	if !c.serial.Ready() {
		c.metrics.RecordSkipNotReady()
		return false
	}

	required := c.serial.TimeRequired(target)
	remaining := c.serial.TimeRemaining()
	if required <= 2*remaining {
		c.metrics.RecordSkipTiming()
		return false
	}

	c.serial.Target(target)
	c.metrics.RecordSubmission(target)
	return true
}

// Offset returns the accumulated pose offset as of the last completed tick.
func (c *Controller) Offset() pose.Offset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Offset
}

// State returns the snapshot of the last completed tick.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.state
	s.TargetDeg = append([]float64(nil), c.state.TargetDeg...)
	return s
}

// ShouldQuit reports whether the quit button is pressed in the latest
// joystick snapshot, false when the button is absent.
func (c *Controller) ShouldQuit() bool {
	return c.joystick.Button()[c.quitButton]
}

// Package serialarm talks to the arm microcontroller over a serial line.
// Targets are joint angles in degrees; transmission is fire-and-forget.
package serialarm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	customlog "github.com/open-teleop/armctl/pkg/log"
)

// Client is the collaborator contract consumed by the control loop.
type Client interface {
	// Ready reports whether the link is up and the firmware has completed
	// its handshake. Polled every tick; false is normal flow control.
	Ready() bool
	// TimeRemaining estimates seconds left on the target currently in flight.
	TimeRemaining() float64
	// TimeRequired estimates seconds the firmware would need to reach deg
	// from its current commanded state.
	TimeRequired(deg []float64) float64
	// Target submits a new joint-angle target. No acknowledgment is awaited.
	Target(deg []float64)
}

// DefaultJointSpeed is the firmware's profile velocity in degrees per
// second, used to estimate motion times on the host side.
const DefaultJointSpeed = 45.0

// SerialClient implements Client over a line-oriented serial protocol:
// the firmware prints "READY" once booted and accepts "T d1 d2 ... dn"
// target lines.
type SerialClient struct {
	port   io.ReadWriteCloser
	logger customlog.Logger

	jointSpeed float64
	now        func() time.Time

	mu          sync.Mutex
	ready       bool
	commanded   []float64
	motionStart time.Time
	motionTime  float64
}

var _ Client = (*SerialClient)(nil)

// Dial opens the serial device and performs the readiness handshake.
func Dial(device string, baud int, logger customlog.Logger) (*SerialClient, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening serial device '%s': %w", device, err)
	}

	c := NewClient(port, logger)
	if err := c.Handshake(); err != nil {
		port.Close()
		return nil, err
	}
	logger.Infof("Serial link ready on %s at %d baud", device, baud)
	return c, nil
}

// NewClient wraps an already-open port. Handshake must be called before the
// client reports ready.
func NewClient(port io.ReadWriteCloser, logger customlog.Logger) *SerialClient {
	return &SerialClient{
		port:       port,
		logger:     logger,
		jointSpeed: DefaultJointSpeed,
		now:        time.Now,
	}
}

// Handshake reads firmware output until the READY banner appears.
func (c *SerialClient) Handshake() error {
	scanner := bufio.NewScanner(c.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "READY" {
			c.mu.Lock()
			c.ready = true
			c.mu.Unlock()
			return nil
		}
		c.logger.Debugf("Serial handshake: ignoring line %q", line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading handshake from arm: %w", err)
	}
	return fmt.Errorf("arm closed the link before READY")
}

// Ready reports whether the handshake completed.
func (c *SerialClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// TimeRemaining estimates seconds left on the in-flight target.
func (c *SerialClient) TimeRemaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.motionTime == 0 {
		return 0
	}
	elapsed := c.now().Sub(c.motionStart).Seconds()
	if remaining := c.motionTime - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

// TimeRequired estimates the motion time to deg from the last commanded
// state: the largest per-joint excursion divided by the profile velocity.
func (c *SerialClient) TimeRequired(deg []float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeRequiredLocked(deg)
}

func (c *SerialClient) timeRequiredLocked(deg []float64) float64 {
	maxDelta := 0.0
	for i, d := range deg {
		from := 0.0
		if i < len(c.commanded) {
			from = c.commanded[i]
		}
		delta := d - from
		if delta < 0 {
			delta = -delta
		}
		if delta > maxDelta {
			maxDelta = delta
		}
	}
	return maxDelta / c.jointSpeed
}

// Target writes the target line and updates the motion bookkeeping. Write
// failures drop the link to not-ready; the loop keeps polling.
func (c *SerialClient) Target(deg []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("T")
	for _, d := range deg {
		fmt.Fprintf(&sb, " %.2f", d)
	}
	sb.WriteString("\r\n")

	if _, err := io.WriteString(c.port, sb.String()); err != nil {
		c.logger.Errorf("Serial write failed, marking link not ready: %v", err)
		c.ready = false
		return
	}

	c.motionTime = c.timeRequiredLocked(deg)
	c.motionStart = c.now()
	c.commanded = append(c.commanded[:0], deg...)
}

// Close closes the underlying port.
func (c *SerialClient) Close() error {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()
	return c.port.Close()
}

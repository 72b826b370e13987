package serialarm

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	customlog "github.com/open-teleop/armctl/pkg/log"
)

// fakePort is an in-memory ReadWriteCloser standing in for the serial port.
type fakePort struct {
	io.Reader
	wr bytes.Buffer
}

func newFakePort(firmwareOutput string) *fakePort {
	return &fakePort{Reader: strings.NewReader(firmwareOutput)}
}

func (p *fakePort) Write(b []byte) (int, error) { return p.wr.Write(b) }
func (p *fakePort) Close() error                { return nil }

func testLogger(t *testing.T) customlog.Logger {
	t.Helper()
	logger, err := customlog.NewLogrusLogger("error", "")
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func TestHandshake(t *testing.T) {
	port := newFakePort("armctl-fw 1.2\nREADY\n")
	c := NewClient(port, testLogger(t))

	if c.Ready() {
		t.Error("client ready before handshake")
	}
	if err := c.Handshake(); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}
	if !c.Ready() {
		t.Error("client not ready after READY banner")
	}
}

func TestHandshakeNoBanner(t *testing.T) {
	port := newFakePort("garbage\n")
	c := NewClient(port, testLogger(t))

	if err := c.Handshake(); err == nil {
		t.Fatal("Handshake succeeded without READY banner")
	}
	if c.Ready() {
		t.Error("client ready despite failed handshake")
	}
}

func TestTargetWireFormat(t *testing.T) {
	port := newFakePort("READY\n")
	c := NewClient(port, testLogger(t))
	if err := c.Handshake(); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}

	c.Target([]float64{90, -45.5, 0, 10.25, 0, 0, 30})

	got := port.wr.String()
	want := "T 90.00 -45.50 0.00 10.25 0.00 0.00 30.00\r\n"
	if got != want {
		t.Errorf("wire line = %q, want %q", got, want)
	}
}

func TestTimeRequired(t *testing.T) {
	c := NewClient(newFakePort(""), testLogger(t))

	// From the zero commanded state, the largest excursion dominates.
	got := c.TimeRequired([]float64{90, -45, 10})
	want := 90.0 / DefaultJointSpeed
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TimeRequired = %v, want %v", got, want)
	}

	c.Target([]float64{90, -45, 10})

	// After commanding, estimates are relative to the commanded state.
	if got := c.TimeRequired([]float64{90, -45, 10}); got != 0 {
		t.Errorf("TimeRequired for the commanded target = %v, want 0", got)
	}
	got = c.TimeRequired([]float64{0, -45, 10})
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TimeRequired back to zero = %v, want %v", got, want)
	}
}

func TestTimeRemaining(t *testing.T) {
	c := NewClient(newFakePort(""), testLogger(t))
	base := time.Now()
	c.now = func() time.Time { return base }

	if got := c.TimeRemaining(); got != 0 {
		t.Errorf("TimeRemaining with no motion = %v, want 0", got)
	}

	c.Target([]float64{90}) // 2s of motion at the default joint speed

	c.now = func() time.Time { return base.Add(500 * time.Millisecond) }
	if got := c.TimeRemaining(); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("TimeRemaining after 0.5s = %v, want 1.5", got)
	}

	c.now = func() time.Time { return base.Add(time.Hour) }
	if got := c.TimeRemaining(); got != 0 {
		t.Errorf("TimeRemaining after motion end = %v, want 0", got)
	}
}

package telemetry

import (
	"math"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/armctl/domain/teleop"
	fb "github.com/open-teleop/armctl/pkg/flatbuffers/open_teleop/telemetry"
	"github.com/open-teleop/armctl/pkg/pose"
)

func TestEncodeState(t *testing.T) {
	state := teleop.State{
		Tick:         42,
		Offset:       pose.Offset{0.1, -0.2, 0.3, 0, 0, 1.5, 0.05},
		RotationMode: true,
		TargetDeg:    []float64{90, -45, 10, 0, 0, 5, 2.5},
		Submitted:    true,
	}

	builder := flatbuffers.NewBuilder(256)
	payload := encodeState(builder, state, 1234567890)

	decoded := fb.GetRootAsArmState(payload, 0)
	if decoded.TimestampNs() != 1234567890 {
		t.Errorf("timestamp = %d, want 1234567890", decoded.TimestampNs())
	}
	if decoded.Tick() != 42 {
		t.Errorf("tick = %d, want 42", decoded.Tick())
	}
	if !decoded.RotationMode() {
		t.Error("rotation_mode not set")
	}
	if !decoded.Submitted() {
		t.Error("submitted not set")
	}

	if decoded.OffsetLength() != pose.Components {
		t.Fatalf("offset length = %d, want %d", decoded.OffsetLength(), pose.Components)
	}
	for i := 0; i < pose.Components; i++ {
		if math.Abs(decoded.Offset(i)-state.Offset[i]) > 1e-12 {
			t.Errorf("offset[%d] = %v, want %v", i, decoded.Offset(i), state.Offset[i])
		}
	}

	if decoded.TargetDegLength() != len(state.TargetDeg) {
		t.Fatalf("target length = %d, want %d", decoded.TargetDegLength(), len(state.TargetDeg))
	}
	for i := range state.TargetDeg {
		if math.Abs(decoded.TargetDeg(i)-state.TargetDeg[i]) > 1e-12 {
			t.Errorf("target_deg[%d] = %v, want %v", i, decoded.TargetDeg(i), state.TargetDeg[i])
		}
	}
}

func TestEncodeStateWithoutTarget(t *testing.T) {
	// A tick with no IK solution publishes with the target vector absent.
	state := teleop.State{Tick: 7, Offset: pose.Offset{1, 2, 3, 0, 0, 0, 0}}

	builder := flatbuffers.NewBuilder(256)
	payload := encodeState(builder, state, 1)

	decoded := fb.GetRootAsArmState(payload, 0)
	if decoded.TargetDegLength() != 0 {
		t.Errorf("target length = %d, want 0", decoded.TargetDegLength())
	}
	if decoded.Submitted() {
		t.Error("submitted set on a tick with no target")
	}

	// Builder reuse must not leak state between messages.
	second := encodeState(builder, teleop.State{Tick: 8, Offset: pose.Offset{}}, 2)
	if got := fb.GetRootAsArmState(second, 0).Tick(); got != 8 {
		t.Errorf("second message tick = %d, want 8", got)
	}
}

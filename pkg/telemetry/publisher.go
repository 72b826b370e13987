// Package telemetry broadcasts per-tick arm state to downstream gateways
// over a ZeroMQ PUB socket, encoded as FlatBuffers.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
	zmq "github.com/pebbe/zmq4"

	"github.com/open-teleop/armctl/domain/teleop"
	fb "github.com/open-teleop/armctl/pkg/flatbuffers/open_teleop/telemetry"
	customlog "github.com/open-teleop/armctl/pkg/log"
	"github.com/open-teleop/armctl/pkg/pose"
)

// StateTopic is the topic frame subscribers filter on.
const StateTopic = "arm.state"

// Publisher owns the PUB socket. PublishState is safe for concurrent use,
// though the control loop is its only caller in practice.
type Publisher struct {
	mu      sync.Mutex
	socket  *zmq.Socket
	builder *flatbuffers.Builder
	logger  customlog.Logger
	now     func() time.Time
}

// NewPublisher binds the PUB socket to the configured address.
func NewPublisher(bindAddress string, logger customlog.Logger) (*Publisher, error) {
	socket, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.Bind(bindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", bindAddress, err)
	}

	logger.Infof("Telemetry publisher bound to %s", bindAddress)
	return &Publisher{
		socket:  socket,
		builder: flatbuffers.NewBuilder(256),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// PublishState encodes the tick snapshot and sends it as a two-frame
// message: topic, then FlatBuffers payload.
func (p *Publisher) PublishState(s teleop.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	payload := encodeState(p.builder, s, p.now().UnixNano())

	if _, err := p.socket.Send(StateTopic, zmq.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic frame: %w", err)
	}
	if _, err := p.socket.SendBytes(payload, 0); err != nil {
		return fmt.Errorf("failed to send state frame: %w", err)
	}
	return nil
}

// Close shuts down the socket.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.socket.Close()
}

// encodeState builds the ArmState FlatBuffer. The builder is reset and its
// internal buffer reused across calls.
func encodeState(builder *flatbuffers.Builder, s teleop.State, timestampNs int64) []byte {
	builder.Reset()

	var targetOffset flatbuffers.UOffsetT
	if len(s.TargetDeg) > 0 {
		fb.ArmStateStartTargetDegVector(builder, len(s.TargetDeg))
		for i := len(s.TargetDeg) - 1; i >= 0; i-- {
			builder.PrependFloat64(s.TargetDeg[i])
		}
		targetOffset = builder.EndVector(len(s.TargetDeg))
	}

	fb.ArmStateStartOffsetVector(builder, pose.Components)
	for i := pose.Components - 1; i >= 0; i-- {
		builder.PrependFloat64(s.Offset[i])
	}
	offsetOffset := builder.EndVector(pose.Components)

	fb.ArmStateStart(builder)
	fb.ArmStateAddTimestampNs(builder, timestampNs)
	fb.ArmStateAddTick(builder, s.Tick)
	fb.ArmStateAddOffset(builder, offsetOffset)
	if targetOffset != 0 {
		fb.ArmStateAddTargetDeg(builder, targetOffset)
	}
	fb.ArmStateAddRotationMode(builder, s.RotationMode)
	fb.ArmStateAddSubmitted(builder, s.Submitted)
	builder.Finish(fb.ArmStateEnd(builder))

	return builder.FinishedBytes()
}

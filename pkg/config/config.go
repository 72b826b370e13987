package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default collaborator settings. The serial link and joystick device can be
// omitted from the config file entirely.
const (
	DefaultSerialDevice   = "/dev/ttyUSB0"
	DefaultSerialBaudRate = 115200
	DefaultJoystickDevice = "/dev/input/js0"
	DefaultLoopRateHz     = 50
)

// Config represents the armctl controller configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Joystick  JoystickConfig  `yaml:"joystick" json:"joystick"`
	Serial    SerialConfig    `yaml:"serial" json:"serial"`
	Control   ControlConfig   `yaml:"control" json:"control"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" json:"http_port"`
}

// TelemetryConfig holds the ZeroMQ telemetry publisher configuration
type TelemetryConfig struct {
	PublishBindAddress string `yaml:"publish_bind_address" json:"publish_bind_address"`
}

// JoystickConfig holds the input device path and the axis/button assignments.
// Axis ids follow the Linux joystick driver numbering for a PS4-style pad.
type JoystickConfig struct {
	Device  string        `yaml:"device" json:"device"`
	Axes    AxisMapping   `yaml:"axes" json:"axes"`
	Buttons ButtonMapping `yaml:"buttons" json:"buttons"`
}

// AxisMapping names the physical axis feeding each routed channel.
type AxisMapping struct {
	Lateral      int `yaml:"lateral" json:"lateral"`
	Primary      int `yaml:"primary" json:"primary"`
	Secondary    int `yaml:"secondary" json:"secondary"`
	Twist        int `yaml:"twist" json:"twist"`
	GripperOpen  int `yaml:"gripper_open" json:"gripper_open"`
	GripperClose int `yaml:"gripper_close" json:"gripper_close"`
}

// ButtonMapping names the mode-switch and quit buttons.
type ButtonMapping struct {
	Mode int `yaml:"mode" json:"mode"`
	Quit int `yaml:"quit" json:"quit"`
}

// SerialConfig holds the microcontroller link settings
type SerialConfig struct {
	Device   string `yaml:"device" json:"device"`
	BaudRate int    `yaml:"baud_rate" json:"baud_rate"`
}

// ControlConfig holds the control loop settings. The two speed scalars are
// fixed for the lifetime of the controller.
type ControlConfig struct {
	LoopRateHz       int     `yaml:"loop_rate_hz" json:"loop_rate_hz"`
	TranslationSpeed float64 `yaml:"translation_speed" json:"translation_speed"`
	RotationSpeed    float64 `yaml:"rotation_speed" json:"rotation_speed"`
}

// LoadConfig loads the controller configuration from the specified file path
// and applies defaults for omitted collaborator settings.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals a YAML configuration document, applies defaults and
// validates it.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills in defaults for fields the file may omit.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Serial.Device == "" {
		c.Serial.Device = DefaultSerialDevice
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = DefaultSerialBaudRate
	}
	if c.Joystick.Device == "" {
		c.Joystick.Device = DefaultJoystickDevice
	}
	if c.Control.LoopRateHz == 0 {
		c.Control.LoopRateHz = DefaultLoopRateHz
	}
}

// validate rejects configurations the controller cannot run with.
func (c *Config) validate() error {
	if c.Control.TranslationSpeed <= 0 {
		return fmt.Errorf("missing or invalid required field: control.translation_speed")
	}
	if c.Control.RotationSpeed <= 0 {
		return fmt.Errorf("missing or invalid required field: control.rotation_speed")
	}
	if c.Control.LoopRateHz < 0 {
		return fmt.Errorf("control.loop_rate_hz must be positive")
	}
	if c.Serial.BaudRate < 0 {
		return fmt.Errorf("serial.baud_rate must be positive")
	}
	return nil
}

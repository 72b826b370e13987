package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "armctl_config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadConfig(t *testing.T) {
	configContent := `
logging:
  level: "debug"

server:
  http_port: 8080

telemetry:
  publish_bind_address: "tcp://*:5556"

joystick:
  device: "/dev/input/js1"
  axes:
    lateral: 1
    primary: 0
    secondary: 4
    twist: 3
    gripper_open: 5
    gripper_close: 2
  buttons:
    mode: 4
    quit: 9

serial:
  device: "/dev/ttyACM0"
  baud_rate: 1000000

control:
  loop_rate_hz: 100
  translation_speed: 0.15
  rotation_speed: 0.6
`

	config, err := LoadConfig(writeTestConfig(t, configContent))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected logging level debug, got %s", config.Logging.Level)
	}
	if config.Server.HTTPPort != 8080 {
		t.Errorf("Expected http_port 8080, got %d", config.Server.HTTPPort)
	}
	if config.Telemetry.PublishBindAddress != "tcp://*:5556" {
		t.Errorf("Expected publish_bind_address tcp://*:5556, got %s", config.Telemetry.PublishBindAddress)
	}
	if config.Joystick.Device != "/dev/input/js1" {
		t.Errorf("Expected joystick device /dev/input/js1, got %s", config.Joystick.Device)
	}
	if config.Joystick.Axes.Secondary != 4 {
		t.Errorf("Expected secondary axis 4, got %d", config.Joystick.Axes.Secondary)
	}
	if config.Joystick.Buttons.Quit != 9 {
		t.Errorf("Expected quit button 9, got %d", config.Joystick.Buttons.Quit)
	}
	if config.Serial.Device != "/dev/ttyACM0" {
		t.Errorf("Expected serial device /dev/ttyACM0, got %s", config.Serial.Device)
	}
	if config.Serial.BaudRate != 1000000 {
		t.Errorf("Expected baud_rate 1000000, got %d", config.Serial.BaudRate)
	}
	if config.Control.LoopRateHz != 100 {
		t.Errorf("Expected loop_rate_hz 100, got %d", config.Control.LoopRateHz)
	}
	if config.Control.TranslationSpeed != 0.15 {
		t.Errorf("Expected translation_speed 0.15, got %f", config.Control.TranslationSpeed)
	}
	if config.Control.RotationSpeed != 0.6 {
		t.Errorf("Expected rotation_speed 0.6, got %f", config.Control.RotationSpeed)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	// Only the required speeds; everything else should get defaults.
	configContent := `
control:
  translation_speed: 0.1
  rotation_speed: 0.5
`

	config, err := LoadConfig(writeTestConfig(t, configContent))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Logging.Level != "info" {
		t.Errorf("Expected default logging level info, got %s", config.Logging.Level)
	}
	if config.Serial.Device != DefaultSerialDevice {
		t.Errorf("Expected default serial device %s, got %s", DefaultSerialDevice, config.Serial.Device)
	}
	if config.Serial.BaudRate != DefaultSerialBaudRate {
		t.Errorf("Expected default baud rate %d, got %d", DefaultSerialBaudRate, config.Serial.BaudRate)
	}
	if config.Joystick.Device != DefaultJoystickDevice {
		t.Errorf("Expected default joystick device %s, got %s", DefaultJoystickDevice, config.Joystick.Device)
	}
	if config.Control.LoopRateHz != DefaultLoopRateHz {
		t.Errorf("Expected default loop rate %d, got %d", DefaultLoopRateHz, config.Control.LoopRateHz)
	}
}

func TestLoadConfigMissingSpeeds(t *testing.T) {
	configContent := `
serial:
  device: "/dev/ttyUSB0"
`

	_, err := LoadConfig(writeTestConfig(t, configContent))
	if err == nil {
		t.Fatal("Expected error for missing control speeds, got nil")
	}
	if !strings.Contains(err.Error(), "translation_speed") {
		t.Errorf("Expected translation_speed error, got: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for missing config file, got nil")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeTestConfig(t, "control: [not: a: mapping"))
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

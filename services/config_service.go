package services

import (
	"fmt"
	"os"
	"sync"

	"github.com/open-teleop/armctl/pkg/config"
	customlog "github.com/open-teleop/armctl/pkg/log"
)

// ConfigService defines the interface for managing the operational armctl
// configuration: the on-disk YAML the operator edits over the HTTP API.
type ConfigService interface {
	LoadConfig() error
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
}

// configService implements the ConfigService interface.
type configService struct {
	configPath string
	logger     customlog.Logger

	mu            sync.RWMutex
	currentConfig *config.Config
}

// NewConfigService creates a service around the given config file path and
// performs the initial load.
func NewConfigService(configPath string, logger customlog.Logger) (ConfigService, error) {
	if configPath == "" {
		return nil, fmt.Errorf("configuration path cannot be empty")
	}

	s := &configService{
		configPath: configPath,
		logger:     logger,
	}
	if err := s.LoadConfig(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadConfig reads the config file from disk and updates the current config.
func (s *configService) LoadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.logger.Errorf("Failed to load configuration from '%s': %v", s.configPath, err)
		return err
	}

	s.currentConfig = cfg
	s.logger.Infof("Loaded configuration from %s", s.configPath)
	return nil
}

// GetCurrentConfig returns the currently loaded configuration. Treat the
// result as read-only; updates go through UpdateConfig.
func (s *configService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentConfig
}

// GetCurrentConfigYAML returns the raw YAML content of the config file, for
// the UI to display before editing.
func (s *configService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	path := s.configPath
	s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file '%s': %w", path, err)
	}
	return data, nil
}

// UpdateConfig validates, persists and applies a new configuration provided
// as YAML. Speed changes take effect on the next controller restart.
func (s *configService) UpdateConfig(newConfigYAML []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCfg, err := config.Parse(newConfigYAML)
	if err != nil {
		s.logger.Errorf("Rejected configuration update: %v", err)
		return err
	}

	// Persist before applying so a write failure leaves the active config
	// untouched.
	if err := os.WriteFile(s.configPath, newConfigYAML, 0644); err != nil {
		s.logger.Errorf("Error writing config file '%s': %v", s.configPath, err)
		return fmt.Errorf("error writing config file '%s': %w", s.configPath, err)
	}

	s.currentConfig = newCfg
	s.logger.Infof("Updated and persisted configuration at %s", s.configPath)
	return nil
}

package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xolan/evertrack/internal/config"
)

// ConfigService owns the settings as stored on disk. The environment token
// override never passes through it.
type ConfigService struct {
	configPath string
	config     config.Config
}

func NewConfigService(configPath string, cfg config.Config) *ConfigService {
	return &ConfigService{
		configPath: configPath,
		config:     cfg,
	}
}

func (s *ConfigService) Get() config.Config {
	return s.config
}

func (s *ConfigService) GetPath() string {
	return s.configPath
}

// Exists reports whether the config file is present.
func (s *ConfigService) Exists() bool {
	_, err := os.Stat(s.configPath)
	return err == nil
}

// Update normalizes, validates and writes cfg, then makes it current.
// Nothing is written when cfg is invalid.
func (s *ConfigService) Update(cfg config.Config) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := cfg.Save(s.configPath); err != nil {
		return err
	}

	s.config = cfg
	return nil
}

// Set changes one key, by its config file name, and saves the result.
func (s *ConfigService) Set(key, value string) error {
	cfg := s.config.Clone()
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return s.Update(cfg)
}

// Init writes the commented sample config. It refuses to overwrite an
// existing file.
func (s *ConfigService) Init() error {
	if s.Exists() {
		return fmt.Errorf("config file already exists at %s", s.configPath)
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(s.configPath, []byte(config.GenerateSampleConfig()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ensureDir creates the directory of a --config path that does not exist yet.
func (s *ConfigService) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

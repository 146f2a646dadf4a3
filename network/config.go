package network

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls the shape and timing of a Network.
type Config struct {
	// Size is the number of machines in the network.
	Size int `yaml:"size"`
	// PollInterval is how long a machine with an empty inbound queue
	// waits before being handed EmptyInput, and how long the
	// coordinator backs off when there is nothing to route.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ConfirmDelay separates the two observations of an all-idle
	// network that are required before a recovery packet is sent.
	ConfirmDelay time.Duration `yaml:"confirm_delay"`
	// MonitorAddr is the reserved destination of monitor packets.
	MonitorAddr int64 `yaml:"monitor_addr"`
}

// DefaultConfig returns the configuration of a 50 machine network.
func DefaultConfig() Config {
	return Config{
		Size:         50,
		PollInterval: time.Millisecond,
		ConfirmDelay: 10 * time.Millisecond,
		MonitorAddr:  MonitorAddr,
	}
}

// LoadConfig reads a YAML configuration file. Fields absent from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports whether c describes a network that can run.
func (c Config) Validate() error {
	switch {
	case c.Size <= 0:
		return errors.New("network size must be positive")
	case c.PollInterval <= 0:
		return errors.New("poll interval must be positive")
	case c.ConfirmDelay <= 0:
		return errors.New("confirm delay must be positive")
	case c.MonitorAddr >= 0 && c.MonitorAddr < int64(c.Size):
		return fmt.Errorf("monitor address %d collides with a machine address", c.MonitorAddr)
	}
	return nil
}

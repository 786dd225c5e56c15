package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode names a registered client factory.
type Mode string

const (
	ModeStandalone Mode = "standalone"
	ModeCluster    Mode = "cluster"
	ModeFailover   Mode = "failover"
)

// Config describes how to reach the server. It decodes from YAML:
//
//	mode: standalone
//	addrs: ["localhost:6379"]
//	protocol: 2
//	dial-timeout: 5s
type Config struct {
	Mode         Mode          `yaml:"mode"`
	Addrs        []string      `yaml:"addrs"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Protocol     int           `yaml:"protocol"`
	MasterName   string        `yaml:"master-name"`
	DialTimeout  time.Duration `yaml:"dial-timeout"`
	ReadTimeout  time.Duration `yaml:"read-timeout"`
	WriteTimeout time.Duration `yaml:"write-timeout"`
}

// DefaultConfig points at a local standalone server speaking RESP2, the
// protocol every reply decoder in this module is tested against.
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeStandalone,
		Addrs:       []string{"localhost:6379"},
		Protocol:    2,
		DialTimeout: 5 * time.Second,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Unknown keys are an
// error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("driver: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields every factory relies on.
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return errors.New("driver: config: at least one address is required")
	}
	if c.Protocol != 0 && c.Protocol != 2 && c.Protocol != 3 {
		return fmt.Errorf("driver: config: protocol must be 2 or 3, got %d", c.Protocol)
	}
	if c.Mode == ModeFailover && c.MasterName == "" {
		return errors.New("driver: config: failover mode requires master-name")
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"i4.energy/across/fakeril/device"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the HTTP server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind_address"`
	// SerialPort is a serial line or pty to serve RIL frames on (e.g. "/dev/pts/3").
	// Empty disables the serial transport.
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate of the serial line (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// DBPath is the settings database file
	DBPath string `yaml:"db_path"`
	// Seed seeds the simulated signal strength
	Seed uint64 `yaml:"seed"`
	// Device overrides the simulated device profile. Unset fields take the
	// defaults of Device.Slot.
	Device device.Profile `yaml:"device"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.DBPath = "data/fakeril.db"
		return nil
	}
}

// WithFile loads configuration from a YAML file. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if path := os.Getenv("DB_PATH"); path != "" {
			c.DBPath = path
		}

		if slot := os.Getenv("RIL_SLOT"); slot != "" {
			if s, err := strconv.Atoi(slot); err == nil {
				c.Device.Slot = s
			}
		}

		if seed := os.Getenv("RIL_SEED"); seed != "" {
			if s, err := strconv.ParseUint(seed, 10, 64); err == nil {
				c.Seed = s
			}
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "db-path":
				c.DBPath = f.Value.String()
			case "slot":
				if s, err := strconv.Atoi(f.Value.String()); err == nil {
					c.Device.Slot = s
				}
			case "seed":
				if s, err := strconv.ParseUint(f.Value.String(), 10, 64); err == nil {
					c.Seed = s
				}
			}
		})
		return nil
	}
}

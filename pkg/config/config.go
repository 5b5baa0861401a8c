package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Servo transports.
const (
	TransportHTTP   = "http"
	TransportSerial = "serial"
)

var ErrUnknownTransport = errors.New("unknown servo transport")

// Config is loaded once at start and not modified afterwards.
type Config struct {
	RobotHost    string `yaml:"robotHost" toml:"robotHost"`
	ServoHost    string `yaml:"servoHost" toml:"servoHost"`
	Port         int    `yaml:"port" toml:"port"`
	AuthUsername string `yaml:"authUsername" toml:"authUsername"`
	AuthPassword string `yaml:"authPassword" toml:"authPassword"`

	// Timeout bounds each robot or servo call, e.g. "4s".
	Timeout Duration `yaml:"timeout" toml:"timeout"`
	// StaticDir is served at / when set.
	StaticDir string `yaml:"staticDir" toml:"staticDir"`

	ServoTransport string `yaml:"servoTransport" toml:"servoTransport"`
	SerialPort     string `yaml:"serialPort" toml:"serialPort"`
	SerialBaud     int    `yaml:"serialBaud" toml:"serialBaud"`
}

// Duration accepts Go duration strings in both YAML and TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

func Default() *Config {
	return &Config{
		RobotHost:      "192.168.43.2",
		ServoHost:      "192.168.43.5",
		Port:           3000,
		AuthUsername:   "valetudo",
		Timeout:        Duration{4 * time.Second},
		ServoTransport: TransportHTTP,
		SerialBaud:     9600,
	}
}

// Load reads the config file at path (YAML or TOML, chosen by extension)
// over the defaults and applies environment overrides. An empty path
// loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(b), cfg); err != nil {
			return fmt.Errorf("parse toml %q: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse yaml %q: %w", path, err)
		}
	default:
		return fmt.Errorf("config file %q: unsupported extension (expected .yaml|.yml|.toml)", path)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("RELAY_ROBOT_HOST"); v != "" {
		c.RobotHost = v
	}
	if v := getenv("RELAY_SERVO_HOST"); v != "" {
		c.ServoHost = v
	}
	if v := getenv("RELAY_AUTH_USERNAME"); v != "" {
		c.AuthUsername = v
	}
	if v := getenv("RELAY_AUTH_PASSWORD"); v != "" {
		c.AuthPassword = v
	}
	if v := getenv("RELAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RELAY_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RobotHost) == "" {
		return fmt.Errorf("robotHost cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout.Duration)
	}
	switch strings.ToLower(c.ServoTransport) {
	case "", TransportHTTP:
		c.ServoTransport = TransportHTTP
		if strings.TrimSpace(c.ServoHost) == "" {
			return fmt.Errorf("servoHost cannot be empty")
		}
	case TransportSerial:
		c.ServoTransport = TransportSerial
		if strings.TrimSpace(c.SerialPort) == "" {
			return fmt.Errorf("serialPort is required for the serial servo transport")
		}
		if c.SerialBaud <= 0 {
			return fmt.Errorf("serialBaud must be positive, got %d", c.SerialBaud)
		}
	default:
		return fmt.Errorf("%w %q (expected http|serial)", ErrUnknownTransport, c.ServoTransport)
	}
	return nil
}

// Addr is the listen address for the relay server.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// RobotURL returns the robot base URL, adding http:// to bare hosts.
func (c *Config) RobotURL() string { return baseURL(c.RobotHost) }

// ServoURL returns the servo base URL, adding http:// to bare hosts.
func (c *Config) ServoURL() string { return baseURL(c.ServoHost) }

func baseURL(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host
}

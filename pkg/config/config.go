package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Gateway    GatewayConfig    `toml:"gateway"`
	Agent      AgentConfig      `toml:"agent"`
	Extensions ExtensionsConfig `toml:"extensions"`
	Docs       DocsConfig       `toml:"docs"`
	GRPC       GRPCConfig       `toml:"grpc"`
	Audit      AuditConfig      `toml:"audit"`
	Log        LogConfig        `toml:"log"`
	Tracing    TracingConfig    `toml:"tracing"`
}

type GatewayConfig struct {
	Bind      string  `toml:"bind"`
	Port      int     `toml:"port"`
	AuthToken string  `toml:"auth_token"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

type AgentConfig struct {
	Kind      string `toml:"kind"`
	Name      string `toml:"name"`
	URL       string `toml:"url"`
	Streaming bool   `toml:"streaming"`
}

type ExtensionsConfig struct {
	BaseURL         string `toml:"base_url"`
	GreetingStyle   bool   `toml:"greeting_style"`
	RandomGreeting  bool   `toml:"random_greeting"`
	TimeGreeting    bool   `toml:"time_greeting"`
	Timestamp       bool   `toml:"timestamp"`
	Traceability    bool   `toml:"traceability"`
	StrictTimezones bool   `toml:"strict_timezones"`
}

type DocsConfig struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
	Port    int    `toml:"port"`
}

type GRPCConfig struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
	Port    int    `toml:"port"`
}

type AuditConfig struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TracingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Bind: "loopback",
			Port: 9999,
		},
		Agent: AgentConfig{
			Kind: "hello",
			Name: "Hello World Agent",
			URL:  "http://localhost:9999/",
		},
		Extensions: ExtensionsConfig{
			BaseURL:        "http://localhost:8080",
			GreetingStyle:  true,
			RandomGreeting: true,
			TimeGreeting:   true,
			Timestamp:      true,
			Traceability:   true,
		},
		Docs: DocsConfig{
			Enabled: true,
			Bind:    "loopback",
			Port:    8080,
		},
		GRPC: GRPCConfig{
			Bind: "loopback",
			Port: 50051,
		},
		Audit: AuditConfig{
			DSN: filepath.Join(DataDir(), "audit.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var (
	current *Config
	mu      sync.RWMutex
)

func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Audit.DSN == "" {
		cfg.Audit.DSN = filepath.Join(DataDir(), "audit.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	current = cfg
	mu.Unlock()

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Agent.Kind {
	case "hello", "time":
	default:
		errs = append(errs, fmt.Errorf("agent.kind %q: want hello or time", c.Agent.Kind))
	}
	ports := []struct {
		name string
		port int
	}{
		{"gateway.port", c.Gateway.Port},
		{"docs.port", c.Docs.Port},
		{"grpc.port", c.GRPC.Port},
	}
	for _, p := range ports {
		if p.port < 0 || p.port > 65535 {
			errs = append(errs, fmt.Errorf("%s %d out of range", p.name, p.port))
		}
	}
	if c.Gateway.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("gateway.rate_limit %v must not be negative", c.Gateway.RateLimit))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}

func DataDir() string {
	if dir := os.Getenv("HELLOEXT_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".helloext"
	}
	return filepath.Join(home, ".helloext")
}

func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "helloext.toml")
}

func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}

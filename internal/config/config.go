package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

type Config struct {
	Env                 string        `yaml:"env"`
	ShortCodeLength     int           `yaml:"short_code_length"`
	DefaultValidity     time.Duration `yaml:"default_validity"`
	MaxCustomCodeLength int           `yaml:"max_custom_code_length"`
	RecentLimit         int           `yaml:"recent_limit"`
	EnforceExpiry       bool          `yaml:"enforce_expiry"`
	BaseURL             string        `yaml:"base_url"`
	SwaggerFile         string        `yaml:"swagger_file"`
	Click               `yaml:"click"`
	RateLimit           `yaml:"rate_limit"`
	Log                 `yaml:"log"`
	HTTPServer          `yaml:"http_server"`
}

// Click holds the simulated details recorded with every resolved short link.
type Click struct {
	Source   string `yaml:"source"`
	Location string `yaml:"location"`
}

var defaultClick = Click{
	Source:   "Client-side navigation",
	Location: "Hyderabad, India",
}

type RateLimit struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	IdleTTL           time.Duration `yaml:"idle_ttl"`
}

var defaultRateLimit = RateLimit{
	RequestsPerSecond: 10,
	Burst:             20,
	IdleTTL:           3 * time.Minute,
}

type Log struct {
	Level   string `yaml:"level"`
	JSON    bool   `yaml:"json"`
	Concise bool   `yaml:"concise"`
}

var defaultLog = Log{
	Level:   "info",
	Concise: true,
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
	TrustProxy     bool          `yaml:"trust_proxy"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.ShortCodeLength = 6
	cfg.DefaultValidity = 30 * time.Minute
	cfg.MaxCustomCodeLength = 32
	cfg.RecentLimit = 5
	cfg.Click = defaultClick
	cfg.RateLimit = defaultRateLimit
	cfg.Log = defaultLog
	cfg.HTTPServer = defaultHTTPServer
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"
)

// Environment variables read by Resolve.
const (
	EnvServerURL = "PROTOCOL_SERVER_URL"
	EnvAPIBase   = "PROTOCOL_API_BASE"
	EnvLanguage  = "PROTOCOL_LANG"
	EnvMock      = "PROTOCOL_MOCK"
)

// Defaults applied when neither flags, env nor the config file set a value.
const (
	DefaultServerURL       = "http://localhost:8080"
	DefaultAPIBase         = "/api"
	DefaultLanguage        = "en"
	DefaultDiagnoseTimeout = 2 * time.Minute
	DefaultRequestTimeout  = 60 * time.Second
)

// LoadConfig loads a protocol config file from the specified directory
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		return nil, fmt.Errorf("config directory is required")
	}

	foundFile, err := FindConfigFile(configDir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(foundFile)
}

// LoadConfigFile loads a specific protocol config file
func LoadConfigFile(configFile string) (*Config, error) {
	return loadConfigFile(configFile)
}

// loadConfigFile loads and parses a config file based on its extension
func loadConfigFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	fileExt := strings.ToLower(filepath.Ext(filePath))

	var config Config
	switch fileExt {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file %s: %w", filePath, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file %s: %w", filePath, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file %s: %w", filePath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", fileExt)
	}

	return &config, nil
}

// FindConfigFile searches for protocol config files (yaml/toml/json) in the specified directory
func FindConfigFile(searchPath string) (string, error) {
	if searchPath == "" {
		return "", fmt.Errorf("search path is required")
	}

	for _, configFile := range SupportedConfigFiles {
		fullPath := filepath.Join(searchPath, configFile)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("no protocol config file (yaml/toml/json) found in %s", searchPath)
}

// LoadFirst loads the first config file found across dirs, in order. It
// returns an empty config and an empty path when none of the dirs has one.
func LoadFirst(dirs ...string) (*Config, string, error) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path, err := FindConfigFile(dir)
		if err != nil {
			continue
		}
		cfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}
	return &Config{}, "", nil
}

// IsConfigFile checks if the given file path is a protocol config file
func IsConfigFile(filePath string) bool {
	baseName := filepath.Base(filePath)

	for _, configFile := range SupportedConfigFiles {
		if baseName == configFile {
			return true
		}
	}
	return false
}

// SaveConfig writes the config in the format implied by the path's
// extension, defaulting to protocol.yaml in the current directory.
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = SupportedConfigFiles[0]
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		data, err = toml.Marshal(config)
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Overrides carries values set explicitly on the command line. Zero values
// mean "not set".
type Overrides struct {
	ServerURL       string
	APIBase         string
	Language        string
	Mock            *bool
	DiagnoseTimeout time.Duration
}

// Settings is the fully resolved client configuration.
type Settings struct {
	ServerURL       string
	APIBase         string
	Language        string
	Mock            bool
	DiagnoseTimeout time.Duration
	RequestTimeout  time.Duration
	// MockLatency is nil when the mock should use its own randomized delay.
	MockLatency *time.Duration
	// ConfigPath is the file the settings were read from, if any.
	ConfigPath string
}

// Resolve merges flags > environment > config file > defaults. getenv is
// usually os.Getenv; a nil cfg is treated as empty.
func Resolve(cfg *Config, configPath string, flags Overrides, getenv func(string) string) (*Settings, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if getenv == nil {
		getenv = os.Getenv
	}

	s := &Settings{
		ServerURL:  firstNonEmpty(flags.ServerURL, getenv(EnvServerURL), cfg.ServerURL, DefaultServerURL),
		APIBase:    firstNonEmpty(flags.APIBase, getenv(EnvAPIBase), cfg.APIBase, DefaultAPIBase),
		Language:   strings.ToLower(firstNonEmpty(flags.Language, getenv(EnvLanguage), cfg.Language, DefaultLanguage)),
		ConfigPath: configPath,
	}
	if s.Language != "en" && s.Language != "ru" {
		return nil, fmt.Errorf("unsupported language %q (expected en or ru)", s.Language)
	}

	switch {
	case flags.Mock != nil:
		s.Mock = *flags.Mock
	case getenv(EnvMock) != "":
		v, err := strconv.ParseBool(getenv(EnvMock))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvMock, getenv(EnvMock), err)
		}
		s.Mock = v
	case cfg.Mock != nil:
		s.Mock = *cfg.Mock
	}

	var err error
	if s.DiagnoseTimeout, err = parseDuration("diagnose_timeout", cfg.DiagnoseTimeout, DefaultDiagnoseTimeout); err != nil {
		return nil, err
	}
	if flags.DiagnoseTimeout > 0 {
		s.DiagnoseTimeout = flags.DiagnoseTimeout
	}
	if s.RequestTimeout, err = parseDuration("request_timeout", cfg.RequestTimeout, DefaultRequestTimeout); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.MockLatency) != "" {
		d, err := parseDuration("mock_latency", cfg.MockLatency, 0)
		if err != nil {
			return nil, err
		}
		s.MockLatency = &d
	}

	return s, nil
}

func parseDuration(field, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, raw)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

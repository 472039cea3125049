package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"protocol-cli/cmd/config"
	"protocol-cli/cmd/utils"
	"protocol-cli/internal/api"
	"protocol-cli/internal/i18n"
	"protocol-cli/internal/mock"
)

// CLIContext carries the resolved settings and the backend commands talk to.
type CLIContext struct {
	Settings *config.Settings
	Backend  api.Backend
	Pinger   api.Pinger
	// Client is nil in mock mode.
	Client *api.Client
	// Mode is utils.StatusOnline or utils.StatusMock.
	Mode string
}

// Strings returns the language table for the configured language.
func (c *CLIContext) Strings() i18n.Strings {
	return i18n.For(c.Settings.Language)
}

// BackendKey identifies the history source, so a remembered chat id is only
// reused against the backend it came from.
func (c *CLIContext) BackendKey() string {
	if c.Mode == utils.StatusMock {
		return "mock"
	}
	return utils.JoinURL(c.Settings.ServerURL, c.Settings.APIBase)
}

// loadCLIContext resolves settings from flags, the environment (including a
// .env file in the working directory) and the first config file found.
func loadCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cwd := utils.GetEffectiveCWD()
	if err := loadDotEnv(cwd); err != nil {
		return nil, err
	}

	dirs := []string{cwd}
	if dataDir, err := utils.GetDataDir(); err == nil {
		dirs = append(dirs, dataDir)
	}
	cfg, path, err := config.LoadFirst(dirs...)
	if err != nil {
		return nil, err
	}

	overrides := config.Overrides{
		ServerURL:       serverURL,
		APIBase:         apiBase,
		Language:        language,
		DiagnoseTimeout: diagnoseTimeout,
	}
	if f := cmd.Flags().Lookup("mock"); f != nil && f.Changed {
		v := useMock
		overrides.Mock = &v
	}
	settings, err := config.Resolve(cfg, path, overrides, os.Getenv)
	if err != nil {
		return nil, err
	}
	return newCLIContext(settings), nil
}

func newCLIContext(s *config.Settings) *CLIContext {
	if s.Mock {
		opts := []mock.Option{mock.WithStrings(i18n.For(s.Language))}
		if s.MockLatency != nil {
			opts = append(opts, mock.WithLatency(*s.MockLatency))
		}
		svc := mock.New(opts...)
		return &CLIContext{Settings: s, Backend: svc, Pinger: svc, Mode: utils.StatusMock}
	}
	client := api.NewClient(utils.JoinURL(s.ServerURL, s.APIBase), api.WithTimeouts(s.DiagnoseTimeout, s.RequestTimeout))
	return &CLIContext{Settings: s, Backend: client, Pinger: client, Client: client, Mode: utils.StatusOnline}
}

// loadDotEnv reads .env from dir without overriding variables already set.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	utils.LogDebugf("loaded environment from %s", path)
	return nil
}

// SessionContext is the small piece of UI state kept between runs.
type SessionContext struct {
	Backend    string    `yaml:"backend"`
	LastChatID string    `yaml:"last_chat_id"`
	UpdatedAt  time.Time `yaml:"updated_at"`
}

const sessionContextFile = "context.yaml"

func sessionContextPath() (string, error) {
	dir, err := utils.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionContextFile), nil
}

// readSessionContext returns nil without error when nothing was saved yet.
func readSessionContext() (*SessionContext, error) {
	path, err := sessionContextPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session context: %w", err)
	}
	var sc SessionContext
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse session context: %w", err)
	}
	return &sc, nil
}

func writeSessionContext(backend, chatID string) error {
	dir, err := utils.EnsureDataDir()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(SessionContext{Backend: backend, LastChatID: chatID, UpdatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to encode session context: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sessionContextFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write session context: %w", err)
	}
	return nil
}

// lastChatFor returns the remembered chat id for backend, if any.
func lastChatFor(backend string) string {
	sc, err := readSessionContext()
	if err != nil {
		utils.LogDebugf("session context ignored: %v", err)
		return ""
	}
	if sc == nil || sc.Backend != backend {
		return ""
	}
	return sc.LastChatID
}

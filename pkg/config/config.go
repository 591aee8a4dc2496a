package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider  = "openai"
	DefaultModel     = "gpt-5-mini"
	DefaultOutputDir = "out_scripts"
	DefaultWorkers   = 5
	DefaultTimeout   = 5 * time.Minute

	configDirName = ".remedgen"
)

// apiKeyEnv maps providers to the environment variable holding their key.
var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GOOGLE_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
	OutputDir        string                    `yaml:"output_dir,omitempty"`
	Workers          int                       `yaml:"workers,omitempty"`
	Timeout          string                    `yaml:"timeout,omitempty"`
	Profile          string                    `yaml:"profile,omitempty"`
	ProfilesDir      string                    `yaml:"profiles_dir,omitempty"`
	HistoryDB        string                    `yaml:"history_db,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SelectedProvider: DefaultProvider,
		SelectedModel:    DefaultModel,
		Providers:        make(map[string]ProviderConfig),
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName), nil
}

// GetConfigPath returns the config file path, honoring REMEDGEN_CONFIG.
func GetConfigPath() (string, error) {
	if p := os.Getenv("REMEDGEN_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig reads the default config file. Environment overrides are not
// applied; see WithEnv.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads path, falling back to defaults when it does not exist.
// The result mirrors the file so it can be saved back unchanged.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return cfg, nil
}

// SaveConfig writes cfg to the default config path.
func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(path, cfg)
}

// SaveConfigTo writes cfg to path with owner-only permissions (api keys).
func SaveConfigTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

func (c *Config) GetAPIKey(provider string) string {
	return c.Providers[provider].APIKey
}

// WithEnv returns a copy of c with AGENT_* and provider key variables layered
// over the file values. c itself is left untouched, so it is still safe to save.
func (c *Config) WithEnv() *Config {
	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for name, pc := range c.Providers {
		out.Providers[name] = pc
	}
	out.applyEnvOverrides()
	return &out
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AGENT_PROVIDER"); v != "" {
		c.SelectedProvider = strings.ToLower(v)
	}
	if v := os.Getenv("AGENT_MODEL"); v != "" {
		c.SelectedModel = v
	}
	if v := os.Getenv("AGENT_OUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("AGENT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	for provider, env := range apiKeyEnv {
		if v := os.Getenv(env); v != "" {
			c.SetAPIKey(provider, v)
		}
	}
}

// Overrides carries command-line values; zero values mean "not set".
type Overrides struct {
	Provider    string
	Model       string
	OutputDir   string
	Workers     int
	Timeout     time.Duration
	Profile     string
	ProfilesDir string
}

// RunConfig is the immutable configuration of one batch run. It is resolved
// once before any task is dispatched.
type RunConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	OutputDir   string
	Workers     int
	Timeout     time.Duration
	Profile     string
	ProfilesDir string
	HistoryDB   string
}

// Resolve merges defaults, c and o into a RunConfig. Call it on WithEnv's
// result to honor the environment.
func (c *Config) Resolve(o Overrides) (RunConfig, error) {
	rc := RunConfig{
		Provider:    firstNonEmpty(o.Provider, c.SelectedProvider, DefaultProvider),
		OutputDir:   firstNonEmpty(o.OutputDir, c.OutputDir, DefaultOutputDir),
		Workers:     DefaultWorkers,
		Timeout:     DefaultTimeout,
		Profile:     firstNonEmpty(o.Profile, c.Profile),
		ProfilesDir: firstNonEmpty(o.ProfilesDir, c.ProfilesDir),
	}
	rc.Provider = strings.ToLower(rc.Provider)

	// A model saved for another provider must not leak into this one.
	rc.Model = o.Model
	if rc.Model == "" && (o.Provider == "" || strings.EqualFold(o.Provider, c.SelectedProvider)) {
		rc.Model = c.SelectedModel
	}

	if c.Workers != 0 {
		rc.Workers = c.Workers
	}
	if o.Workers != 0 {
		rc.Workers = o.Workers
	}
	if rc.Workers < 1 {
		return RunConfig{}, fmt.Errorf("workers must be at least 1, got %d", rc.Workers)
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
		rc.Timeout = d
	}
	if o.Timeout != 0 {
		rc.Timeout = o.Timeout
	}

	if _, ok := apiKeyEnv[rc.Provider]; !ok {
		return RunConfig{}, fmt.Errorf("unknown provider: %s", rc.Provider)
	}
	pc := c.Providers[rc.Provider]
	rc.APIKey = pc.APIKey
	rc.BaseURL = pc.BaseURL
	if rc.APIKey == "" {
		return RunConfig{}, fmt.Errorf("no API key for %s: set %s or run 'remedgen config set-key'", rc.Provider, apiKeyEnv[rc.Provider])
	}

	out, err := filepath.Abs(rc.OutputDir)
	if err != nil {
		return RunConfig{}, err
	}
	rc.OutputDir = out

	rc.HistoryDB, err = c.HistoryPath()
	if err != nil {
		return RunConfig{}, err
	}
	return rc, nil
}

// HistoryPath returns the run history database, ~/.remedgen/history.db unless
// configured.
func (c *Config) HistoryPath() (string, error) {
	if c.HistoryDB != "" {
		return c.HistoryDB, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

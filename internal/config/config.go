package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DataDir is the per-workspace directory holding config, logs and stores.
const DataDir = ".renoplan"

// Config holds all renoplan configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM       LLMConfig       `yaml:"llm"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// UploadsConfig configures where user images are copied and whether the
// directory is watched for new files.
type UploadsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// SearchConfig toggles the search-grounded research step of the assessor.
type SearchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "renoplan",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider:   "gemini",
			TextModel:  "gemini-2.5-flash",
			ImageModel: "gemini-2.5-flash-image",
			Timeout:    "120s",
			MaxRetries: 3,
			RetryDelay: "5s",
			Routing:    "heuristic",
		},

		Artifacts: ArtifactsConfig{
			Backend:      "sqlite",
			Driver:       "sqlite3",
			DatabasePath: filepath.Join(DataDir, "artifacts.db"),
			LocalDir:     filepath.Join(DataDir, "artifacts"),
			S3: S3Config{
				Endpoint: "localhost:9000",
				Bucket:   "renoplan-artifacts",
				Prefix:   "renderings/",
			},
		},

		Sessions: SessionsConfig{
			Backend:      "sqlite",
			Driver:       "sqlite3",
			DatabasePath: filepath.Join(DataDir, "renoplan.db"),
			TTL:          "168h",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "renoplan:session:",
			},
		},

		Uploads: UploadsConfig{
			Dir:   filepath.Join(DataDir, "uploads"),
			Watch: true,
		},

		Search: SearchConfig{Enabled: true},

		Logging: LoggingConfig{
			Level:      "info",
			DebugMode:  false,
			JSONFormat: false,
			Dir:        filepath.Join(DataDir, "logs"),
		},
	}
}

// DefaultPath returns the config path for a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, DataDir, "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// GEMINI_API_KEY wins over GOOGLE_API_KEY, matching the genai SDK.
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if path := os.Getenv("RENOPLAN_DB"); path != "" {
		c.Sessions.DatabasePath = path
	}
	if backend := os.Getenv("RENOPLAN_ARTIFACTS"); backend != "" {
		c.Artifacts.Backend = backend
	}

	if v := os.Getenv("RENOPLAN_S3_ENDPOINT"); v != "" {
		c.Artifacts.S3.Endpoint = v
	}
	if v := os.Getenv("RENOPLAN_S3_ACCESS_KEY"); v != "" {
		c.Artifacts.S3.AccessKey = v
	}
	if v := os.Getenv("RENOPLAN_S3_SECRET_KEY"); v != "" {
		c.Artifacts.S3.SecretKey = v
	}
	if v := os.Getenv("RENOPLAN_S3_BUCKET"); v != "" {
		c.Artifacts.S3.Bucket = v
	}

	if v := os.Getenv("RENOPLAN_REDIS_ADDR"); v != "" {
		c.Sessions.Redis.Addr = v
	}
	if v := os.Getenv("RENOPLAN_REDIS_PASSWORD"); v != "" {
		c.Sessions.Redis.Password = v
	}
}

// Resolve makes a configured path absolute relative to the workspace.
func Resolve(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetRetryDelay returns the base delay between overload retries.
func (c *Config) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.LLM.RetryDelay)
	if err != nil || d < 0 {
		return 5 * time.Second
	}
	return d
}

// GetSessionTTL returns the session TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Sessions.TTL)
	if err != nil {
		return 168 * time.Hour
	}
	return d
}

// GetSessionsDriver returns the SQLite driver for the session history DB.
func (c *Config) GetSessionsDriver() string {
	if c.Sessions.Driver != "" {
		return c.Sessions.Driver
	}
	if c.Artifacts.Driver != "" {
		return c.Artifacts.Driver
	}
	return "sqlite3"
}

var (
	ValidArtifactBackends = []string{"none", "sqlite", "s3"}
	ValidSQLDrivers       = []string{"sqlite3", "sqlite"}
	ValidSessionBackends  = []string{"sqlite", "redis"}
	ValidRoutingModes     = []string{"heuristic", "llm"}
)

func oneOf(v string, valid []string) bool {
	for _, s := range valid {
		if v == s {
			return true
		}
	}
	return false
}

// Validate validates the configuration. A missing API key is reported
// separately by RequireAPIKey since several commands run offline.
func (c *Config) Validate() error {
	if c.LLM.Provider != "gemini" {
		return fmt.Errorf("invalid LLM provider: %s (valid: [gemini])", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}
	if !oneOf(c.LLM.Routing, ValidRoutingModes) {
		return fmt.Errorf("invalid llm.routing: %s (valid: %v)", c.LLM.Routing, ValidRoutingModes)
	}
	if !oneOf(c.Artifacts.Backend, ValidArtifactBackends) {
		return fmt.Errorf("invalid artifacts.backend: %s (valid: %v)", c.Artifacts.Backend, ValidArtifactBackends)
	}
	if c.Artifacts.Backend == "sqlite" && !oneOf(c.Artifacts.Driver, ValidSQLDrivers) {
		return fmt.Errorf("invalid artifacts.driver: %s (valid: %v)", c.Artifacts.Driver, ValidSQLDrivers)
	}
	if !oneOf(c.GetSessionsDriver(), ValidSQLDrivers) {
		return fmt.Errorf("invalid sessions.driver: %s (valid: %v)", c.GetSessionsDriver(), ValidSQLDrivers)
	}
	if !oneOf(c.Sessions.Backend, ValidSessionBackends) {
		return fmt.Errorf("invalid sessions.backend: %s (valid: %v)", c.Sessions.Backend, ValidSessionBackends)
	}
	return nil
}

// RequireAPIKey reports a missing Gemini key.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured (set GEMINI_API_KEY or GOOGLE_API_KEY, or llm.api_key)")
	}
	return nil
}

// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Agent() AgentConfig
	LLM() LLMRouterConfig
	Telemetry() TelemetryConfig
	Commands() CommandsConfig
	Database() DatabaseConfig
	Simulation() SimulationConfig

	// Agent Setters
	SetAgentName(string)
	SetDecisionInterval(int)

	// Telemetry Setters
	SetTelemetryEnabled(bool)
}

// Config holds the entire application configuration.
// Sections are exported for viper's decoder and read through the Interface getters.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	AgentCfg      AgentConfig      `mapstructure:"agent" yaml:"agent"`
	LLMCfg        LLMRouterConfig  `mapstructure:"llm" yaml:"llm"`
	TelemetryCfg  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
	CommandsCfg   CommandsConfig   `mapstructure:"commands" yaml:"commands"`
	DatabaseCfg   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	SimulationCfg SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Agent() AgentConfig           { return c.AgentCfg }
func (c *Config) LLM() LLMRouterConfig         { return c.LLMCfg }
func (c *Config) Telemetry() TelemetryConfig   { return c.TelemetryCfg }
func (c *Config) Commands() CommandsConfig     { return c.CommandsCfg }
func (c *Config) Database() DatabaseConfig     { return c.DatabaseCfg }
func (c *Config) Simulation() SimulationConfig { return c.SimulationCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetAgentName(name string)      { c.AgentCfg.Name = name }
func (c *Config) SetDecisionInterval(ticks int) { c.AgentCfg.DecisionInterval = ticks }
func (c *Config) SetTelemetryEnabled(b bool)    { c.TelemetryCfg.Enabled = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig configures the character's decision loop.
type AgentConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	// TickRate is the number of game ticks per second driven by the runtime.
	TickRate int `mapstructure:"tick_rate" yaml:"tick_rate"`
	// DecisionInterval is measured in ticks.
	DecisionInterval int  `mapstructure:"decision_interval" yaml:"decision_interval"`
	FoodThreshold    int  `mapstructure:"food_threshold" yaml:"food_threshold"`
	ExploreRadius    int  `mapstructure:"explore_radius" yaml:"explore_radius"`
	FreeRoam         bool `mapstructure:"free_roam" yaml:"free_roam"`
	// ThinkInterval is measured in ticks. Only used while FreeRoam is on.
	ThinkInterval   int `mapstructure:"think_interval" yaml:"think_interval"`
	WorkerQueueSize int `mapstructure:"worker_queue_size" yaml:"worker_queue_size"`
}

// LLMProvider defines the type for LLM providers.
type LLMProvider string

// Constants for supported LLM providers.
const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOllama LLMProvider = "ollama"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RequestsPerSecond caps outgoing calls for this model. Zero disables the limiter.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// TelemetryConfig configures where the line telemetry stream is sent.
type TelemetryConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Address       string        `mapstructure:"address" yaml:"address"`
	WebSocketAddr string        `mapstructure:"websocket_addr" yaml:"websocket_addr"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// CommandsConfig configures the inbound goal command channels.
type CommandsConfig struct {
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
	DirectivesFile string `mapstructure:"directives_file" yaml:"directives_file"`
}

// DatabaseConfig holds the database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// SimulationConfig seeds the in-memory world used by the headless runtime.
type SimulationConfig struct {
	Seed      int64    `mapstructure:"seed" yaml:"seed"`
	Players   []string `mapstructure:"players" yaml:"players"`
	StartX    float64  `mapstructure:"start_x" yaml:"start_x"`
	StartY    float64  `mapstructure:"start_y" yaml:"start_y"`
	StartZ    float64  `mapstructure:"start_z" yaml:"start_z"`
	FoodLevel int      `mapstructure:"food_level" yaml:"food_level"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "freddy")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Agent --
	v.SetDefault("agent.name", "Freddy")
	v.SetDefault("agent.tick_rate", 20)
	v.SetDefault("agent.decision_interval", 40)
	v.SetDefault("agent.food_threshold", 10)
	v.SetDefault("agent.explore_radius", 40)
	v.SetDefault("agent.free_roam", true)
	v.SetDefault("agent.think_interval", 60)
	v.SetDefault("agent.worker_queue_size", 8)

	// -- LLM --
	v.SetDefault("llm.default_fast_model", "local")
	v.SetDefault("llm.default_powerful_model", "local")
	v.SetDefault("llm.models", map[string]any{
		"local": map[string]any{
			"provider":            string(ProviderOllama),
			"model":               "llama3.2",
			"endpoint":            "http://localhost:11434",
			"api_timeout":         "60s",
			"temperature":         0.7,
			"requests_per_second": 2.0,
		},
	})

	// -- Telemetry --
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.address", "localhost:25566")
	v.SetDefault("telemetry.websocket_addr", "")
	v.SetDefault("telemetry.dial_timeout", "2s")

	// -- Commands --
	v.SetDefault("commands.listen_addr", "localhost:25567")
	v.SetDefault("commands.max_connections", 4)
	v.SetDefault("commands.directives_file", "")

	// -- Database --
	v.SetDefault("database.url", "")

	// -- Simulation --
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.players", []string{"OnlyOm"})
	v.SetDefault("simulation.start_x", 0.0)
	v.SetDefault("simulation.start_y", 64.0)
	v.SetDefault("simulation.start_z", 0.0)
	v.SetDefault("simulation.food_level", 20)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Secrets come from the environment rather than the config file.
	_ = v.BindEnv("llm.gemini_api_key", "FREDDY_GEMINI_API_KEY")
	_ = v.BindEnv("database.url", "FREDDY_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Gemini models without an explicit key pick up the shared one.
	sharedKey := v.GetString("llm.gemini_api_key")
	if sharedKey == "" {
		sharedKey = os.Getenv("GEMINI_API_KEY")
	}
	for name, m := range cfg.LLMCfg.Models {
		if m.Provider == ProviderGemini && m.APIKey == "" {
			m.APIKey = sharedKey
			cfg.LLMCfg.Models[name] = m
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.AgentCfg.Name == "" {
		return fmt.Errorf("agent.name must not be empty")
	}
	if c.AgentCfg.TickRate <= 0 {
		return fmt.Errorf("agent.tick_rate must be a positive integer")
	}
	if c.AgentCfg.DecisionInterval <= 0 {
		return fmt.Errorf("agent.decision_interval must be a positive integer")
	}
	if c.AgentCfg.FreeRoam && c.AgentCfg.ThinkInterval <= 0 {
		return fmt.Errorf("agent.think_interval must be a positive integer when free_roam is enabled")
	}
	if c.AgentCfg.WorkerQueueSize <= 0 {
		return fmt.Errorf("agent.worker_queue_size must be a positive integer")
	}
	if err := c.LLMCfg.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	if c.CommandsCfg.MaxConnections < 0 {
		return fmt.Errorf("commands.max_connections must not be negative")
	}
	return nil
}

// Validate checks that both routing tiers point at a configured model.
func (r *LLMRouterConfig) Validate() error {
	if len(r.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}
	for _, tier := range []struct{ name, id string }{
		{"default_fast_model", r.DefaultFastModel},
		{"default_powerful_model", r.DefaultPowerfulModel},
	} {
		if tier.id == "" {
			return fmt.Errorf("%s must be set", tier.name)
		}
		if _, ok := r.Models[tier.id]; !ok {
			return fmt.Errorf("%s refers to unknown model %q", tier.name, tier.id)
		}
	}
	for name, m := range r.Models {
		switch m.Provider {
		case ProviderOllama:
			if m.Endpoint == "" {
				return fmt.Errorf("model %q: endpoint is required for ollama", name)
			}
		case ProviderGemini:
			// The API key may legitimately arrive later via the environment.
		default:
			return fmt.Errorf("model %q: unsupported provider %q", name, m.Provider)
		}
		if m.Model == "" {
			return fmt.Errorf("model %q: model name is required", name)
		}
		if m.RequestsPerSecond < 0 {
			return fmt.Errorf("model %q: requests_per_second must not be negative", name)
		}
	}
	return nil
}

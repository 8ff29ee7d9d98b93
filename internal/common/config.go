package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Search      SearchConfig    `toml:"search"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Vectors VectorStoreConfig `toml:"vectors"`
	Badger  BadgerConfig      `toml:"badger"`
}

// VectorStoreConfig configures the file-backed chunk store
type VectorStoreConfig struct {
	Path string `toml:"path" validate:"required"` // Directory holding one JSON file per document
}

// BadgerConfig represents BadgerDB-specific configuration for the
// knowledge graph store
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// SearchConfig contains tuning for the hybrid search path
type SearchConfig struct {
	DefaultLimit       int     `toml:"default_limit" validate:"gt=0"`                    // Results returned when the caller gives no limit (default: 8)
	MinScore           float64 `toml:"min_score" validate:"gte=0,lte=1"`                 // Minimum dense similarity kept (default: 0.3)
	RRFConstant        float64 `toml:"rrf_constant" validate:"gt=0"`                     // Rank-fusion damping constant (default: 60)
	DiversityThreshold float64 `toml:"diversity_threshold" validate:"gte=0,lte=1"`       // Word-overlap cutoff for near-duplicate results (default: 0.7)
	CandidateFactor    int     `toml:"candidate_factor" validate:"gt=0"`                 // Over-fetch multiplier before fusion and filtering (default: 3)
}

// RetrievalConfig contains tuning for the adaptive pipeline
type RetrievalConfig struct {
	MaxResults         int     `toml:"max_results" validate:"gt=0"`                // Default context count per request (default: 10)
	MultiStageRounds   int     `toml:"multi_stage_rounds" validate:"gt=0,lte=10"`  // Stages for the multi-stage strategy (default: 3)
	DedupThreshold     float64 `toml:"dedup_threshold" validate:"gte=0,lte=1"`     // Word-overlap cutoff for cross-stage duplicates (default: 0.8)
	EarlyStopCount     int     `toml:"early_stop_count" validate:"gt=0"`           // Minimum accumulated contexts before early stop (default: 10)
	EarlyStopScore     float64 `toml:"early_stop_score" validate:"gte=0,lte=1"`    // Mean score required for early stop (default: 0.8)
	GraphDepth         int     `toml:"graph_depth" validate:"gt=0,lte=5"`          // Traversal depth for the knowledge graph strategy (default: 2)
	GraphEntityLimit   int     `toml:"graph_entity_limit" validate:"gt=0"`         // Cap on entities collected per traversal (default: 20)
	HighScoreThreshold float64 `toml:"high_score_threshold" validate:"gte=0,lte=1"` // Score counted as "high" in formulaic confidence (default: 0.8)
}

// MaintenanceConfig controls the background store maintenance job
type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	Model          string  `toml:"model"`           // Model for oracle operations (default: "gemini-2.5-flash")
	EmbeddingModel string  `toml:"embedding_model"` // Model for embeddings (default: "gemini-embedding-001")
	Dimension      int     `toml:"dimension"`       // Embedding output dimensionality (default: 768)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	RateLimit      string  `toml:"rate_limit"`      // Minimum interval between API calls (default: "4s" for 15 RPM)
	Temperature    float32 `toml:"temperature"`     // Completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for oracle operations (default: "claude-haiku-4-5")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between API calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values.
// Algorithm constants live here rather than in code so operators can tune
// them without a rebuild; only user-facing settings belong in reperio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Vectors: VectorStoreConfig{
				Path: "./data/vectors",
			},
			Badger: BadgerConfig{
				Path: "./data/graph",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Search: SearchConfig{
			DefaultLimit:       8,
			MinScore:           0.3,
			RRFConstant:        60,
			DiversityThreshold: 0.7,
			CandidateFactor:    3,
		},
		Retrieval: RetrievalConfig{
			MaxResults:         10,
			MultiStageRounds:   3,
			DedupThreshold:     0.8,
			EarlyStopCount:     10,
			EarlyStopScore:     0.8,
			GraphDepth:         2,
			GraphEntityLimit:   20,
			HighScoreThreshold: 0.8,
		},
		Maintenance: MaintenanceConfig{
			Enabled:  false,           // Disabled by default, user must opt in
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format with seconds)
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key
			Model:          "gemini-2.5-flash",
			EmbeddingModel: "gemini-embedding-001",
			Dimension:      768,
			Timeout:        "2m",
			RateLimit:      "4s", // 15 RPM for free tier
			Temperature:    0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // ANTHROPIC_API_KEY or config
			Model:       "claude-haiku-4-5",
			MaxTokens:   1024,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path skips the file step and loads defaults plus env overrides.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the loaded configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("invalid configuration: unknown llm provider %q", c.LLM.DefaultProvider)
	}

	if c.Maintenance.Enabled {
		if err := ValidateSchedule(c.Maintenance.Schedule); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: REPERIO_ENV, fallback: GO_ENV)
	if env := os.Getenv("REPERIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("REPERIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("REPERIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if vectorsPath := os.Getenv("REPERIO_VECTORS_PATH"); vectorsPath != "" {
		config.Storage.Vectors.Path = vectorsPath
	}
	if badgerPath := os.Getenv("REPERIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("REPERIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("REPERIO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("REPERIO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Search configuration
	if limit := os.Getenv("REPERIO_SEARCH_DEFAULT_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Search.DefaultLimit = l
		}
	}
	if threshold := os.Getenv("REPERIO_SEARCH_DIVERSITY_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Search.DiversityThreshold = t
		}
	}

	// Retrieval configuration
	if maxResults := os.Getenv("REPERIO_RETRIEVAL_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.Retrieval.MaxResults = mr
		}
	}
	if depth := os.Getenv("REPERIO_RETRIEVAL_GRAPH_DEPTH"); depth != "" {
		if d, err := strconv.Atoi(depth); err == nil {
			config.Retrieval.GraphDepth = d
		}
	}

	// Maintenance configuration
	if enabled := os.Getenv("REPERIO_MAINTENANCE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Maintenance.Enabled = e
		}
	}
	if schedule := os.Getenv("REPERIO_MAINTENANCE_SCHEDULE"); schedule != "" {
		config.Maintenance.Schedule = schedule
	}

	// Gemini configuration
	if apiKey := os.Getenv("REPERIO_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("REPERIO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("REPERIO_GEMINI_EMBEDDING_MODEL"); model != "" {
		config.Gemini.EmbeddingModel = model
	}
	if dimension := os.Getenv("REPERIO_GEMINI_DIMENSION"); dimension != "" {
		if d, err := strconv.Atoi(dimension); err == nil {
			config.Gemini.Dimension = d
		}
	}
	if timeout := os.Getenv("REPERIO_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("REPERIO_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("REPERIO_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("REPERIO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // REPERIO_ prefix takes priority
	}
	if model := os.Getenv("REPERIO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("REPERIO_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("REPERIO_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("REPERIO_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("REPERIO_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("REPERIO_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Command-line flags have highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateSchedule validates a cron schedule expression and ensures a
// minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected at least 5 fields")
	}

	// With the optional seconds field the minute field shifts by one
	minuteField := parts[0]
	if len(parts) == 6 {
		minuteField = parts[1]
	}

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// GeminiTimeout parses the configured Gemini timeout, defaulting to 2 minutes
func (c *Config) GeminiTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Gemini.Timeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

// ClaudeTimeout parses the configured Claude timeout, defaulting to 2 minutes
func (c *Config) ClaudeTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Claude.Timeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

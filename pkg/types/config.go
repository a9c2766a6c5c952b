package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, connection and body read included.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mission-copilot/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// CatalogDriver selects the SQL backend of the study catalog.
type CatalogDriver string

const (
	DriverSQLite   CatalogDriver = "sqlite3"
	DriverPostgres CatalogDriver = "postgres"
)

// CatalogConfig holds settings for the study record store.
type CatalogConfig struct {
	// Driver is sqlite3 (default) or postgres.
	Driver CatalogDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file. Used by the sqlite3 driver only.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// DSN is the Postgres connection string. Used by the postgres driver only.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`

	// QueryTimeout bounds each catalog query issued by the copilot.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout" mapstructure:"query_timeout"`
}

// AnswerServiceConfig holds settings for the optional external answer service.
type AnswerServiceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the service root (e.g. "http://127.0.0.1:8000"). Empty disables the service.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// TopK is the result-count hint sent as the k parameter (default 5).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
}

// CacheBackend selects where answer-service responses are cached.
type CacheBackend string

const (
	CacheNone   CacheBackend = "none"
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// CacheConfig holds settings for the answer-service response cache.
type CacheConfig struct {
	Backend    CacheBackend  `json:"backend" yaml:"backend" mapstructure:"backend"`
	TTL        time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`

	// RedisAddr, RedisDB and RedisPassword are used by the redis backend only.
	// The password normally comes from .secrets/redis-password.
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`
	RedisPassword string `json:"-" yaml:"-" mapstructure:"redis_password"`
}

// CascadeConfig holds the limits of the answer cascade.
type CascadeConfig struct {
	// SearchLimit caps structured and tokenized search results (default 8).
	SearchLimit int `json:"search_limit" yaml:"search_limit" mapstructure:"search_limit"`

	// RecentLimit caps the recent-studies listings (default 5).
	RecentLimit int `json:"recent_limit" yaml:"recent_limit" mapstructure:"recent_limit"`

	// RankedLimit caps the ranked papers rendered from the answer service (default 5).
	RankedLimit int `json:"ranked_limit" yaml:"ranked_limit" mapstructure:"ranked_limit"`

	// VocabularyFile optionally overrides the built-in word tables.
	VocabularyFile string `json:"vocabulary_file,omitempty" yaml:"vocabulary_file,omitempty" mapstructure:"vocabulary_file"`
}

// ServerConfig holds settings for the HTTP conversation surface.
type ServerConfig struct {
	Addr           string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownGrace  time.Duration `json:"shutdown_grace" yaml:"shutdown_grace" mapstructure:"shutdown_grace"`

	// SessionIdleTimeout drops conversations not read or written for this
	// long. Zero keeps them for the life of the process.
	SessionIdleTimeout time.Duration `json:"session_idle_timeout" yaml:"session_idle_timeout" mapstructure:"session_idle_timeout"`

	// MaxSessions caps the number of live conversations; the least recently
	// used is dropped first. Zero means no cap.
	MaxSessions int `json:"max_sessions" yaml:"max_sessions" mapstructure:"max_sessions"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// CopilotConfig groups all component configurations.
type CopilotConfig struct {
	Catalog       CatalogConfig       `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	AnswerService AnswerServiceConfig `json:"answer_service" yaml:"answer_service" mapstructure:"answer_service"`
	Cache         CacheConfig         `json:"cache" yaml:"cache" mapstructure:"cache"`
	Cascade       CascadeConfig       `json:"cascade" yaml:"cascade" mapstructure:"cascade"`
	Server        ServerConfig        `json:"server" yaml:"server" mapstructure:"server"`
	Log           LogConfig           `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultCopilotConfig returns the configuration used when no file or
// environment override is present.
func DefaultCopilotConfig() CopilotConfig {
	return CopilotConfig{
		Catalog: CatalogConfig{
			Driver:       DriverSQLite,
			Path:         "data/studies.db",
			QueryTimeout: 5 * time.Second,
		},
		AnswerService: AnswerServiceConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   4 * time.Second,
				UserAgent: "mission-copilot/0.1",
			},
			TopK: 5,
		},
		Cache: CacheConfig{
			Backend:    CacheNone,
			TTL:        10 * time.Minute,
			MaxEntries: 1000,
			RedisAddr:  "127.0.0.1:6379",
		},
		Cascade: CascadeConfig{
			SearchLimit: 8,
			RecentLimit: 5,
			RankedLimit: 5,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			RequestTimeout: 30 * time.Second,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   35 * time.Second,
			ShutdownGrace:  10 * time.Second,

			SessionIdleTimeout: time.Hour,
			MaxSessions:        10000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

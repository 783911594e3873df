package common

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Gemini     GeminiConfig
	Retry      RetryConfig
	Credential CredentialConfig
	Storage    StorageConfig
	Async      AsyncConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// GeminiConfig holds LLM-related configuration
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// RetryConfig controls the rate-limit retry policy of the extraction client
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// CredentialConfig selects where the Gemini API key is persisted
type CredentialConfig struct {
	Backend         string // memory | sqlite | postgres | redis
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
}

// StorageConfig selects where rendered decks are kept for download links
type StorageConfig struct {
	Backend        string // local | minio
	Dir            string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	MinIORegion    string
	MinIOBucket    string
	URLExpiry      time.Duration
}

// AsyncConfig sizes the background analysis queue
type AsyncConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig reads config.yaml (optional) and REPORTGEN_* environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/reportgen")
	v.SetEnvPrefix("REPORTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
	}
	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(64<<20))

	v.SetDefault("gemini.model", "gemini-3-pro-preview")
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.timeout", 2*time.Minute)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", 5*time.Second)

	v.SetDefault("credential.backend", "memory")
	v.SetDefault("credential.max_conns", 5)
	v.SetDefault("credential.min_conns", 1)
	v.SetDefault("credential.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("credential.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("credential.dial_timeout", 3*time.Second)
	v.SetDefault("credential.redis_addr", "localhost:6379")
	v.SetDefault("credential.redis_prefix", "reportgen:")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.dir", "./tmp/reports")
	v.SetDefault("storage.minio_bucket", "reports")
	v.SetDefault("storage.url_expiry", 24*time.Hour)

	v.SetDefault("async.workers", 1)
	v.SetDefault("async.queue_size", 16)
	v.SetDefault("async.job_timeout", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        v.GetString("server.http_addr"),
			GRPCAddr:        v.GetString("server.grpc_addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxUploadBytes:  v.GetInt64("server.max_upload_bytes"),
		},
		Gemini: GeminiConfig{
			// the bare variable name is what Google's tooling exports
			APIKey:      firstNonEmpty(v.GetString("gemini.api_key"), getEnv("GEMINI_API_KEY", "")),
			Model:       v.GetString("gemini.model"),
			Temperature: float32(v.GetFloat64("gemini.temperature")),
			Timeout:     v.GetDuration("gemini.timeout"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   v.GetDuration("retry.base_delay"),
		},
		Credential: CredentialConfig{
			Backend:         strings.ToLower(v.GetString("credential.backend")),
			DSN:             v.GetString("credential.dsn"),
			MaxConns:        v.GetInt32("credential.max_conns"),
			MinConns:        v.GetInt32("credential.min_conns"),
			MaxConnLifetime: v.GetDuration("credential.max_conn_lifetime"),
			MaxConnIdleTime: v.GetDuration("credential.max_conn_idle_time"),
			DialTimeout:     v.GetDuration("credential.dial_timeout"),
			RedisAddr:       v.GetString("credential.redis_addr"),
			RedisPassword:   v.GetString("credential.redis_password"),
			RedisDB:         v.GetInt("credential.redis_db"),
			RedisPrefix:     v.GetString("credential.redis_prefix"),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(v.GetString("storage.backend")),
			Dir:            v.GetString("storage.dir"),
			MinIOEndpoint:  v.GetString("storage.minio_endpoint"),
			MinIOAccessKey: v.GetString("storage.minio_access_key"),
			MinIOSecretKey: v.GetString("storage.minio_secret_key"),
			MinIOUseSSL:    v.GetBool("storage.minio_use_ssl"),
			MinIORegion:    v.GetString("storage.minio_region"),
			MinIOBucket:    v.GetString("storage.minio_bucket"),
			URLExpiry:      v.GetDuration("storage.url_expiry"),
		},
		Async: AsyncConfig{
			Workers:    v.GetInt("async.workers"),
			QueueSize:  v.GetInt("async.queue_size"),
			JobTimeout: v.GetDuration("async.job_timeout"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(vals ...string) string {
	for _, s := range vals {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("server.http_addr", c.Server.HTTPAddr, Required).
		Field("gemini.model", c.Gemini.Model, Required).
		Field("credential.backend", c.Credential.Backend, OneOf("memory", "sqlite", "postgres", "redis")).
		Field("storage.backend", c.Storage.Backend, OneOf("local", "minio"))
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	if c.Retry.MaxAttempts < 1 {
		return NewAppError(CodeConfig, "retry.max_attempts must be at least 1", ErrInvalidInput)
	}
	if (c.Credential.Backend == "sqlite" || c.Credential.Backend == "postgres") && c.Credential.DSN == "" {
		return NewAppError(CodeConfig, "credential.dsn is required for backend "+c.Credential.Backend, ErrInvalidInput)
	}
	if c.Storage.Backend == "minio" && c.Storage.MinIOEndpoint == "" {
		return NewAppError(CodeConfig, "storage.minio_endpoint is required for minio storage", ErrInvalidInput)
	}
	return nil
}

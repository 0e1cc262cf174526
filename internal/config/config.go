package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Preprocess PreprocessConfig
	OCR        OCRConfig
	Vision     VisionConfig
	Extraction ExtractionConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds the per-client limit applied to the extract route.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// PreprocessConfig holds image preprocessing settings.
type PreprocessConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MaxDimension   int     `mapstructure:"max_dimension"`
	ContrastFactor float64 `mapstructure:"contrast_factor"`
	BlurSigma      float64 `mapstructure:"blur_sigma"`
	UpscaleFactor  float64 `mapstructure:"upscale_factor"`
}

// OCRConfig holds local OCR engine settings.
type OCRConfig struct {
	Language      string `mapstructure:"language"`
	MaxConcurrent int64  `mapstructure:"max_concurrent"`
}

// ParserProviderConfig holds settings for a single vision model provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// Configured reports whether the provider has both a name and a credential.
func (p *ParserProviderConfig) Configured() bool {
	return p != nil && p.Provider != "" && p.APIKey != ""
}

// VisionConfig holds vision model extractor settings with multi-provider support.
type VisionConfig struct {
	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
	Tertiary  ParserProviderConfig `mapstructure:"tertiary"`

	// RequestsPerMinute caps outbound vision calls across all requests. Zero disables the cap.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`

	// UsePreprocessed sends the preprocessed image to the model instead of the original.
	UsePreprocessed bool `mapstructure:"use_preprocessed"`
}

// PrimaryConfig returns the primary provider config, or nil if it has no credential.
func (v *VisionConfig) PrimaryConfig() *ParserProviderConfig {
	if v.Primary.Configured() {
		return &v.Primary
	}
	return nil
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (v *VisionConfig) SecondaryConfig() *ParserProviderConfig {
	if v.Secondary.Configured() {
		return &v.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (v *VisionConfig) TertiaryConfig() *ParserProviderConfig {
	if v.Tertiary.Configured() {
		return &v.Tertiary
	}
	return nil
}

// Providers returns the configured providers in priority order.
func (v *VisionConfig) Providers() []*ParserProviderConfig {
	var out []*ParserProviderConfig
	for _, p := range []*ParserProviderConfig{v.PrimaryConfig(), v.SecondaryConfig(), v.TertiaryConfig()} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// ExtractionConfig holds facade timeouts and batch settings.
type ExtractionConfig struct {
	LegTimeoutSecs     int  `mapstructure:"leg_timeout_secs"`
	RequestTimeoutSecs int  `mapstructure:"request_timeout_secs"`
	Concurrency        int  `mapstructure:"concurrency"`
	RecordRuns         bool `mapstructure:"record_runs"`
}

// LegTimeout returns the per-leg timeout as a duration.
func (e *ExtractionConfig) LegTimeout() time.Duration {
	return time.Duration(e.LegTimeoutSecs) * time.Second
}

// RequestTimeout returns the whole-call timeout as a duration.
func (e *ExtractionConfig) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutSecs) * time.Second
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for the receipt image archive.
type S3Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Debug reports whether verbose logging is requested.
func (l *LogConfig) Debug() bool {
	return strings.EqualFold(strings.TrimSpace(l.Level), "debug")
}

// Flags returns the standard logger flags for the configured level. Debug adds
// microseconds and the calling file; other levels log in UTC.
func (l *LogConfig) Flags() int {
	if l.Debug() {
		return log.LstdFlags | log.Lmicroseconds | log.Lshortfile
	}
	return log.LstdFlags | log.LUTC
}

// Load reads configuration from environment variables with the RECEIPTS_ prefix.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config.Load: no .env file found, using environment variables")
	}

	v := viper.New()
	v.SetEnvPrefix("RECEIPTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "receipts")
	v.SetDefault("db.password", "receipts_secret")
	v.SetDefault("db.name", "receipts_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "receipts-archive")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)

	// Preprocess defaults
	v.SetDefault("preprocess.enabled", true)
	v.SetDefault("preprocess.max_dimension", 2000)
	v.SetDefault("preprocess.contrast_factor", 30.0)
	v.SetDefault("preprocess.blur_sigma", 0.5)
	v.SetDefault("preprocess.upscale_factor", 2.0)

	// OCR defaults
	v.SetDefault("ocr.language", "por")
	v.SetDefault("ocr.max_concurrent", 2)

	// Vision defaults
	v.SetDefault("vision.primary.provider", "openai")
	v.SetDefault("vision.primary.api_key", "")
	v.SetDefault("vision.primary.default_model", "")
	v.SetDefault("vision.primary.max_tokens", 4096)
	v.SetDefault("vision.primary.timeout_secs", 60)
	v.SetDefault("vision.secondary.provider", "")
	v.SetDefault("vision.secondary.api_key", "")
	v.SetDefault("vision.secondary.default_model", "")
	v.SetDefault("vision.secondary.max_tokens", 4096)
	v.SetDefault("vision.secondary.timeout_secs", 60)
	v.SetDefault("vision.tertiary.provider", "")
	v.SetDefault("vision.tertiary.api_key", "")
	v.SetDefault("vision.tertiary.default_model", "")
	v.SetDefault("vision.tertiary.max_tokens", 4096)
	v.SetDefault("vision.tertiary.timeout_secs", 60)
	v.SetDefault("vision.requests_per_minute", 60)
	v.SetDefault("vision.use_preprocessed", false)

	// Extraction defaults
	v.SetDefault("extraction.leg_timeout_secs", 60)
	v.SetDefault("extraction.request_timeout_secs", 75)
	v.SetDefault("extraction.concurrency", 4)
	v.SetDefault("extraction.record_runs", false)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "RECEIPTS_SERVER_PORT",
		"server.read_timeout":             "RECEIPTS_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "RECEIPTS_SERVER_WRITE_TIMEOUT",
		"server.environment":              "RECEIPTS_SERVER_ENVIRONMENT",
		"db.host":                         "RECEIPTS_DB_HOST",
		"db.port":                         "RECEIPTS_DB_PORT",
		"db.user":                         "RECEIPTS_DB_USER",
		"db.password":                     "RECEIPTS_DB_PASSWORD",
		"db.name":                         "RECEIPTS_DB_NAME",
		"db.sslmode":                      "RECEIPTS_DB_SSLMODE",
		"db.max_open":                     "RECEIPTS_DB_MAX_OPEN",
		"db.max_idle":                     "RECEIPTS_DB_MAX_IDLE",
		"s3.enabled":                      "RECEIPTS_S3_ENABLED",
		"s3.region":                       "RECEIPTS_S3_REGION",
		"s3.bucket":                       "RECEIPTS_S3_BUCKET",
		"s3.endpoint":                     "RECEIPTS_S3_ENDPOINT",
		"s3.access_key":                   "RECEIPTS_S3_ACCESS_KEY",
		"s3.secret_key":                   "RECEIPTS_S3_SECRET_KEY",
		"s3.max_file_size_mb":             "RECEIPTS_S3_MAX_FILE_SIZE_MB",
		"log.level":                       "RECEIPTS_LOG_LEVEL",
		"cors.allowed_origins":            "RECEIPTS_CORS_ALLOWED_ORIGINS",
		"rate_limit.requests_per_minute":  "RECEIPTS_RATE_LIMIT_REQUESTS_PER_MINUTE",
		"rate_limit.burst":                "RECEIPTS_RATE_LIMIT_BURST",
		"preprocess.enabled":              "RECEIPTS_PREPROCESS_ENABLED",
		"preprocess.max_dimension":        "RECEIPTS_PREPROCESS_MAX_DIMENSION",
		"preprocess.contrast_factor":      "RECEIPTS_PREPROCESS_CONTRAST_FACTOR",
		"preprocess.blur_sigma":           "RECEIPTS_PREPROCESS_BLUR_SIGMA",
		"preprocess.upscale_factor":       "RECEIPTS_PREPROCESS_UPSCALE_FACTOR",
		"ocr.language":                    "RECEIPTS_OCR_LANGUAGE",
		"ocr.max_concurrent":              "RECEIPTS_OCR_MAX_CONCURRENT",
		"vision.primary.provider":         "RECEIPTS_VISION_PRIMARY_PROVIDER",
		"vision.primary.api_key":          "RECEIPTS_VISION_PRIMARY_API_KEY",
		"vision.primary.default_model":    "RECEIPTS_VISION_PRIMARY_DEFAULT_MODEL",
		"vision.primary.max_tokens":       "RECEIPTS_VISION_PRIMARY_MAX_TOKENS",
		"vision.primary.timeout_secs":     "RECEIPTS_VISION_PRIMARY_TIMEOUT_SECS",
		"vision.secondary.provider":       "RECEIPTS_VISION_SECONDARY_PROVIDER",
		"vision.secondary.api_key":        "RECEIPTS_VISION_SECONDARY_API_KEY",
		"vision.secondary.default_model":  "RECEIPTS_VISION_SECONDARY_DEFAULT_MODEL",
		"vision.secondary.max_tokens":     "RECEIPTS_VISION_SECONDARY_MAX_TOKENS",
		"vision.secondary.timeout_secs":   "RECEIPTS_VISION_SECONDARY_TIMEOUT_SECS",
		"vision.tertiary.provider":        "RECEIPTS_VISION_TERTIARY_PROVIDER",
		"vision.tertiary.api_key":         "RECEIPTS_VISION_TERTIARY_API_KEY",
		"vision.tertiary.default_model":   "RECEIPTS_VISION_TERTIARY_DEFAULT_MODEL",
		"vision.tertiary.max_tokens":      "RECEIPTS_VISION_TERTIARY_MAX_TOKENS",
		"vision.tertiary.timeout_secs":    "RECEIPTS_VISION_TERTIARY_TIMEOUT_SECS",
		"vision.requests_per_minute":      "RECEIPTS_VISION_REQUESTS_PER_MINUTE",
		"vision.use_preprocessed":         "RECEIPTS_VISION_USE_PREPROCESSED",
		"extraction.leg_timeout_secs":     "RECEIPTS_EXTRACTION_LEG_TIMEOUT_SECS",
		"extraction.request_timeout_secs": "RECEIPTS_EXTRACTION_REQUEST_TIMEOUT_SECS",
		"extraction.concurrency":          "RECEIPTS_EXTRACTION_CONCURRENCY",
		"extraction.record_runs":          "RECEIPTS_EXTRACTION_RECORD_RUNS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if RECEIPTS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("RECEIPTS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Enabled:       v.GetBool("s3.enabled"),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level: v.GetString("log.level"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.RateLimit = RateLimitConfig{
		RequestsPerMinute: v.GetInt("rate_limit.requests_per_minute"),
		Burst:             v.GetInt("rate_limit.burst"),
	}
	cfg.Preprocess = PreprocessConfig{
		Enabled:        v.GetBool("preprocess.enabled"),
		MaxDimension:   v.GetInt("preprocess.max_dimension"),
		ContrastFactor: v.GetFloat64("preprocess.contrast_factor"),
		BlurSigma:      v.GetFloat64("preprocess.blur_sigma"),
		UpscaleFactor:  v.GetFloat64("preprocess.upscale_factor"),
	}
	cfg.OCR = OCRConfig{
		Language:      v.GetString("ocr.language"),
		MaxConcurrent: v.GetInt64("ocr.max_concurrent"),
	}
	cfg.Vision = VisionConfig{
		Primary:           providerConfig(v, "vision.primary"),
		Secondary:         providerConfig(v, "vision.secondary"),
		Tertiary:          providerConfig(v, "vision.tertiary"),
		RequestsPerMinute: v.GetInt("vision.requests_per_minute"),
		UsePreprocessed:   v.GetBool("vision.use_preprocessed"),
	}
	cfg.Extraction = ExtractionConfig{
		LegTimeoutSecs:     v.GetInt("extraction.leg_timeout_secs"),
		RequestTimeoutSecs: v.GetInt("extraction.request_timeout_secs"),
		Concurrency:        v.GetInt("extraction.concurrency"),
		RecordRuns:         v.GetBool("extraction.record_runs"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ParserProviderConfig {
	return ParserProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxTokens:    v.GetInt(prefix + ".max_tokens"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList parses a comma-separated string, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

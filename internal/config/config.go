package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/arunprabus/health-api/internal/ratelimit"
)

const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

var ErrInvalid = errors.New("invalid config")

type LimitConfig struct {
	MaxRequests int   `yaml:"max_requests"`
	WindowMS    int64 `yaml:"window_ms"`
}

func (l LimitConfig) Limiter() ratelimit.Config {
	return ratelimit.Config{
		MaxRequests: l.MaxRequests,
		Window:      time.Duration(l.WindowMS) * time.Millisecond,
	}
}

type CognitoConfig struct {
	UserPoolID string  `yaml:"user_pool_id"`
	ClientID   string  `yaml:"client_id"`
	Region     string  `yaml:"region"`
	RPS        float64 `yaml:"rps"`
}

// Enabled reports whether both identifiers are set.
func (c CognitoConfig) Enabled() bool {
	return c.UserPoolID != "" && c.ClientID != ""
}

type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UploadDir string `yaml:"upload_dir"`
	MaxBytes  int64  `yaml:"max_bytes"`
}

type Config struct {
	Addr          string        `yaml:"addr"`
	BasePath      string        `yaml:"base_path"`
	DataDir       string        `yaml:"data_dir"`
	DBPath        string        `yaml:"db_path"`
	LogLevel      string        `yaml:"log_level"`
	Env           string        `yaml:"env"`
	Swagger       bool          `yaml:"swagger"`
	TrustProxy    bool          `yaml:"trust_proxy"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTTTL        time.Duration `yaml:"jwt_ttl"`
	RateLimit     LimitConfig   `yaml:"rate_limit"`
	AuthRateLimit LimitConfig   `yaml:"auth_rate_limit"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	AWSRegion     string        `yaml:"aws_region"`
	OutboundProxy string        `yaml:"outbound_proxy"`
	Cognito       CognitoConfig `yaml:"cognito"`
	Storage       StorageConfig `yaml:"storage"`
}

func (c Config) Production() bool {
	return c.Env == "production"
}

func Default() Config {
	return Config{
		Addr:          ":5000",
		BasePath:      "/api",
		DataDir:       "data",
		LogLevel:      "info",
		Env:           "development",
		Swagger:       true,
		CORSOrigins:   []string{"*"},
		JWTTTL:        7 * 24 * time.Hour,
		RateLimit:     LimitConfig{MaxRequests: 100, WindowMS: 15 * 60 * 1000},
		AuthRateLimit: LimitConfig{MaxRequests: 20, WindowMS: 15 * 60 * 1000},
		SweepInterval: 5 * time.Minute,
		AWSRegion:     "ap-south-1",
		Cognito:       CognitoConfig{RPS: 5},
		Storage:       StorageConfig{MaxBytes: 10 << 20},
	}
}

// Load resolves configuration from defaults, an optional YAML file
// (HEALTH_CONFIG_FILE), a .env file and the process environment, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("HEALTH_CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	envFile := os.Getenv("HEALTH_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.finish()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Addr = ":" + port
	}
	setString(&cfg.Addr, "HEALTH_ADDR")
	setString(&cfg.BasePath, "API_BASE_PATH")
	setString(&cfg.DataDir, "HEALTH_DATA_DIR")
	setString(&cfg.DBPath, "HEALTH_DB_PATH")
	setString(&cfg.LogLevel, "HEALTH_LOG_LEVEL")
	setString(&cfg.Env, "NODE_ENV")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.AWSRegion, "AWS_REGION")
	setString(&cfg.OutboundProxy, "HEALTH_OUTBOUND_PROXY")
	setString(&cfg.Cognito.UserPoolID, "COGNITO_USER_POOL_ID")
	setString(&cfg.Cognito.ClientID, "COGNITO_CLIENT_ID")
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.Bucket, "S3_BUCKET_NAME")
	setString(&cfg.Storage.Region, "S3_REGION")
	setString(&cfg.Storage.UploadDir, "UPLOAD_DIR")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var errs []error
	errs = append(errs,
		setBool(&cfg.Swagger, "HEALTH_SWAGGER"),
		setBool(&cfg.TrustProxy, "HEALTH_TRUST_PROXY"),
		setDuration(&cfg.JWTTTL, "JWT_TTL"),
		setDuration(&cfg.SweepInterval, "RATE_LIMIT_SWEEP_INTERVAL"),
		setInt(&cfg.RateLimit.MaxRequests, "RATE_LIMIT_MAX_REQUESTS"),
		setInt64(&cfg.RateLimit.WindowMS, "RATE_LIMIT_WINDOW_MS"),
		setInt(&cfg.AuthRateLimit.MaxRequests, "AUTH_RATE_LIMIT_MAX_REQUESTS"),
		setInt64(&cfg.AuthRateLimit.WindowMS, "AUTH_RATE_LIMIT_WINDOW_MS"),
		setFloat(&cfg.Cognito.RPS, "COGNITO_RPS"),
		setInt64(&cfg.Storage.MaxBytes, "UPLOAD_MAX_BYTES"),
	)
	return errors.Join(errs...)
}

// finish fills values derived from other settings.
func (c *Config) finish() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendLocal
		if c.Storage.Bucket != "" {
			c.Storage.Backend = BackendS3
		}
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "health.db")
	}
	c.DBPath = filepath.Clean(c.DBPath)
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = filepath.Join(c.DataDir, "uploads")
	}
	if c.Storage.Region == "" {
		c.Storage.Region = c.AWSRegion
	}
	if c.Cognito.Region == "" {
		c.Cognito.Region = c.AWSRegion
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		c.BasePath = "/" + c.BasePath
	}
	c.BasePath = strings.TrimRight(c.BasePath, "/")
}

func (c Config) Validate() error {
	var errs []error
	if err := c.RateLimit.Limiter().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rate_limit: %w", err))
	}
	if err := c.AuthRateLimit.Limiter().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth_rate_limit: %w", err))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: sweep interval must not be negative", ErrInvalid))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: jwt ttl must be positive", ErrInvalid))
	}
	switch c.Storage.Backend {
	case BackendS3:
		if c.Storage.Bucket == "" {
			errs = append(errs, fmt.Errorf("%w: S3_BUCKET_NAME is required for the s3 storage backend", ErrInvalid))
		}
	case BackendLocal:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.Storage.Backend))
	}
	if c.Storage.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("%w: upload max bytes must be positive", ErrInvalid))
	}
	if c.OutboundProxy != "" {
		if u, err := url.Parse(c.OutboundProxy); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%w: outbound proxy must be an absolute URL", ErrInvalid))
		}
	}
	if c.Cognito.Enabled() && c.Cognito.RPS <= 0 {
		errs = append(errs, fmt.Errorf("%w: cognito rps must be positive", ErrInvalid))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Upload backends.
const (
	UploadLocal = "local"
	UploadS3    = "s3"
)

// Config is the application configuration.
type Config struct {
	Port          int      `yaml:"port"`
	MongoURI      string   `yaml:"mongo_uri"`
	MongoDB       string   `yaml:"mongo_db"`
	JWTKey        string   `yaml:"jwt_key"`
	TokenTTLHours int      `yaml:"token_ttl_hours"`
	Debug         bool     `yaml:"debug"`
	LogLevel      string   `yaml:"log_level"`
	Store         string   `yaml:"store"`
	UploadBackend string   `yaml:"upload_backend"`
	UploadDir     string   `yaml:"upload_dir"`
	MaxUploadMB   int      `yaml:"max_upload_mb"`
	S3Bucket      string   `yaml:"s3_bucket"`
	AWSRegion     string   `yaml:"aws_region"`
	CORSOrigins   []string `yaml:"cors_origins"`
	AdminEmail    string   `yaml:"admin_email"`
	AdminPassword string   `yaml:"admin_password"`

	// LogRetentionDays is how long operation logs are kept; 0 keeps them forever.
	LogRetentionDays int `yaml:"log_retention_days"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Port:          5000,
		MongoURI:      "mongodb://127.0.0.1:27017",
		MongoDB:       "feedback",
		TokenTTLHours: 24,
		Debug:         true,
		LogLevel:      "info",
		Store:         StoreMongo,
		UploadBackend: UploadLocal,
		UploadDir:     "uploads/feedback",
		MaxUploadMB:   10,
		AWSRegion:     "us-east-1",
		CORSOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AdminEmail:    "admin@feedback.local",
		AdminPassword: "admin123",

		LogRetentionDays: 90,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file at
// path (or CONFIG_FILE), and environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvInt("PORT", c.Port)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)
	c.JWTKey = getEnv("JWT_KEY", c.JWTKey)
	c.TokenTTLHours = getEnvInt("TOKEN_TTL_HOURS", c.TokenTTLHours)
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		c.Debug = mode == "debug"
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Store = strings.ToLower(getEnv("STORE", c.Store))
	c.UploadBackend = strings.ToLower(getEnv("UPLOAD_BACKEND", c.UploadBackend))
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", c.MaxUploadMB)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	c.AdminEmail = getEnv("ADMIN_EMAIL", c.AdminEmail)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.LogRetentionDays = getEnvInt("LOG_RETENTION_DAYS", c.LogRetentionDays)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if !c.Debug && c.JWTKey == "" {
		errs = append(errs, errors.New("JWT_KEY is required in release mode"))
	}
	if c.TokenTTLHours <= 0 {
		errs = append(errs, errors.New("token_ttl_hours must be positive"))
	}
	if c.LogRetentionDays < 0 {
		errs = append(errs, errors.New("log_retention_days must not be negative"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max_upload_mb must be positive"))
	}
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			errs = append(errs, errors.New("mongo store requires MONGO_URI and MONGO_DB"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.UploadBackend {
	case UploadLocal:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("local uploads require UPLOAD_DIR"))
		}
	case UploadS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 uploads require S3_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown upload backend %q", c.UploadBackend))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the attachment size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv returns the variable or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

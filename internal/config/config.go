package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" env-default:"8081"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	Env      string `env:"ENV" env-default:"development"`

	// Local document store. StoreBackend is file, memory, sqlite, redis or
	// postgres; StorePath is a directory for file and a database file for
	// sqlite.
	StoreBackend string `env:"STORE_BACKEND" env-default:"file"`
	StorePath    string `env:"STORE_PATH" env-default:"./data"`
	StoreKey     string `env:"STORE_KEY" env-default:"lawyer_ai_intake_db_v1"`
	SessionKey   string `env:"SESSION_KEY" env-default:"lawyer_ai_intake_user_v1"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL" env-default:"redis://localhost:6379"`

	// APIBaseURL switches clients to remote mode when set.
	APIBaseURL  string        `env:"API_BASE_URL"`
	APIToken    string        `env:"API_TOKEN"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" env-default:"30s"`

	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" env-default:"24h"`

	UploadStorage   string `env:"UPLOAD_STORAGE" env-default:"inline"`
	UploadLocalPath string `env:"UPLOAD_LOCAL_PATH" env-default:"./data/files"`
	S3Bucket        string `env:"AWS_S3_BUCKET"`
	S3Region        string `env:"AWS_REGION" env-default:"us-east-1"`
	AWSAccessKey    string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey    string `env:"AWS_SECRET_ACCESS_KEY"`

	// TriageRulesPath replaces the built-in urgency keywords with a YAML file.
	TriageRulesPath string `env:"TRIAGE_RULES_PATH"`
}

// devJWTSecret signs session tokens outside production when JWT_SECRET is
// unset.
const devJWTSecret = "intakedesk-dev-secret"

// LoadConfig reads an optional .env file and then the environment. Real
// environment variables win over .env entries.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Remote reports whether clients should talk to a backend instead of the
// local store.
func (c *Config) Remote() bool {
	return c.APIBaseURL != ""
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	switch c.StoreBackend {
	case "file", "memory", "sqlite", "redis", "postgres":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres store backend")
	}
	switch c.UploadStorage {
	case "inline", "local", "s3":
	default:
		return fmt.Errorf("unknown UPLOAD_STORAGE %q", c.UploadStorage)
	}
	if c.UploadStorage == "s3" && c.S3Bucket == "" {
		return errors.New("AWS_S3_BUCKET is required for s3 upload storage")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

type Config struct {
	// Server
	AppEnv      string `env:"APP_ENV" envDefault:"development" validate:"oneof=production staging development test"`
	Port        string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" validate:"required,min=32"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m" validate:"gt=0"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h" validate:"gt=0"`

	// Admin
	AdminEmails  string `env:"ADMIN_EMAILS"`
	AdminUserIDs string `env:"ADMIN_USER_IDS"`
	AdminToken   string `env:"ADMIN_TOKEN"`

	// Observability
	SentryDSN    string        `env:"SENTRY_DSN"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogRetention time.Duration `env:"LOG_RETENTION" envDefault:"720h" validate:"gt=0"`

	// Social
	NotificationTTL time.Duration `env:"NOTIFICATION_TTL" envDefault:"720h" validate:"gte=0"`

	Mongo MongoConfig `envPrefix:"MONGO_"`
}

// MongoConfig holds everything the database context needs to build its
// client. All of it is fixed at construction time.
type MongoConfig struct {
	URI                    string        `env:"URI" envDefault:"mongodb://localhost:27017" validate:"required"`
	Database               string        `env:"DATABASE" envDefault:"scratch" validate:"required"`
	ConnectTimeout         time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	SocketTimeout          time.Duration `env:"SOCKET_TIMEOUT" envDefault:"30s" validate:"gte=0"`
	ServerSelectionTimeout time.Duration `env:"SERVER_SELECTION_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	MaxPoolSize            uint64        `env:"MAX_POOL_SIZE" envDefault:"100" validate:"gt=0"`
	MinPoolSize            uint64        `env:"MIN_POOL_SIZE" envDefault:"5" validate:"ltefield=MaxPoolSize"`
	MaxConnIdleTime        time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"5m" validate:"gte=0"`
	WaitQueueTimeout       time.Duration `env:"WAIT_QUEUE_TIMEOUT" envDefault:"10s" validate:"gte=0"`
	RetryWrites            bool          `env:"RETRY_WRITES" envDefault:"true"`
	RetryReads             bool          `env:"RETRY_READS" envDefault:"true"`
	RetryAttempts          int           `env:"RETRY_ATTEMPTS" envDefault:"3" validate:"gte=0,lte=10"`
	RetryDelay             time.Duration `env:"RETRY_DELAY" envDefault:"1s" validate:"gte=0"`
}

var validate = validator.New()

// Load reads the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from vars only, ignoring the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole configuration and reports every problem at
// once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", formatValidationError(err))
	}
	return nil
}

// Validate checks only the database settings. The database context calls
// it before first use.
func (m MongoConfig) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid mongo config: %w", formatValidationError(err))
	}
	return nil
}

// DatabaseName qualifies the configured name with the environment so
// staging and development never share a database with production.
func (m MongoConfig) DatabaseName(appEnv string) string {
	switch appEnv {
	case EnvProduction, "":
		return m.Database
	default:
		return m.Database + "_" + appEnv
	}
}

func (c *Config) DatabaseName() string {
	return c.Mongo.DatabaseName(c.AppEnv)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func formatValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, e.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

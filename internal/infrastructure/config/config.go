package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store backends selectable with FLOWTASK_STORE.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// Config is the client configuration.
type Config struct {
	APIURL         string        `env:"FLOWTASK_API_URL,         default=http://localhost:8000"`
	RequestTimeout time.Duration `env:"FLOWTASK_REQUEST_TIMEOUT, default=15s"`
	Store          string        `env:"FLOWTASK_STORE,           default=sqlite"`
	StatePath      string        `env:"FLOWTASK_STATE_PATH"`
	Instance       string        `env:"FLOWTASK_INSTANCE,        default=default"`
	MetricsFile    string        `env:"FLOWTASK_METRICS_TEXTFILE"`
	Env            string        `env:"ENV,                      default=development"`
	LogLevel       string        `env:"LOG_LEVEL,                default=warn"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=flowtask"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// DevServer is the configuration of the development backend.
type DevServer struct {
	Port      string        `env:"PORT,       default=8000"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET, default=flowtask-dev-secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
}

// EnvFileVar names a dotenv file to read before the environment is
// processed. Without it, ./.env is read when present.
const EnvFileVar = "FLOWTASK_ENV_FILE"

// loadDotEnv fills unset variables from the dotenv file. Variables already
// present in the environment win.
func loadDotEnv() error {
	path := os.Getenv(EnvFileVar)
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load reads the client configuration from the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case StoreSQLite, StoreRedis, StoreMongo:
	default:
		return nil, fmt.Errorf("config: FLOWTASK_STORE must be one of sqlite, redis, mongo, got %q", cfg.Store)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("config: FLOWTASK_REQUEST_TIMEOUT must be positive")
	}

	if cfg.Store == StoreSQLite && cfg.StatePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve state path: %w", err)
		}
		cfg.StatePath = filepath.Join(dir, "flowtask", "state.db")
	}
	return &cfg, nil
}

// Pretty reports whether logs should use the console writer.
func (c *Config) Pretty() bool {
	return c.Env != "production"
}

// LoadDevServer reads the development backend configuration.
func LoadDevServer(ctx context.Context) (*DevServer, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	var cfg DevServer
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	return &cfg, nil
}

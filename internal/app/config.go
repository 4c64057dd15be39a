package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Mongo     MongoConfig
	Orders    OrdersConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// MongoConfig locates the document store.
type MongoConfig struct {
	URI            string        `usage:"MongoDB connection string (SHOP_MONGO_URI, MONGO_URI or MONGO_DETAILS)" flag:"mongo-uri"`
	Database       string        `default:"ecommerce" usage:"MongoDB database name" flag:"mongo-database"`
	ConnectTimeout time.Duration `default:"10s" usage:"Timeout for the initial connection and ping" flag:"mongo-connect-timeout"`
	QueryTimeout   time.Duration `default:"5s" usage:"Per-operation timeout" flag:"mongo-query-timeout"`
}

// OrdersConfig tunes order placement.
type OrdersConfig struct {
	LookupConcurrency int `default:"8" usage:"Parallel product lookups per order" flag:"lookup-concurrency"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies deployment fallbacks. Variables from a .env file in the
// working directory are added to the environment without overriding it.
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return loadConfig(os.Args[1:], os.Getenv)
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

func loadConfig(args []string, getenv func(string) string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(getenv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults honours the unprefixed MONGO_URI, MONGO_DETAILS and
// PORT variables set by hosting platforms and older deployments.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	for _, key := range []string{"MONGO_URI", "MONGO_DETAILS"} {
		if c.Mongo.URI != "" {
			break
		}
		c.Mongo.URI = getenv(key)
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return errors.New("mongo URI is required: set SHOP_MONGO_URI, MONGO_URI or MONGO_DETAILS")
	}
	if c.Mongo.Database == "" {
		return errors.New("mongo database name is required")
	}
	if c.RateLimit.Max < 1 || c.RateLimit.Window <= 0 {
		return errors.Errorf("invalid rate limit %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	}
	return nil
}

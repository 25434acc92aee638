package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer   `yaml:"http_server"`
	Database     `yaml:"database"`
	Redis        `yaml:"redis"`
	URLShortener `yaml:"url_shortener"`
	Auth         `yaml:"auth"`
	Geo          `yaml:"geo"`
	Clicks       `yaml:"clicks"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Address      string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  int    `yaml:"read_timeout_seconds" env:"HTTP_READ_TIMEOUT" env-default:"30"`
	WriteTimeout int    `yaml:"write_timeout_seconds" env:"HTTP_WRITE_TIMEOUT" env-default:"30"`
	IdleTimeout  int    `yaml:"idle_timeout_seconds" env:"HTTP_IDLE_TIMEOUT" env-default:"60"`
}

// Database holds PostgreSQL connection configuration.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD" env-default:""`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"linkpulse"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"50"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// Redis holds cache connection configuration.
type Redis struct {
	Address      string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB           int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	PoolSize     int    `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
}

// URLShortener holds service-specific configuration.
type URLShortener struct {
	CodeLength int    `yaml:"code_length" env:"CODE_LENGTH" env-default:"8"`
	BaseURL    string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
}

// Auth holds JWT configuration.
type Auth struct {
	Secret          string `yaml:"secret" env:"AUTH_SECRET" env-required:"true"`
	AccessTokenTTL  string `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl" env:"AUTH_REFRESH_TOKEN_TTL" env-default:"168h"`
}

// Geo holds GeoIP database configuration.
type Geo struct {
	DBPath string `yaml:"db_path" env:"GEO_DB_PATH" env-default:""`
}

// Clicks holds click processor configuration.
type Clicks struct {
	Workers    int `yaml:"workers" env:"CLICK_WORKERS" env-default:"3"`
	BufferSize int `yaml:"buffer_size" env:"CLICK_BUFFER_SIZE" env-default:"1000"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		// If config file doesn't exist, use environment variables only
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}

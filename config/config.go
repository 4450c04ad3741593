package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Log       LogConfig
	SLA       SLAConfig
	Complaint ComplaintConfig
	Roles     RolesConfig
	Worker    WorkerConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins     string        `env:"CORS_ALLOWED_ORIGINS"    env-default:"*"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig holds MySQL settings. DATABASE_URL, when set, takes
// precedence over the individual DB_* variables.
type DatabaseConfig struct {
	DatabaseURL     string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST"              env-default:"127.0.0.1"`
	Port            int           `env:"DB_PORT"              env-default:"3306"`
	User            string        `env:"DB_USER"              env-default:"root"`
	Password        string        `env:"DB_PASSWORD"`
	DBName          string        `env:"DB_NAME"              env-default:"grievancedesk"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"    env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"    env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
}

// DSN returns the driver connection string. Timestamps are always read and
// written in UTC.
func (d DatabaseConfig) DSN() string {
	if d.DatabaseURL != "" {
		return d.DatabaseURL
	}
	c := mysql.NewConfig()
	c.User = d.User
	c.Passwd = d.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	c.DBName = d.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// AuthConfig holds JWT settings
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" env-default:"24h"`
}

// LogConfig selects the zap logger
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// SLAConfig describes the business-hours window
type SLAConfig struct {
	Timezone     string  `env:"SLA_TIMEZONE"       env-default:"Asia/Kolkata"`
	DayStartHour int     `env:"SLA_DAY_START_HOUR" env-default:"10"`
	DayEndHour   int     `env:"SLA_DAY_END_HOUR"   env-default:"17"`
	BreachHours  float64 `env:"SLA_BREACH_HOURS"   env-default:"21"`
}

// ComplaintConfig holds deployment-specific complaint settings
type ComplaintConfig struct {
	RefPrefix string `env:"COMPLAINT_REF_PREFIX" env-default:"BG"`
}

// RolesConfig points at an optional role catalog override
type RolesConfig struct {
	CatalogPath string `env:"ROLE_CATALOG_PATH"`
}

// WorkerConfig holds background worker settings
type WorkerConfig struct {
	SLAMonitorEnabled  bool          `env:"SLA_MONITOR_ENABLED"  env-default:"true"`
	SLAMonitorInterval time.Duration `env:"SLA_MONITOR_INTERVAL" env-default:"5m"`
}

// LoadConfig loads .env (if present) and then reads the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.SLA.DayStartHour < 0 || c.SLA.DayEndHour > 24 || c.SLA.DayStartHour >= c.SLA.DayEndHour {
		return fmt.Errorf("invalid SLA window %d-%d", c.SLA.DayStartHour, c.SLA.DayEndHour)
	}
	switch c.Complaint.RefPrefix {
	case "BG", "GC":
	default:
		return fmt.Errorf("COMPLAINT_REF_PREFIX must be BG or GC, got %q", c.Complaint.RefPrefix)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format)
	}
	if c.Worker.SLAMonitorEnabled && c.Worker.SLAMonitorInterval <= 0 {
		return fmt.Errorf("SLA_MONITOR_INTERVAL must be positive")
	}
	return nil
}

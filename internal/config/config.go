package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the web frontend
type Config struct {
	Server   ServerConfig
	Backends BackendsConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Log      LogConfig
	Metrics  MetricsConfig
	CORS     CORSConfig
	Login    LoginConfig
	UI       UIConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BackendsConfig holds the base addresses of the three backend services.
// An empty service URL means "relative path behind the gateway".
type BackendsConfig struct {
	GatewayURL     string
	AuthURL        string
	HospitalURL    string
	AppointmentURL string
	Timeout        time.Duration
}

type SessionConfig struct {
	CookieName   string
	TTL          time.Duration
	SecureCookie bool
	Store        string // memory, redis
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr is the host:port Redis is dialled on
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig configures the audit log database
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// LoginConfig throttles login attempts per client IP. Forwarding headers
// name the client only on connections from TrustedProxies.
type LoginConfig struct {
	RatePerSecond  float64
	Burst          int
	TrustedProxies []netip.Prefix
}

type UIConfig struct {
	LowStockThreshold int
}

// Load reads configuration from an optional .env file and the environment
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getInt("SERVER_PORT", 3000),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Backends: BackendsConfig{
			GatewayURL:     getString("GATEWAY_URL", "http://localhost"),
			AuthURL:        getString("AUTH_URL", ""),
			HospitalURL:    getString("HOSPITAL_URL", ""),
			AppointmentURL: getString("APPOINTMENT_URL", ""),
			Timeout:        getDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			CookieName:   getString("SESSION_COOKIE_NAME", "hms_session"),
			TTL:          getDuration("SESSION_TTL", 24*time.Hour),
			SecureCookie: getBool("SESSION_SECURE_COOKIE", false),
			Store:        getString("SESSION_STORE", "memory"),
		},
		Redis: RedisConfig{
			Host:     getString("REDIS_HOST", "localhost"),
			Port:     getInt("REDIS_PORT", 6379),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getBool("AUDIT_ENABLED", false),
			Host:     getString("DB_HOST", "localhost"),
			Port:     getInt("DB_PORT", 5432),
			User:     getString("DB_USER", "postgres"),
			Password: getString("DB_PASSWORD", ""),
			DBName:   getString("DB_NAME", "hms_web"),
			SSLMode:  getString("DB_SSLMODE", "disable"),
			LogLevel: getString("DB_LOG_LEVEL", "warn"),
		},
		Log: LogConfig{
			Level:  getString("LOG_LEVEL", "info"),
			Format: getString("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBool("METRICS_ENABLED", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods: getList("CORS_ALLOWED_METHODS", []string{"GET", "OPTIONS"}),
			AllowedHeaders: getList("CORS_ALLOWED_HEADERS", []string{"Accept", "Content-Type"}),
		},
		Login: LoginConfig{
			RatePerSecond: getFloat("LOGIN_RATE_PER_SECOND", 1),
			Burst:         getInt("LOGIN_RATE_BURST", 5),
		},
		UI: UIConfig{
			LowStockThreshold: getInt("LOW_STOCK_THRESHOLD", 10),
		},
	}

	proxies, err := parsePrefixes(getList("TRUSTED_PROXIES", nil))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.Login.TrustedProxies = proxies

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	if c.Backends.GatewayURL == "" {
		return errors.New("GATEWAY_URL is required")
	}
	if c.Backends.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("SESSION_COOKIE_NAME is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported SESSION_STORE: %s", c.Session.Store)
	}
	if c.Login.RatePerSecond <= 0 || c.Login.Burst <= 0 {
		return errors.New("login rate limit must be positive")
	}
	if c.UI.LowStockThreshold < 0 {
		return errors.New("LOW_STOCK_THRESHOLD must not be negative")
	}
	return nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}

// parsePrefixes accepts CIDRs and bare addresses
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, err
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func getList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

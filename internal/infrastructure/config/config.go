package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Student Ally Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Security  SecurityConfig  `yaml:"security"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Redis     RedisConfig     `yaml:"redis"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	TLS      TLSConfig           `yaml:"tls"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`

	// TrustedProxies lists the addresses (IPs or CIDRs) whose
	// X-Forwarded-For header is believed. Empty means the connection
	// address is always the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare IP becomes a
// single-address prefix.
func (c ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // sqlite3, postgres or pgx
	Path         string `yaml:"path"`   // sqlite3 only
	DSN          string `yaml:"dsn"`    // postgres and pgx only
	WALMode      bool   `yaml:"wal_mode"`
	BusyTimeout  int    `yaml:"busy_timeout"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	JWT        JWTConfig       `yaml:"jwt"`
	BcryptCost int             `yaml:"bcrypt_cost"`
	Cookie     CookieConfig    `yaml:"cookie"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// JWTConfig holds the two independent token configurations.
// TTLs are in minutes.
type JWTConfig struct {
	AccessSecret    string `yaml:"access_secret"`
	RefreshSecret   string `yaml:"refresh_secret"`
	AccessTokenTTL  int    `yaml:"access_token_ttl"`
	RefreshTokenTTL int    `yaml:"refresh_token_ttl"`
}

// CookieConfig controls the access-token cookie set at login.
type CookieConfig struct {
	Name   string `yaml:"name"`
	Secure bool   `yaml:"secure"`
}

// RateLimitConfig contains rate limiting settings for credential endpoints.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// BootstrapConfig seeds the first administrator on an empty database.
type BootstrapConfig struct {
	Superadmin SuperadminConfig `yaml:"superadmin"`
}

// SuperadminConfig describes the seeded superadmin. An empty password
// makes the seeder generate one and log it once.
type SuperadminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// RedisConfig contains Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern ALLY_SECTION_KEY, for example
// ALLY_DATABASE_DSN or ALLY_JWT_ACCESS_SECRET. DATABASE_URL and PORT are
// also honoured for platform deployments.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{
					"http://localhost:5173",
					"https://student-ally-frontend.vercel.app",
				},
			},
		},
		Database: DatabaseConfig{
			Driver:      "sqlite3",
			Path:        "./data/ally.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL:  60,
				RefreshTokenTTL: 7 * 24 * 60,
			},
			BcryptCost: 10,
			Cookie: CookieConfig{
				Name:   "token",
				Secure: true,
			},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 20,
			},
		},
		Bootstrap: BootstrapConfig{
			Superadmin: SuperadminConfig{Name: "Super Admin"},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ally-core",
			},
			QoS:         1,
			TopicPrefix: "ally",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("ALLY_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if port, ok := envInt("ALLY_SERVER_PORT", "PORT"); ok {
		cfg.Server.Port = port
	}

	// Database
	if v := os.Getenv("ALLY_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("ALLY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := firstEnv("ALLY_DATABASE_DSN", "DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
		if cfg.Database.Driver == "sqlite3" && os.Getenv("ALLY_DATABASE_DRIVER") == "" {
			cfg.Database.Driver = "postgres"
		}
	}

	// Security (IMPORTANT: always set secrets via environment in production)
	if v := firstEnv("ALLY_JWT_ACCESS_SECRET", "JWT_SECRET"); v != "" {
		cfg.Security.JWT.AccessSecret = v
	}
	if v := firstEnv("ALLY_JWT_REFRESH_SECRET", "JWT_REFRESH_SECRET"); v != "" {
		cfg.Security.JWT.RefreshSecret = v
	}

	// Bootstrap
	if v := os.Getenv("ALLY_SUPERADMIN_EMAIL"); v != "" {
		cfg.Bootstrap.Superadmin.Email = v
	}
	if v := os.Getenv("ALLY_SUPERADMIN_PASSWORD"); v != "" {
		cfg.Bootstrap.Superadmin.Password = v
	}

	// Redis
	if v := os.Getenv("ALLY_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ALLY_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// MQTT
	if v := os.Getenv("ALLY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ALLY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ALLY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ALLY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// firstEnv returns the first non-empty environment variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// envInt parses the first non-empty variable among keys as an integer.
func envInt(keys ...string) (int, bool) {
	v := firstEnv(keys...)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, "server.trusted_proxies: "+err.Error())
	}

	// Database validation
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite3")
		}
	case "postgres", "pgx":
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for "+c.Database.Driver+" (set ALLY_DATABASE_DSN or DATABASE_URL)")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite3, postgres, or pgx", c.Database.Driver))
	}

	// Token secrets: required, long enough, and independent of each other.
	const minJWTSecretLength = 32
	jwt := c.Security.JWT
	if jwt.AccessSecret == "" {
		errs = append(errs, "security.jwt.access_secret is required (set ALLY_JWT_ACCESS_SECRET)")
	} else if len(jwt.AccessSecret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.access_secret must be at least 32 characters")
	}
	if jwt.RefreshSecret == "" {
		errs = append(errs, "security.jwt.refresh_secret is required (set ALLY_JWT_REFRESH_SECRET)")
	} else if len(jwt.RefreshSecret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.refresh_secret must be at least 32 characters")
	}
	if jwt.AccessSecret != "" && jwt.AccessSecret == jwt.RefreshSecret {
		errs = append(errs, "security.jwt.access_secret and refresh_secret must differ")
	}
	if jwt.AccessTokenTTL <= 0 || jwt.RefreshTokenTTL <= 0 {
		errs = append(errs, "security.jwt token TTLs must be positive")
	}

	// bcrypt accepts 4..31
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, "security.bcrypt_cost must be between 4 and 31")
	}

	if c.Security.RateLimit.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "security.rate_limit requires redis.addr")
		}
		if c.Security.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "security.rate_limit.requests_per_minute must be positive")
		}
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// AccessTokenTTL returns the access token lifetime as a Duration.
func (c SecurityConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenTTL) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime as a Duration.
func (c SecurityConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTokenTTL) * time.Minute
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

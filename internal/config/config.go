// Package config provides configuration loading and validation for the eventboard services.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default configuration constants.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultMongoDBTimeout     = 10 * time.Second
	DefaultMongoDBMaxPoolSize = 100

	DefaultRedisPoolSize = 10

	DefaultJWTLeeway          = 30 * time.Second
	DefaultJWTRefreshInterval = 1 * time.Hour

	DefaultServiceTimeout = 10 * time.Second
	DefaultSessionTTL     = 24 * time.Hour
)

// Service names; each binary loads the shared configuration under its own name.
const (
	ServiceEvents    = "events"
	ServicePosts     = "posts"
	ServiceUsers     = "users"
	ServicePageserve = "pageserve"
)

// defaultPorts keeps the four services from colliding on one host.
var defaultPorts = map[string]int{
	ServicePageserve: 8080,
	ServiceEvents:    8081,
	ServicePosts:     8082,
	ServiceUsers:     8083,
}

// AppMode defines the application wiring mode.
type AppMode string

// Application wiring modes.
const (
	// AppModeReal uses MongoDB, Redis and the configured identity provider.
	AppModeReal AppMode = "real"

	// AppModeMock uses in-memory stores. It is refused in production.
	AppModeMock AppMode = "mock"
)

// Config holds the complete service configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	MongoDB  MongoDBConfig  `yaml:"mongodb"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Media    MediaConfig    `yaml:"media"`
	Services ServicesConfig `yaml:"services"`
	Session  SessionConfig  `yaml:"session"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	// Name is the service name used in logs and metrics.
	Name string `yaml:"name" env:"APP_NAME"`

	// Mode controls dependency wiring: "real" (default) or "mock".
	Mode AppMode `yaml:"mode" env:"APP_MODE"`

	// Environment is development, test, staging or production.
	Environment string `yaml:"environment" env:"APP_ENV"`
}

// IsMockMode returns true if the service should use in-memory implementations.
func (c AppConfig) IsMockMode() bool {
	return c.Mode == AppModeMock
}

// ServerConfig holds HTTP server configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Address returns the full server address (host:port).
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MongoDBConfig holds MongoDB connection configuration. An empty URI leaves the
// document store unconfigured: the service starts and every record operation
// reports the store as unavailable.
//
//nolint:golines // Struct tags require longer lines for readability
type MongoDBConfig struct {
	URI         string        `yaml:"uri" env:"MONGODB_URI"`
	Database    string        `yaml:"database" env:"MONGODB_DATABASE"`
	Timeout     time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT"`
	MaxPoolSize uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
}

// Configured reports whether a MongoDB URI is set.
func (c MongoDBConfig) Configured() bool {
	return strings.TrimSpace(c.URI) != ""
}

// RedisConfig holds Redis connection configuration (pageserve sessions).
//
//nolint:golines // Struct tags require longer lines for readability
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

// LogConfig holds logging configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // json | text
}

// AuthConfig configures verification of identity-provider tokens (users service).
//
//nolint:golines // Struct tags require longer lines for readability
type AuthConfig struct {
	Issuer          string        `yaml:"issuer" env:"AUTH_ISSUER"`
	JWKSURL         string        `yaml:"jwks_url" env:"AUTH_JWKS_URL"`
	Audience        string        `yaml:"audience" env:"AUTH_AUDIENCE"`
	Leeway          time.Duration `yaml:"leeway" env:"AUTH_LEEWAY"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"AUTH_REFRESH_INTERVAL"`
}

// Enabled reports whether token verification is configured.
func (c AuthConfig) Enabled() bool {
	return c.JWKSURL != ""
}

// MediaConfig configures Cloudinary storage for post files.
//
//nolint:golines // Struct tags require longer lines for readability
type MediaConfig struct {
	CloudName string `yaml:"cloud_name" env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `yaml:"api_key" env:"CLOUDINARY_API_KEY"`
	APISecret string `yaml:"api_secret" env:"CLOUDINARY_API_SECRET"`
	Folder    string `yaml:"folder" env:"CLOUDINARY_FOLDER"`
}

// Enabled reports whether Cloudinary credentials are present.
func (c MediaConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// ServicesConfig holds the base URLs pageserve forwards to.
//
//nolint:golines // Struct tags require longer lines for readability
type ServicesConfig struct {
	EventsURL string        `yaml:"events_url" env:"EVENTS_SERVICE_URL"`
	PostsURL  string        `yaml:"posts_url" env:"POSTS_SERVICE_URL"`
	UsersURL  string        `yaml:"users_url" env:"USERS_SERVICE_URL"`
	Timeout   time.Duration `yaml:"timeout" env:"SERVICES_TIMEOUT"`
}

// SessionConfig configures pageserve sessions.
//
//nolint:golines // Struct tags require longer lines for readability
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
	KeyPrefix  string        `yaml:"key_prefix" env:"SESSION_KEY_PREFIX"`
	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE"`
}

// Configuration errors.
var (
	ErrConfigNotFound   = errors.New("configuration file not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrMissingRequired  = errors.New("missing required configuration")
	ErrInvalidDuration  = errors.New("invalid duration format")
	ErrInvalidLogLevel  = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat = errors.New("invalid log format: must be json or text")
	ErrInvalidAppMode   = errors.New("invalid app mode: must be real or mock")
	ErrInvalidAppEnv    = errors.New("invalid environment: must be development, test, staging, or production")
	ErrMockModeInProd   = errors.New("mock mode is not allowed in production")
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "eventboard",
			Mode:        AppModeReal,
			Environment: "development",
		},
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		MongoDB: MongoDBConfig{
			Database:    "eventboard",
			Timeout:     DefaultMongoDBTimeout,
			MaxPoolSize: DefaultMongoDBMaxPoolSize,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: DefaultRedisPoolSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			Issuer:          "https://accounts.google.com",
			Leeway:          DefaultJWTLeeway,
			RefreshInterval: DefaultJWTRefreshInterval,
		},
		Media: MediaConfig{
			Folder: "eventboard/posts",
		},
		Services: ServicesConfig{
			EventsURL: "http://localhost:8081/v1",
			PostsURL:  "http://localhost:8082/v1",
			UsersURL:  "http://localhost:8083/v1",
			Timeout:   DefaultServiceTimeout,
		},
		Session: SessionConfig{
			CookieName: "eventboard_session",
			KeyPrefix:  "pageserve:session:",
			TTL:        DefaultSessionTTL,
		},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []error

	errs = c.validateApp(errs)
	errs = c.validateServer(errs)
	errs = c.validateMongoDB(errs)
	errs = c.validateLog(errs)
	errs = c.validateSession(errs)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}

	return nil
}

// RequireServices checks the downstream URLs pageserve needs.
func (c *Config) RequireServices() error {
	var errs []error
	if c.Services.EventsURL == "" {
		errs = append(errs, fmt.Errorf("%w: services.events_url", ErrMissingRequired))
	}
	if c.Services.PostsURL == "" {
		errs = append(errs, fmt.Errorf("%w: services.posts_url", ErrMissingRequired))
	}
	if c.Services.UsersURL == "" {
		errs = append(errs, fmt.Errorf("%w: services.users_url", ErrMissingRequired))
	}
	if c.Services.Timeout <= 0 {
		errs = append(errs, errors.New("services.timeout must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) validateApp(errs []error) []error {
	if c.App.Mode != "" && c.App.Mode != AppModeReal && c.App.Mode != AppModeMock {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidAppMode, c.App.Mode))
	}
	switch strings.ToLower(c.App.Environment) {
	case "development", "test", "staging", "production":
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidAppEnv, c.App.Environment))
	}
	if c.App.IsMockMode() && c.IsProduction() {
		errs = append(errs, ErrMockModeInProd)
	}
	return errs
}

func (c *Config) validateServer(errs []error) []error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	return errs
}

func (c *Config) validateMongoDB(errs []error) []error {
	if !c.MongoDB.Configured() {
		return errs
	}
	if c.MongoDB.Database == "" {
		errs = append(errs, errors.New("mongodb.database is required when mongodb.uri is set"))
	}
	if c.MongoDB.Timeout <= 0 {
		errs = append(errs, errors.New("mongodb.timeout must be positive"))
	}
	return errs
}

func (c *Config) validateLog(errs []error) []error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ErrInvalidLogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ErrInvalidLogFormat)
	}
	return errs
}

func (c *Config) validateSession(errs []error) []error {
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	return errs
}

// IsDevelopment returns true for the development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Environment, "development")
}

// IsProduction returns true for the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

// Loader handles configuration loading from files and environment variables.
type Loader struct {
	configPaths []string
	envFiles    []string
	service     string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		configPaths: []string{
			"configs/config.yaml",
			"config.yaml",
			"/etc/eventboard/config.yaml",
		},
		envFiles: []string{".env"},
	}
}

// WithConfigPaths sets custom config paths to search.
func (l *Loader) WithConfigPaths(paths []string) *Loader {
	l.configPaths = paths
	return l
}

// WithEnvFiles sets the dotenv files read before environment overrides.
func (l *Loader) WithEnvFiles(files []string) *Loader {
	l.envFiles = files
	return l
}

// WithService loads for one service: its default name and port apply, and
// configs/<service>.yaml is searched before the shared file.
func (l *Loader) WithService(service string) *Loader {
	l.service = service
	l.configPaths = append([]string{fmt.Sprintf("configs/%s.yaml", service)}, l.configPaths...)
	return l
}

// Load loads configuration from file and environment variables.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if l.service != "" {
		cfg.App.Name = l.service
		if port, ok := defaultPorts[l.service]; ok {
			cfg.Server.Port = port
		}
	}

	configPath := path
	if configPath == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			configPath = envPath
		} else {
			for _, p := range l.configPaths {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
	}

	if configPath != "" {
		if err := l.loadFromFile(cfg, configPath); err != nil {
			// Only return error if path was explicitly specified
			if path != "" || os.Getenv("CONFIG_PATH") != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		}
	}

	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv reads the dotenv files that exist. Variables already set in the
// process environment win.
func (l *Loader) loadDotEnv() error {
	var existing []string
	for _, f := range l.envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func (l *Loader) loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.loadEnvToStruct(reflect.ValueOf(cfg).Elem())
}

// loadEnvToStruct recursively loads environment variables into a struct.
func (l *Loader) loadEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := range v.NumField() {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.loadEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue, ok := os.LookupEnv(envTag)
		if !ok {
			continue
		}

		if err := l.setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s from env %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// setFieldFromEnv sets a struct field value from an environment variable string.
// An empty string is accepted for string fields only, so MONGODB_URI= can clear a
// URI coming from the config file.
//
//nolint:exhaustive // We only support a subset of reflect.Kind for config values
func (l *Loader) setFieldFromEnv(field reflect.Value, value string) error {
	if value == "" && field.Kind() != reflect.String {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidDuration, value)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", value)
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", value)
		}
		field.SetUint(u)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

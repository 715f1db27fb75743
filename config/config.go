package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/drone/envsubst"
	"github.com/subosito/gotenv"
	"go.yaml.in/yaml/v4"
)

// defaultConfig is used when no config.yml is present; env vars still apply.
const defaultConfig = `
server:
  port: ${PORT:-8080}
  mode: ${GIN_MODE:-release}
database:
  host: ${DB_HOST:-localhost}
  port: ${DB_PORT:-5432}
  user: ${DB_USER:-ridelink}
  password: ${DB_PASSWORD:-ridelink}
  name: ${DB_NAME:-ridelink}
  sslmode: ${DB_SSLMODE:-disable}
auth:
  jwt_secret: ${JWT_SECRET:-}
  jwt_expire: ${JWT_EXPIRE:-168h}
  email_suffix: ${EMAIL_SUFFIX:-.edu.pk}
  require_verification: ${REQUIRE_VERIFICATION:-false}
rabbitmq:
  url: ${RABBITMQ_URL:-}
  exchange: ${RABBITMQ_EXCHANGE:-ridelink.events}
app:
  timezone: ${APP_TIMEZONE:-Asia/Karachi}
log:
  level: ${LOG_LEVEL:-info}
`

type Config struct {
	Server   ServerCfg   `yaml:"server"`
	Database DatabaseCfg `yaml:"database"`
	Auth     AuthCfg     `yaml:"auth"`
	RabbitMQ RabbitMQCfg `yaml:"rabbitmq"`
	App      AppCfg      `yaml:"app"`
	Log      LogCfg      `yaml:"log"`
}

type ServerCfg struct {
	Port uint16 `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseCfg struct {
	Host     string `yaml:"host"`
	Port     uint16 `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthCfg struct {
	JWTSecret           string `yaml:"jwt_secret"`
	JWTExpire           string `yaml:"jwt_expire"`
	EmailSuffix         string `yaml:"email_suffix"`
	RequireVerification bool   `yaml:"require_verification"`
}

type RabbitMQCfg struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type AppCfg struct {
	Timezone string `yaml:"timezone"`
}

type LogCfg struct {
	Level string `yaml:"level"`
}

// Load reads .env (if any) and the YAML file at path, substituting
// ${VAR:-default} references from the environment. A missing file falls
// back to the built-in defaults.
func Load(path string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	raw := defaultConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			raw = string(data)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	replaced, err := envsubst.EvalEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("expand config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(defaultsExpanded()), cfg); err != nil {
		return nil, fmt.Errorf("decode default config: %w", err)
	}
	if err := yaml.Unmarshal([]byte(replaced), cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultsExpanded() string {
	s, err := envsubst.Eval(defaultConfig, func(string) string { return "" })
	if err != nil {
		return ""
	}
	return s
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) TokenTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.JWTExpire)
	if err != nil {
		return 0, fmt.Errorf("auth.jwt_expire: %w", err)
	}
	return d, nil
}

// Location is the timezone ride dates and times are entered in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app.timezone: %w", err)
	}
	return loc, nil
}

func (c *DatabaseCfg) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

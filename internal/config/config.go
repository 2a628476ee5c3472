package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Configuration is built once in main and handed to every component that
// needs it. Nothing reads it through package-level state.
type Configuration struct {
	Server   ServerConfig   `json:"server"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
	Database DatabaseConfig `json:"database"`
	Mail     MailConfig     `json:"mail"`
}

type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

type SecurityConfig struct {
	JWTSecret        string `json:"jwt_secret"`
	JWTExpMinutes    int    `json:"jwt_exp_minutes"`
	ClockSkewSeconds int    `json:"clock_skew_seconds"`

	// Signup tokens select the role tier granted on registration.
	SignupTokenDBA      string `json:"signup_token_dba"`
	SignupTokenAdmin    string `json:"signup_token_admin"`
	SignupTokenResource string `json:"signup_token_resource"`

	ResetTokenTTL time.Duration `json:"reset_token_ttl"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

type DatabaseConfig struct {
	Host            string `json:"host"`
	Port            string `json:"port"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	SSLMode         string `json:"ssl_mode"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	MaxOpenConns    int    `json:"max_open_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
}

// Load reads the configuration file when present, applies defaults and then
// environment overrides for the values that differ per deployment.
func Load(filePath string) (*Configuration, error) {
	cfg := defaults()

	if filePath != "" {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		cfg.applyDefaults()
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Configuration {
	cfg := &Configuration{}
	cfg.applyDefaults()
	return cfg
}

func (c *Configuration) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	if c.Security.JWTExpMinutes == 0 {
		c.Security.JWTExpMinutes = 120
	}
	if c.Security.ClockSkewSeconds == 0 {
		c.Security.ClockSkewSeconds = 30
	}
	if c.Security.ResetTokenTTL == 0 {
		c.Security.ResetTokenTTL = time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "development"
	}

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.Username == "" {
		c.Database.Username = "postgres"
	}
	if c.Database.Name == "" {
		c.Database.Name = "docscriptum"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}

	if c.Mail.From == "" {
		c.Mail.From = "no-reply@docscriptum.local"
	}
}

func (c *Configuration) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Port, "PORT")
	set(&c.Security.JWTSecret, "JWT_SECRET")
	set(&c.Security.SignupTokenDBA, "SIGNUP_TOKEN_DBA")
	set(&c.Security.SignupTokenAdmin, "SIGNUP_TOKEN_ADMIN")
	set(&c.Security.SignupTokenResource, "SIGNUP_TOKEN_RESOURCE")
	set(&c.Database.Host, "DB_HOST")
	set(&c.Database.Port, "DB_PORT")
	set(&c.Database.Username, "DB_USER")
	set(&c.Database.Password, "DB_PASSWORD")
	set(&c.Database.Name, "DB_NAME")
	set(&c.Mail.Host, "MAIL_HOST")
	set(&c.Mail.Port, "MAIL_PORT")
	set(&c.Mail.Username, "MAIL_USER")
	set(&c.Mail.Password, "MAIL_PASSWORD")
}

// LogConfig logs the effective configuration with secrets redacted.
func (c *Configuration) LogConfig(logger *zap.Logger) {
	logger.Info("Application configuration",
		zap.String("port", c.Server.Port),
		zap.Duration("read_timeout", c.Server.ReadTimeout),
		zap.Duration("write_timeout", c.Server.WriteTimeout),
		zap.Int("jwt_exp_minutes", c.Security.JWTExpMinutes),
		zap.Int("clock_skew_seconds", c.Security.ClockSkewSeconds),
		zap.String("database_host", c.Database.Host),
		zap.String("database_name", c.Database.Name),
		zap.String("mail_host", c.Mail.Host),
	)
}

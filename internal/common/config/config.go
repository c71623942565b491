package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Matching      MatchingConfig      `mapstructure:"matching"`
	Dispatch      DispatchConfig      `mapstructure:"dispatch"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// AdminConfig configures the operational HTTP listener (/metrics,
// /api/ping).
type AdminConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// GetMigrationURL returns the DSN in URL form for golang-migrate.
func (p PostgresConfig) GetMigrationURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the single URL field or the first configured address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// MatchingConfig carries the default candidate search criteria.
type MatchingConfig struct {
	RadiusKm       float64 `mapstructure:"radius_km"`
	MinRating      float64 `mapstructure:"min_rating"`
	IncludeUnrated bool    `mapstructure:"include_unrated"`
	MaxCandidates  int     `mapstructure:"max_candidates"`
	DirectoryIndex string  `mapstructure:"directory_index"`
}

// DispatchConfig bounds the notification fan-out.
type DispatchConfig struct {
	Workers int           `mapstructure:"workers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type NotificationConfig struct {
	AWS AWSConfig `mapstructure:"aws"`
	SNS SNSConfig `mapstructure:"sns"`
	SES SESConfig `mapstructure:"ses"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type SNSConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
}

type SESConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	FromEmail string `mapstructure:"from_email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// file: internal/config/config.go
// version: 2.1.0
// guid: 116e8cd8-d348-4dc6-8ad0-940dc2b94184

package config

import (
	"strings"
	"time"

	"github.com/jdfalk/bookclub/internal/database"
	"github.com/spf13/viper"
)

// MetadataConfig controls the Google Books lookup.
type MetadataConfig struct {
	BaseURL           string
	APIKey            string
	MaxResults        int
	LookupTimeout     time.Duration
	CacheTTL          time.Duration // 0 disables the resolution cache
	CacheMaxEntries   int           // bounds the resolution cache
	RequestsPerMinute int           // 0 disables the outbound limiter
}

// CoversConfig controls cover candidate derivation and probing.
type CoversConfig struct {
	ServiceURL   string
	ProbeTimeout time.Duration
	MinPixels    int
}

// BookConfig is a title/author pair.
type BookConfig struct {
	Title  string
	Author string
}

// Config holds application configuration
type Config struct {
	DatabaseType string // "pebble" (default), "sqlite", "postgres" or "memory"
	DatabasePath string
	EnableSQLite bool // Must be true to use SQLite (safety flag)
	PostgresDSN  string

	Host     string
	Port     string
	SiteName string

	// DefaultBook is rendered when nothing has been stored or the store
	// cannot be read.
	DefaultBook BookConfig

	Metadata MetadataConfig
	Covers   CoversConfig

	UpdatesPerMinute int

	// HeartbeatInterval is how often idle /events streams get a heartbeat.
	HeartbeatInterval time.Duration
}

var AppConfig Config

// SetDefaults registers every default with viper.
func SetDefaults() {
	viper.SetDefault("database_type", "pebble")
	viper.SetDefault("database_path", "bookclub.pebble")
	viper.SetDefault("enable_sqlite3_i_know_the_risks", false)
	viper.SetDefault("postgres_dsn", "")

	viper.SetDefault("host", "localhost")
	viper.SetDefault("port", "8080")
	viper.SetDefault("site.name", "The Literary Society")

	viper.SetDefault("default_book.title", "The Remains of the Day")
	viper.SetDefault("default_book.author", "Kazuo Ishiguro")

	viper.SetDefault("metadata.base_url", "https://www.googleapis.com/books/v1")
	viper.SetDefault("metadata.api_key", "")
	viper.SetDefault("metadata.max_results", 10)
	viper.SetDefault("metadata.lookup_timeout", "5s")
	viper.SetDefault("metadata.cache_ttl", "0s")
	viper.SetDefault("metadata.cache_max_entries", 1000)
	viper.SetDefault("metadata.requests_per_minute", 0)

	viper.SetDefault("covers.service_url", "https://covers.openlibrary.org/b")
	viper.SetDefault("covers.probe_timeout", "3s")
	viper.SetDefault("covers.min_pixels", 10)

	viper.SetDefault("rate_limit.updates_per_minute", 30)
	viper.SetDefault("events.heartbeat_interval", "15s")
}

// InitConfig initializes the application configuration
func InitConfig() {
	SetDefaults()

	viper.SetEnvPrefix("BOOKCLUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// GOOGLE_BOOKS_* names are accepted as aliases.
	_ = viper.BindEnv("metadata.base_url", "BOOKCLUB_METADATA_BASE_URL", "GOOGLE_BOOKS_BASE_URL")
	_ = viper.BindEnv("metadata.api_key", "BOOKCLUB_METADATA_API_KEY", "GOOGLE_BOOKS_API_KEY")

	AppConfig = Config{
		DatabaseType: viper.GetString("database_type"),
		DatabasePath: viper.GetString("database_path"),
		EnableSQLite: viper.GetBool("enable_sqlite3_i_know_the_risks"),
		PostgresDSN:  viper.GetString("postgres_dsn"),
		Host:         viper.GetString("host"),
		Port:         viper.GetString("port"),
		SiteName:     viper.GetString("site.name"),
		DefaultBook: BookConfig{
			Title:  viper.GetString("default_book.title"),
			Author: viper.GetString("default_book.author"),
		},
		Metadata: MetadataConfig{
			BaseURL:           strings.TrimRight(viper.GetString("metadata.base_url"), "/"),
			APIKey:            viper.GetString("metadata.api_key"),
			MaxResults:        viper.GetInt("metadata.max_results"),
			LookupTimeout:     viper.GetDuration("metadata.lookup_timeout"),
			CacheTTL:          viper.GetDuration("metadata.cache_ttl"),
			CacheMaxEntries:   viper.GetInt("metadata.cache_max_entries"),
			RequestsPerMinute: viper.GetInt("metadata.requests_per_minute"),
		},
		Covers: CoversConfig{
			ServiceURL:   strings.TrimRight(viper.GetString("covers.service_url"), "/"),
			ProbeTimeout: viper.GetDuration("covers.probe_timeout"),
			MinPixels:    viper.GetInt("covers.min_pixels"),
		},
		UpdatesPerMinute:  viper.GetInt("rate_limit.updates_per_minute"),
		HeartbeatInterval: viper.GetDuration("events.heartbeat_interval"),
	}

	// Normalize database type
	switch AppConfig.DatabaseType {
	case "sqlite3":
		AppConfig.DatabaseType = "sqlite"
	case "postgresql":
		AppConfig.DatabaseType = "postgres"
	case "":
		AppConfig.DatabaseType = "pebble"
	}

	// Guard against values that would disable the bounded-wait behaviour.
	if AppConfig.Metadata.MaxResults <= 0 || AppConfig.Metadata.MaxResults > 40 {
		AppConfig.Metadata.MaxResults = 10
	}
	if AppConfig.Metadata.LookupTimeout <= 0 {
		AppConfig.Metadata.LookupTimeout = 5 * time.Second
	}
	if AppConfig.Covers.ProbeTimeout <= 0 {
		AppConfig.Covers.ProbeTimeout = 3 * time.Second
	}
	if AppConfig.Covers.MinPixels <= 0 {
		AppConfig.Covers.MinPixels = 10
	}
	if AppConfig.HeartbeatInterval <= 0 {
		AppConfig.HeartbeatInterval = 15 * time.Second
	}
}

// StoreOptions returns the database options for the configured backend.
func (c Config) StoreOptions() database.StoreOptions {
	return database.StoreOptions{
		Type:         c.DatabaseType,
		Path:         c.DatabasePath,
		EnableSQLite: c.EnableSQLite,
		PostgresDSN:  c.PostgresDSN,
	}
}

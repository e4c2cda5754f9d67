// Package config loads application settings from .env, an optional config file and the
// environment. Variables use the LUNNOR_ prefix; the older unprefixed names (PORT,
// DATABASE_URL, ENCRYPTION_KEY, ...) are still honoured.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devEncryptionKey = "default-key-for-development-only"

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Firebase      FirebaseConfig      `mapstructure:"firebase"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Recurrence    RecurrenceConfig    `mapstructure:"recurrence"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	StaticDir      string        `mapstructure:"static_dir"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

type FirebaseConfig struct {
	ServiceAccountJSON   string `mapstructure:"service_account_json"`
	ServiceAccountBase64 string `mapstructure:"service_account_base64"`
	ServiceAccountFile   string `mapstructure:"service_account_file"`
	// DevUserID is trusted as the caller when no credentials are configured outside production.
	DevUserID string `mapstructure:"dev_user_id"`
}

type AdminConfig struct {
	// DefaultEmails are approved as admins the first time they sign in.
	DefaultEmails []string `mapstructure:"default_emails"`
}

type RecurrenceConfig struct {
	OccurrenceCount int `mapstructure:"occurrence_count"`
}

type NotificationsConfig struct {
	Channel          string `mapstructure:"channel"` // whatsapp, discord or log
	SchedulerEnabled bool   `mapstructure:"scheduler_enabled"`
	WhatsAppAPIURL   string `mapstructure:"whatsapp_api_url"`
	DiscordToken     string `mapstructure:"discord_token"`
	DiscordChannelID string `mapstructure:"discord_channel_id"`
}

// legacy env names bound next to the prefixed ones
var aliases = map[string][]string{
	"env":                             {"APP_ENV", "ENVIRONMENT", "ENV", "NODE_ENV"},
	"server.port":                     {"PORT"},
	"server.allowed_origins":          {"CORS_ALLOWED_ORIGINS"},
	"database.url":                    {"DATABASE_URL"},
	"database.host":                   {"DB_HOST"},
	"database.port":                   {"DB_PORT"},
	"database.user":                   {"DB_USER"},
	"database.password":               {"DB_PASSWORD"},
	"database.name":                   {"DB_NAME"},
	"database.ssl_mode":               {"DB_SSL_MODE"},
	"security.encryption_key":         {"ENCRYPTION_KEY"},
	"firebase.service_account_json":   {"FIREBASE_SERVICE_ACCOUNT_JSON", "FIREBASE_SERVICE_ACCOUNT"},
	"firebase.service_account_base64": {"FIREBASE_SERVICE_ACCOUNT_BASE64"},
	"firebase.service_account_file":   {"GOOGLE_APPLICATION_CREDENTIALS"},
	"admin.default_emails":            {"ADMIN_EMAILS"},
	"notifications.discord_token":     {"DISCORD_TOKEN"},
}

// Load reads configuration. envFile is loaded into the process environment first; when empty,
// a .env in the working directory is used if present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("LUNNOR_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lunnor")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LUNNOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range aliases {
		prefixed := "LUNNOR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.static_dir", "./dist")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "./database.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "lunnor")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("security.encryption_key", "")
	v.SetDefault("firebase.service_account_json", "")
	v.SetDefault("firebase.service_account_base64", "")
	v.SetDefault("firebase.service_account_file", "")
	v.SetDefault("firebase.dev_user_id", "dev-user")
	v.SetDefault("admin.default_emails", []string{})
	v.SetDefault("recurrence.occurrence_count", 5)
	v.SetDefault("notifications.channel", "log")
	v.SetDefault("notifications.scheduler_enabled", true)
	v.SetDefault("notifications.whatsapp_api_url", "https://graph.facebook.com/v19.0")
	v.SetDefault("notifications.discord_token", "")
	v.SetDefault("notifications.discord_channel_id", "")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	// A bare DATABASE_URL means Postgres, as on the hosted deployment.
	if c.Database.URL != "" && c.Database.Driver == "sqlite3" {
		c.Database.Driver = "postgres"
	}
	c.Server.AllowedOrigins = cleanList(c.Server.AllowedOrigins)
	c.Admin.DefaultEmails = cleanList(c.Admin.DefaultEmails)
	for i, email := range c.Admin.DefaultEmails {
		c.Admin.DefaultEmails[i] = strings.ToLower(email)
	}
	c.Notifications.Channel = strings.ToLower(strings.TrimSpace(c.Notifications.Channel))

	if c.Security.EncryptionKey == "" && !c.IsProduction() {
		log.Println("Warning: ENCRYPTION_KEY not set, using a default key. This is NOT secure for production!")
		c.Security.EncryptionKey = devEncryptionKey
	}
}

// cleanList splits comma-joined entries (env values arrive as one string) and drops blanks.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Security.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required in production")
	}
	if c.Recurrence.OccurrenceCount < 1 {
		return fmt.Errorf("recurrence.occurrence_count must be at least 1, got %d", c.Recurrence.OccurrenceCount)
	}
	switch c.Notifications.Channel {
	case "log", "whatsapp":
	case "discord":
		if c.Notifications.DiscordToken == "" || c.Notifications.DiscordChannelID == "" {
			return errors.New("discord notifications need DISCORD_TOKEN and notifications.discord_channel_id")
		}
	default:
		return fmt.Errorf("notifications.channel must be log, whatsapp or discord, got %q", c.Notifications.Channel)
	}
	return nil
}

// HasFirebaseCredentials reports whether token verification can be set up.
func (c *Config) HasFirebaseCredentials() bool {
	f := c.Firebase
	return f.ServiceAccountJSON != "" || f.ServiceAccountBase64 != "" || f.ServiceAccountFile != ""
}

package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
	BackendBolt   = "bolt"
	BackendB2     = "b2"
)

type (
	Config struct {
		Env             string
		Debug           bool
		TestMode        bool
		Build           string
		AppName         string
		SecretKey       string
		FrontendBaseURL string
		Timezone        *time.Location

		Server struct {
			Address            string
			DebugAddress       string
			ShutdownTimeout    time.Duration
			DisableRequestLogs bool
		}

		Storage struct {
			Backend string
		}

		Database struct {
			Driver string // sqlite, postgres, pgx
			URL    string
		}

		Bolt struct {
			Path string
		}

		B2 struct {
			AccountID      string
			ApplicationKey string
			Bucket         string
		}

		Auth struct {
			Enabled            bool
			GoogleClientID     string
			JWTExpirationDelta time.Duration
			DefaultOwner       string
		}

		Log struct {
			Level string
			File  string
		}

		RollbarToken string
		SentryDSN    string

		Quran struct {
			BaseURL string
			Timeout time.Duration
		}

		Email struct {
			DefaultFrom    string
			SendgridAPIKey string
		}

		Digest struct {
			Enabled  bool
			Schedule string
		}
	}
)

// DefaultFromEmail parses Email.DefaultFrom, falling back to a bare address.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.Email.DefaultFrom)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// Today returns the current date in the configured timezone.
func (c *Config) Today() time.Time {
	return NowFunc().In(c.Timezone)
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Loo7")
	v.SetDefault("secretKey", "k2+e7v0#wq!s5u)l3m^rdp9(xn8&tz4c*6by1j$hgf=ao")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":8001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableRequestLogs", false)
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:loo7.db")
	v.SetDefault("bolt.path", "loo7.bolt")
	v.SetDefault("b2.accountID", "")
	v.SetDefault("b2.applicationKey", "")
	v.SetDefault("b2.bucket", "")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.googleClientID", "")
	v.SetDefault("auth.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("auth.defaultOwner", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("rollbar.token", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("quran.baseURL", "https://api.alquran.cloud/v1")
	v.SetDefault("quran.timeout", 10*time.Second)
	v.SetDefault("email.defaultFrom", "Loo7 <noreply@localhost>")
	v.SetDefault("email.sendgridAPIKey", "")
	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.schedule", "0 6 * * *")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        env == "TEST",
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		RollbarToken:    v.GetString("rollbar.token"),
		SentryDSN:       v.GetString("sentry.dsn"),
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		log.Fatalf("config.timezone(%s): %v", v.GetString("timezone"), err)
	}
	conf.Timezone = loc

	conf.Server.Address = v.GetString("server.address")
	conf.Server.DebugAddress = v.GetString("server.debugAddress")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.DisableRequestLogs = v.GetBool("server.disableRequestLogs")

	conf.Storage.Backend = strings.ToLower(v.GetString("storage.backend"))
	conf.Database.Driver = strings.ToLower(v.GetString("database.driver"))
	conf.Database.URL = v.GetString("database.url")
	conf.Bolt.Path = v.GetString("bolt.path")
	conf.B2.AccountID = v.GetString("b2.accountID")
	conf.B2.ApplicationKey = v.GetString("b2.applicationKey")
	conf.B2.Bucket = v.GetString("b2.bucket")

	conf.Auth.Enabled = v.GetBool("auth.enabled")
	conf.Auth.GoogleClientID = v.GetString("auth.googleClientID")
	conf.Auth.JWTExpirationDelta = v.GetDuration("auth.jwtExpirationDelta")
	conf.Auth.DefaultOwner = v.GetString("auth.defaultOwner")

	conf.Log.Level = v.GetString("log.level")
	conf.Log.File = v.GetString("log.file")

	conf.Quran.BaseURL = strings.TrimRight(v.GetString("quran.baseURL"), "/")
	conf.Quran.Timeout = v.GetDuration("quran.timeout")

	conf.Email.DefaultFrom = v.GetString("email.defaultFrom")
	conf.Email.SendgridAPIKey = v.GetString("email.sendgridAPIKey")

	conf.Digest.Enabled = v.GetBool("digest.enabled")
	conf.Digest.Schedule = v.GetString("digest.schedule")

	return conf
}

// NewTestConfig returns a Config suitable for tests: in-memory storage, auth disabled, UTC.
func NewTestConfig() *Config {
	conf := &Config{
		Env:       "TEST",
		TestMode:  true,
		Build:     "test",
		AppName:   "Loo7",
		SecretKey: "test-secret",
		Timezone:  time.UTC,
	}
	conf.Server.DisableRequestLogs = true
	conf.Storage.Backend = BackendMemory
	conf.Auth.JWTExpirationDelta = time.Hour
	conf.Auth.DefaultOwner = "local"
	conf.Log.Level = "error"
	conf.Quran.Timeout = time.Second
	conf.Email.DefaultFrom = "Loo7 <noreply@test.local>"
	return conf
}

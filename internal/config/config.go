// Package config provides functionality for managing configuration options
// for the server and the client using command-line flags, environment
// variables, an optional .env file and an optional JSON config file.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	LogLevel string `json:"log_level"`

	// TelegramURL is the Bot API base URL.
	TelegramURL string `json:"telegram_url"`
	// TranslateURL is the translation service endpoint.
	TranslateURL string `json:"translate_url"`
	// DictionaryURL is the dictionary used for example sentences.
	DictionaryURL string `json:"dictionary_url"`

	CleanupInterval  time.Duration `json:"-"`
	CleanupRetention time.Duration `json:"-"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Defaults for the external services.
const (
	DefaultTelegramURL   = "https://api.telegram.org"
	DefaultTranslateURL  = "https://api.mymemory.translated.net/get"
	DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
)

// Parse parses the process flags and environment. A .env file in the
// working directory, when present, is loaded first without overriding
// variables already set.
func Parse() (*Options, error) {
	_ = godotenv.Load()
	return parse(flag.CommandLine, os.Args[1:], os.Getenv)
}

func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "", "path to config file")
	fs.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to TLS key")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.TelegramURL, "telegram-url", DefaultTelegramURL, "Telegram Bot API base URL")
	fs.StringVar(&options.TranslateURL, "translate-url", DefaultTranslateURL, "translation endpoint")
	fs.StringVar(&options.DictionaryURL, "dictionary-url", DefaultDictionaryURL, "dictionary endpoint")
	fs.DurationVar(&options.CleanupInterval, "cleanup-interval", time.Hour, "cleanup interval")
	fs.DurationVar(&options.CleanupRetention, "cleanup-retention", 30*24*time.Hour, "how long deleted words are kept")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		if err != nil {
			return nil, fmt.Errorf("error while reading config file: %w", err)
		}
		if err := json.Unmarshal(data, options); err != nil {
			return nil, fmt.Errorf("error while parsing config file: %w", err)
		}
	}

	for env, dst := range map[string]*string{
		"SERVER_ADDRESS": &options.Port,
		"DATABASE_DSN":   &options.DatabaseDSN,
		"TLS_CERT":       &options.TLSCert,
		"TLS_KEY":        &options.TLSKey,
		"LOG_LEVEL":      &options.LogLevel,
		"TELEGRAM_URL":   &options.TelegramURL,
		"TRANSLATE_URL":  &options.TranslateURL,
		"DICTIONARY_URL": &options.DictionaryURL,
	} {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}

	if options.DatabaseDSN == "" {
		return nil, errors.New("database DSN is required (-d or DATABASE_DSN)")
	}
	if (options.TLSCert == "") != (options.TLSKey == "") {
		return nil, errors.New("both TLS certificate and key must be set")
	}
	return options, nil
}

// TLS reports whether the server should serve HTTPS.
func (o *Options) TLS() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

// Client holds the client settings. They come from cobra flags with
// FLASHVOCAB_* environment overrides.
type Client struct {
	ServerURL     string
	CAFile        string
	DataDir       string
	DecksDir      string
	DictionaryURL string
	LogLevel      string
	Timeout       time.Duration
}

// DefaultClient returns the client defaults.
func DefaultClient() Client {
	dir := ".flashvocab"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".flashvocab")
	}
	return Client{
		ServerURL:     "http://localhost:8080",
		DataDir:       dir,
		DecksDir:      "decks",
		DictionaryURL: DefaultDictionaryURL,
		LogLevel:      "warn",
		Timeout:       10 * time.Second,
	}
}

// ApplyEnv overrides fields from FLASHVOCAB_* variables, loading .env
// first when present. Only variables whose flag was not set explicitly
// are applied; changed reports whether a flag was set.
func (c *Client) ApplyEnv(getenv func(string) string, changed func(flag string) bool) {
	_ = godotenv.Load()
	for env, f := range map[string]struct {
		flag string
		dst  *string
	}{
		"FLASHVOCAB_SERVER":         {"server", &c.ServerURL},
		"FLASHVOCAB_CA":             {"ca", &c.CAFile},
		"FLASHVOCAB_DATA":           {"data", &c.DataDir},
		"FLASHVOCAB_DECKS":          {"decks", &c.DecksDir},
		"FLASHVOCAB_DICTIONARY_URL": {"dictionary-url", &c.DictionaryURL},
		"FLASHVOCAB_LOG_LEVEL":      {"log-level", &c.LogLevel},
	} {
		if v := getenv(env); v != "" && !changed(f.flag) {
			*f.dst = v
		}
	}
}

// DatabasePath is the SQLite file inside the data directory.
func (c Client) DatabasePath() string {
	return filepath.Join(c.DataDir, "flashvocab.db")
}

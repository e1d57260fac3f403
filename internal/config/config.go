package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	AppName        = "maillib"
	PasswordEnv    = "MAILLIB_PASSWORD"
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 993
	DefaultMailbox = "INBOX"
)

// Security modes understood by the server section.
const (
	SecurityTLS      = "tls"
	SecuritySTARTTLS = "starttls"
	SecurityNone     = "none"
)

type ServerConfig struct {
	Host               string `yaml:"host" json:"host"`
	Port               int    `yaml:"port" json:"port"`
	Security           string `yaml:"security" json:"security"`
	Auth               string `yaml:"auth,omitempty" json:"auth,omitempty"`
	Username           string `yaml:"username" json:"username"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty" json:"insecure_skip_verify,omitempty"`
}

type DefaultsConfig struct {
	Mailbox string `yaml:"mailbox" json:"mailbox"`
	Limit   int    `yaml:"limit" json:"limit"`
	Format  string `yaml:"format" json:"format"`
}

// LoggingConfig selects the slog handler. Output is stderr, stdout, discard
// or a file path.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	Format    string `yaml:"format" json:"format"`
	Output    string `yaml:"output" json:"output"`
	AddSource bool   `yaml:"add_source,omitempty" json:"add_source,omitempty"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Defaults DefaultsConfig `yaml:"defaults" json:"defaults"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			Security: SecurityTLS,
		},
		Defaults: DefaultsConfig{
			Mailbox: DefaultMailbox,
			Limit:   20,
			Format:  "text",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Validate checks the fields a connection cannot do without.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is not set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	switch c.Server.Security {
	case SecurityTLS, SecuritySTARTTLS, SecurityNone:
	default:
		return fmt.Errorf("server.security must be one of tls, starttls, none (got %q)", c.Server.Security)
	}
	switch c.Server.Auth {
	case "", "login", "plain":
	default:
		return fmt.Errorf("server.auth must be login or plain (got %q)", c.Server.Auth)
	}
	if c.Server.Username == "" {
		return errors.New("server.username is not set")
	}
	return nil
}

func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, AppName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s - run 'maillib config init' to create one", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// keyringService scopes stored passwords to one server.
func (c *Config) keyringService() string {
	return AppName + ":" + c.Server.Host
}

func (c *Config) SetPassword(password string) error {
	if c.Server.Username == "" {
		return errors.New("username must be set before storing password")
	}
	return keyring.Set(c.keyringService(), c.Server.Username, password)
}

// GetPassword returns $MAILLIB_PASSWORD when set, otherwise the keyring entry.
func (c *Config) GetPassword() (string, error) {
	if password, ok := os.LookupEnv(PasswordEnv); ok {
		return password, nil
	}
	if c.Server.Username == "" {
		return "", errors.New("username not configured")
	}
	password, err := keyring.Get(c.keyringService(), c.Server.Username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("password not found in keyring - run 'maillib config init' or set %s", PasswordEnv)
		}
		return "", fmt.Errorf("failed to get password from keyring: %w", err)
	}
	return password, nil
}

func (c *Config) DeletePassword() error {
	return keyring.Delete(c.keyringService(), c.Server.Username)
}

func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Idempotency support for mailbox mutations

const idempotencyTTL = 24 * time.Hour

type idempotencyStore struct {
	Keys map[string]int64 `json:"keys"` // key -> unix timestamp
}

func idempotencyPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "idempotency.json"), nil
}

func loadIdempotencyStore() (*idempotencyStore, error) {
	path, err := idempotencyPath()
	if err != nil {
		return nil, err
	}

	store := &idempotencyStore{Keys: make(map[string]int64)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, store); err != nil {
		return store, nil // Return empty store on parse error
	}

	return store, nil
}

func (s *idempotencyStore) save() error {
	path, err := idempotencyPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	now := time.Now().Unix()
	for key, ts := range s.Keys {
		if now-ts > int64(idempotencyTTL.Seconds()) {
			delete(s.Keys, key)
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// CheckIdempotencyKey returns true if the key was already used (within TTL)
func CheckIdempotencyKey(key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	store, err := loadIdempotencyStore()
	if err != nil {
		return false, err
	}

	ts, exists := store.Keys[key]
	if !exists {
		return false, nil
	}

	return time.Now().Unix()-ts <= int64(idempotencyTTL.Seconds()), nil
}

// RecordIdempotencyKey marks a key as used
func RecordIdempotencyKey(key string) error {
	if key == "" {
		return nil
	}

	store, err := loadIdempotencyStore()
	if err != nil {
		return err
	}

	store.Keys[key] = time.Now().Unix()
	return store.save()
}

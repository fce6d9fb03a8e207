package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WalletConfig selects the signing identity. Exactly one source is used:
// a raw private key, a keystore profile, or the wallet bridge.
type WalletConfig struct {
	PrivateKey      string // hex key, usually from WALLET_PRIVATE_KEY
	KeystorePath    string // badger keystore directory
	KeystoreProfile string // profile name inside the keystore
	KeystoreKey     string // 32-byte keystore encryption key, hex or base64
	AccountType     string // EOA or PROXY
}

// BridgeConfig controls the wallet bridge host.
type BridgeConfig struct {
	Enabled        bool
	ListenAddr     string
	AuthToken      string
	RequestTimeout int // seconds to wait for the remote wallet per request
}

// LogConfig mirrors pkg/logger.Config.
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Config is the full application configuration.
type Config struct {
	ChainID        int
	RPCEndpoints   []string // redundant read endpoints, first is the write path
	ExchangeHost   string
	Venue          string // exchange variant: "ctf" or "neg-risk"
	Wallet         WalletConfig
	Bridge         BridgeConfig
	CredentialTTL  int // minutes an API credential is considered fresh
	PollInterval   int // seconds between confirmation polls
	PollAttempts   int // confirmation polls before timing out
	StatusDelay    int // seconds before the single post-submit status poll
	JournalPath    string // sqlite order journal, empty disables it
	Log            LogConfig
}

// ConfigFile is the on-disk layout (YAML or JSON).
type ConfigFile struct {
	ChainID      int      `yaml:"chain_id" json:"chain_id"`
	RPCEndpoints []string `yaml:"rpc_endpoints" json:"rpc_endpoints"`
	ExchangeHost string   `yaml:"exchange_host" json:"exchange_host"`
	Venue        string   `yaml:"venue" json:"venue"`
	Wallet       struct {
		PrivateKey      string `yaml:"private_key" json:"private_key"`
		KeystorePath    string `yaml:"keystore_path" json:"keystore_path"`
		KeystoreProfile string `yaml:"keystore_profile" json:"keystore_profile"`
		KeystoreKey     string `yaml:"keystore_key" json:"keystore_key"`
		AccountType     string `yaml:"account_type" json:"account_type"`
	} `yaml:"wallet" json:"wallet"`
	Bridge struct {
		Enabled        bool   `yaml:"enabled" json:"enabled"`
		ListenAddr     string `yaml:"listen_addr" json:"listen_addr"`
		AuthToken      string `yaml:"auth_token" json:"auth_token"`
		RequestTimeout int    `yaml:"request_timeout" json:"request_timeout"`
	} `yaml:"bridge" json:"bridge"`
	CredentialTTL int    `yaml:"credential_ttl" json:"credential_ttl"`
	PollInterval  int    `yaml:"poll_interval" json:"poll_interval"`
	PollAttempts  int    `yaml:"poll_attempts" json:"poll_attempts"`
	StatusDelay   int    `yaml:"status_delay" json:"status_delay"`
	JournalPath   string `yaml:"journal_path" json:"journal_path"`
	LogLevel      string `yaml:"log_level" json:"log_level"`
	LogFile       string `yaml:"log_file" json:"log_file"`
}

var globalConfig *Config

// Load reads the config file (optional) and overlays environment
// variables: file value first, env fallback, then defaults.
func Load(filePath string) (*Config, error) {
	var cf *ConfigFile
	if filePath != "" {
		var err error
		cf, err = loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", filePath, err)
		}
	}

	config := &Config{
		ChainID:      pickInt(cf != nil && cf.ChainID > 0, cfInt(cf, func(c *ConfigFile) int { return c.ChainID }), parseIntEnv("CHAIN_ID", 137)),
		RPCEndpoints: pickEndpoints(cf),
		ExchangeHost: pickString(cf != nil && cf.ExchangeHost != "", cfString(cf, func(c *ConfigFile) string { return c.ExchangeHost }), getEnv("EXCHANGE_HOST", "https://clob.polymarket.com")),
		Venue:        pickString(cf != nil && cf.Venue != "", cfString(cf, func(c *ConfigFile) string { return c.Venue }), getEnv("VENUE", "ctf")),
		Wallet: WalletConfig{
			PrivateKey:      pickString(cf != nil && cf.Wallet.PrivateKey != "", cfString(cf, func(c *ConfigFile) string { return c.Wallet.PrivateKey }), getEnv("WALLET_PRIVATE_KEY", "")),
			KeystorePath:    pickString(cf != nil && cf.Wallet.KeystorePath != "", cfString(cf, func(c *ConfigFile) string { return c.Wallet.KeystorePath }), getEnv("KEYSTORE_PATH", "")),
			KeystoreProfile: pickString(cf != nil && cf.Wallet.KeystoreProfile != "", cfString(cf, func(c *ConfigFile) string { return c.Wallet.KeystoreProfile }), getEnv("KEYSTORE_PROFILE", "default")),
			KeystoreKey:     pickString(cf != nil && cf.Wallet.KeystoreKey != "", cfString(cf, func(c *ConfigFile) string { return c.Wallet.KeystoreKey }), getEnv("KEYSTORE_KEY", "")),
			AccountType:     pickString(cf != nil && cf.Wallet.AccountType != "", cfString(cf, func(c *ConfigFile) string { return c.Wallet.AccountType }), getEnv("ACCOUNT_TYPE", "EOA")),
		},
		Bridge: BridgeConfig{
			Enabled:        pickBool(cf != nil, cfBool(cf, func(c *ConfigFile) bool { return c.Bridge.Enabled }), parseBoolEnv("BRIDGE_ENABLED", false)),
			ListenAddr:     pickString(cf != nil && cf.Bridge.ListenAddr != "", cfString(cf, func(c *ConfigFile) string { return c.Bridge.ListenAddr }), getEnv("BRIDGE_LISTEN_ADDR", "127.0.0.1:8787")),
			AuthToken:      pickString(cf != nil && cf.Bridge.AuthToken != "", cfString(cf, func(c *ConfigFile) string { return c.Bridge.AuthToken }), getEnv("BRIDGE_AUTH_TOKEN", "")),
			RequestTimeout: pickInt(cf != nil && cf.Bridge.RequestTimeout > 0, cfInt(cf, func(c *ConfigFile) int { return c.Bridge.RequestTimeout }), parseIntEnv("BRIDGE_REQUEST_TIMEOUT", 120)),
		},
		CredentialTTL: pickInt(cf != nil && cf.CredentialTTL > 0, cfInt(cf, func(c *ConfigFile) int { return c.CredentialTTL }), parseIntEnv("CREDENTIAL_TTL", 30)),
		PollInterval:  pickInt(cf != nil && cf.PollInterval > 0, cfInt(cf, func(c *ConfigFile) int { return c.PollInterval }), parseIntEnv("POLL_INTERVAL", 2)),
		PollAttempts:  pickInt(cf != nil && cf.PollAttempts > 0, cfInt(cf, func(c *ConfigFile) int { return c.PollAttempts }), parseIntEnv("POLL_ATTEMPTS", 45)),
		StatusDelay:   pickInt(cf != nil && cf.StatusDelay > 0, cfInt(cf, func(c *ConfigFile) int { return c.StatusDelay }), parseIntEnv("STATUS_DELAY", 3)),
		JournalPath:   pickString(cf != nil && cf.JournalPath != "", cfString(cf, func(c *ConfigFile) string { return c.JournalPath }), getEnv("JOURNAL_PATH", "")),
		Log: LogConfig{
			Level:      pickString(cf != nil && cf.LogLevel != "", cfString(cf, func(c *ConfigFile) string { return c.LogLevel }), getEnv("LOG_LEVEL", "info")),
			File:       pickString(cf != nil && cf.LogFile != "", cfString(cf, func(c *ConfigFile) string { return c.LogFile }), getEnv("LOG_FILE", "logs/polytrade.log")),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	globalConfig = config
	return config, nil
}

// Get returns the last loaded config, or nil before Load.
func Get() *Config {
	return globalConfig
}

// Validate rejects configurations the components cannot run with.
func (c *Config) Validate() error {
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive")
	}
	if len(c.RPCEndpoints) == 0 {
		return fmt.Errorf("at least one rpc endpoint is required")
	}
	if c.ExchangeHost == "" {
		return fmt.Errorf("exchange_host is required")
	}
	switch c.Venue {
	case "ctf", "neg-risk":
	default:
		return fmt.Errorf("unknown venue %q (want ctf or neg-risk)", c.Venue)
	}
	switch c.Wallet.AccountType {
	case "EOA", "PROXY":
	default:
		return fmt.Errorf("unknown account_type %q (want EOA or PROXY)", c.Wallet.AccountType)
	}
	if !c.Bridge.Enabled && c.Wallet.PrivateKey == "" && c.Wallet.KeystorePath == "" {
		return fmt.Errorf("no signing source: set wallet.private_key, wallet.keystore_path or enable the bridge")
	}
	return nil
}

func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cf ConfigFile
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %s (want .yaml, .yml or .json)", ext)
	}
	return &cf, nil
}

func pickEndpoints(cf *ConfigFile) []string {
	if cf != nil && len(cf.RPCEndpoints) > 0 {
		return cf.RPCEndpoints
	}
	if env := getEnv("RPC_ENDPOINTS", ""); env != "" {
		parts := strings.Split(env, ",")
		endpoints := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				endpoints = append(endpoints, trimmed)
			}
		}
		if len(endpoints) > 0 {
			return endpoints
		}
	}
	return []string{"https://polygon-rpc.com", "https://polygon.llamarpc.com"}
}

func pickString(hasConfigValue bool, configValue, envValue string) string {
	if hasConfigValue {
		return configValue
	}
	return envValue
}

func pickInt(hasConfigValue bool, configValue, envValue int) int {
	if hasConfigValue {
		return configValue
	}
	return envValue
}

func pickBool(hasConfigValue bool, configValue, envValue bool) bool {
	if hasConfigValue {
		return configValue
	}
	return envValue
}

func cfString(cf *ConfigFile, getter func(*ConfigFile) string) string {
	if cf == nil {
		return ""
	}
	return getter(cf)
}

func cfInt(cf *ConfigFile, getter func(*ConfigFile) int) int {
	if cf == nil {
		return 0
	}
	return getter(cf)
}

func cfBool(cf *ConfigFile, getter func(*ConfigFile) bool) bool {
	if cf == nil {
		return false
	}
	return getter(cf)
}

// getEnv returns the env value or the default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

package configloader

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvContractAddress    = "WALLET_CONTRACT_ADDRESS"
	EnvKeystorePassphrase = "WALLET_KEYSTORE_PASSPHRASE"
	EnvRPCURL             = "WALLET_RPC_URL"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string   `yaml:"port"`
	ReadTimeout  int      `yaml:"readTimeout"`
	WriteTimeout int      `yaml:"writeTimeout"`
	IdleTimeout  int      `yaml:"idleTimeout"`
	AllowOrigins []string `yaml:"allowOrigins"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json or console
}

// NetworkConfig selects a known network and optionally overrides its endpoints.
type NetworkConfig struct {
	Identifier      string   `yaml:"identifier"` // e.g. "sepolia"
	ChainID         uint64   `yaml:"chainID"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRpcURLs"`
}

// RpcClientConfig holds configuration for RPC clients.
type RpcClientConfig struct {
	ConnectionTimeoutSeconds int     `yaml:"connectionTimeoutSeconds"`
	CallTimeoutSeconds       int     `yaml:"callTimeoutSeconds"`
	RateLimit                float64 `yaml:"rateLimit"`
	BurstLimit               int     `yaml:"burstLimit"`
}

// KeystoreConfig points at the account provider's key directory.
type KeystoreConfig struct {
	Dir         string `yaml:"dir"`
	Passphrase  string `yaml:"passphrase"`
	Account     string `yaml:"account"` // optional; defaults to the first key
	LightScrypt bool   `yaml:"lightScrypt"`
}

// ContractConfig identifies the deployed wallet contract.
type ContractConfig struct {
	Address  string `yaml:"address"`
	ABIFile  string `yaml:"abiFile"`  // optional; the embedded wallet ABI is used otherwise
	GasLimit uint64 `yaml:"gasLimit"` // 0 lets the node estimate
}

// ViewConfig tunes the wallet view.
type ViewConfig struct {
	RefreshIntervalSeconds     int `yaml:"refreshIntervalSeconds"`
	ConfirmationTimeoutSeconds int `yaml:"confirmationTimeoutSeconds"`
	SnapshotTTLMinutes         int `yaml:"snapshotTTLMinutes"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Network   NetworkConfig   `yaml:"network"`
	RpcClient RpcClientConfig `yaml:"rpcClient"`
	Keystore  KeystoreConfig  `yaml:"keystore"`
	Contract  ContractConfig  `yaml:"contract"`
	View      ViewConfig      `yaml:"view"`
}

// Load reads the YAML configuration file from the given path, applies
// environment overrides and defaults, and validates the result.
// fallbackContract is used when neither the file nor the environment set a contract address.
func Load(path, fallbackContract string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data, fallbackContract)
}

// Parse is Load without the file read.
func Parse(data []byte, fallbackContract string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	applyEnv(&cfg)
	if cfg.Contract.Address == "" && fallbackContract != "" {
		cfg.Contract.Address = fallbackContract
		logrus.Infof("Contract address not configured, using build-time default %s", fallbackContract)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvContractAddress); v != "" {
		cfg.Contract.Address = v
	}
	if v := os.Getenv(EnvKeystorePassphrase); v != "" {
		cfg.Keystore.Passphrase = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.Network.RPCURL = v
	}
}

// writeTimeoutMargin is added to the confirmation timeout when server.writeTimeout is unset.
const writeTimeoutMargin = 30

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"*"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "json"
	}

	if cfg.Network.Identifier == "" {
		cfg.Network.Identifier = "localdev"
		logrus.Infof("Network identifier not set, defaulting to %s", cfg.Network.Identifier)
	}

	if cfg.RpcClient.ConnectionTimeoutSeconds <= 0 {
		cfg.RpcClient.ConnectionTimeoutSeconds = 10
	}
	if cfg.RpcClient.CallTimeoutSeconds <= 0 {
		cfg.RpcClient.CallTimeoutSeconds = 10
	}
	if cfg.RpcClient.RateLimit <= 0 {
		cfg.RpcClient.RateLimit = 5
	}
	if cfg.RpcClient.BurstLimit <= 0 {
		cfg.RpcClient.BurstLimit = 4
	}

	if cfg.Keystore.Dir == "" {
		cfg.Keystore.Dir = "data/keystore"
		logrus.Infof("Keystore directory not set, defaulting to %s", cfg.Keystore.Dir)
	}

	if cfg.View.ConfirmationTimeoutSeconds <= 0 {
		cfg.View.ConfirmationTimeoutSeconds = 300
	}
	if cfg.Server.WriteTimeout <= 0 {
		// Action endpoints answer after the confirmation wait.
		cfg.Server.WriteTimeout = cfg.View.ConfirmationTimeoutSeconds + writeTimeoutMargin
	}
	if cfg.View.SnapshotTTLMinutes <= 0 {
		cfg.View.SnapshotTTLMinutes = 60
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Contract.Address == "" {
		return fmt.Errorf("contract address is required (config contract.address or %s)", EnvContractAddress)
	}
	if !common.IsHexAddress(c.Contract.Address) {
		return fmt.Errorf("contract address %q is not a hex address", c.Contract.Address)
	}
	if c.Keystore.Account != "" && !common.IsHexAddress(c.Keystore.Account) {
		return fmt.Errorf("keystore account %q is not a hex address", c.Keystore.Account)
	}
	if c.View.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("view.refreshIntervalSeconds must not be negative")
	}
	if c.Server.WriteTimeout <= c.View.ConfirmationTimeoutSeconds {
		return fmt.Errorf("server.writeTimeout (%ds) must exceed view.confirmationTimeoutSeconds (%ds)",
			c.Server.WriteTimeout, c.View.ConfirmationTimeoutSeconds)
	}
	c.Network.Identifier = strings.ToLower(c.Network.Identifier)
	return nil
}

// ContractAddress returns the parsed contract address.
func (c *Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Contract.Address)
}

// RefreshInterval returns the periodic refresh interval, 0 when disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.View.RefreshIntervalSeconds) * time.Second
}

// ConfirmationTimeout returns how long an action waits to be mined.
func (c *Config) ConfirmationTimeout() time.Duration {
	return time.Duration(c.View.ConfirmationTimeoutSeconds) * time.Second
}

// SnapshotTTL returns how long display snapshots are kept per account.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.View.SnapshotTTLMinutes) * time.Minute
}

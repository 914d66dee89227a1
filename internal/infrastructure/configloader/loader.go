package configloader

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g. "debug", "info", "warn", "error"
}

// AccountEndpointConfig is one environment of the account-model chain.
type AccountEndpointConfig struct {
	RPCURL      string `yaml:"rpcURL"`
	ExplorerURL string `yaml:"explorerURL"`
}

// ContractEndpointConfig is one environment of the contract-model chain.
type ContractEndpointConfig struct {
	RPCURL        string `yaml:"rpcURL"`
	ChainID       int64  `yaml:"chainID"`
	RouterV2      string `yaml:"routerV2"`
	WrappedNative string `yaml:"wrappedNative"`
	ExplorerURL   string `yaml:"explorerURL"`
}

// ChainsConfig holds the endpoints for both chain families.
type ChainsConfig struct {
	AccountMainnet  AccountEndpointConfig  `yaml:"accountMainnet"`
	AccountTestnet  AccountEndpointConfig  `yaml:"accountTestnet"`
	ContractMainnet ContractEndpointConfig `yaml:"contractMainnet"`
	ContractTestnet ContractEndpointConfig `yaml:"contractTestnet"`
}

// BatchConfig tunes the batch transfer orchestrator.
type BatchConfig struct {
	OpsPerSecond          float64 `yaml:"opsPerSecond"`
	ConfirmTimeoutSeconds int     `yaml:"confirmTimeoutSeconds"`
}

// SwapConfig holds the DEX quote client configuration.
type SwapConfig struct {
	RaydiumBaseURL       string `yaml:"raydiumBaseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	DefaultSlippageBps   int    `yaml:"defaultSlippageBps"`
}

// PerformanceConfig holds RPC client tunables.
type PerformanceConfig struct {
	RPCCallTimeoutSeconds int `yaml:"rpcCallTimeoutSeconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Chains      ChainsConfig      `yaml:"chains"`
	Batch       BatchConfig       `yaml:"batch"`
	Swap        SwapConfig        `yaml:"swap"`
	Performance PerformanceConfig `yaml:"performance"`
}

// Load reads the YAML configuration file from the given path, unmarshals it,
// and applies defaults for anything left unset.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if cfg.Chains.AccountMainnet.RPCURL == "" || cfg.Chains.ContractMainnet.RPCURL == "" {
		return nil, fmt.Errorf("config %s must define mainnet RPC endpoints for both chain families", path)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
		logrus.Infof("server.port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Chains.ContractMainnet.ChainID == 0 {
		cfg.Chains.ContractMainnet.ChainID = 56
		logrus.Infof("chains.contractMainnet.chainID not set, defaulting to %d", cfg.Chains.ContractMainnet.ChainID)
	}
	if cfg.Chains.ContractTestnet.ChainID == 0 {
		cfg.Chains.ContractTestnet.ChainID = 97
		logrus.Infof("chains.contractTestnet.chainID not set, defaulting to %d", cfg.Chains.ContractTestnet.ChainID)
	}
	if cfg.Batch.OpsPerSecond <= 0 {
		cfg.Batch.OpsPerSecond = 2
		logrus.Infof("batch.opsPerSecond not set, defaulting to %.0f", cfg.Batch.OpsPerSecond)
	}
	if cfg.Batch.ConfirmTimeoutSeconds == 0 {
		cfg.Batch.ConfirmTimeoutSeconds = 90
	}
	if cfg.Swap.RaydiumBaseURL == "" {
		cfg.Swap.RaydiumBaseURL = "https://transaction-v1.raydium.io"
		logrus.Infof("swap.raydiumBaseURL not set, defaulting to %s", cfg.Swap.RaydiumBaseURL)
	}
	if cfg.Swap.RequestTimeoutMillis == 0 {
		cfg.Swap.RequestTimeoutMillis = 10000
	}
	if cfg.Swap.DefaultSlippageBps == 0 {
		cfg.Swap.DefaultSlippageBps = 100
	}
	if cfg.Performance.RPCCallTimeoutSeconds == 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 20
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	KMS        KMSConfig        `yaml:"kms"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	MetricsAllowedIPs  []string `yaml:"metricsAllowedIps"` // loopback is always allowed
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
}

// DatabaseConfig database configuration. An empty DSN disables submission records.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// AuthConfig JWT configuration for the submission API
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// KMSConfig KMS service configuration
type KMSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ServiceURL string `yaml:"serviceUrl"`
	AuthToken  string `yaml:"authToken"`
	Timeout    int    `yaml:"timeout"` // seconds
}

// BlockchainConfig networks the entry point is deployed on
type BlockchainConfig struct {
	DefaultNetwork string                   `yaml:"defaultNetwork"`
	Networks       map[string]NetworkConfig `yaml:"networks"`
}

// NetworkConfig one entry point deployment
type NetworkConfig struct {
	ChainID        int             `yaml:"chainId"`
	Name           string          `yaml:"name"`
	RPCEndpoints   []string        `yaml:"rpcEndpoints"`
	EntryPoint     string          `yaml:"entryPoint"`
	SolverUtils    string          `yaml:"solverUtils"`
	Standards      StandardsConfig `yaml:"standards"`
	GasPrice       string          `yaml:"gasPrice"` // wei; empty means suggested price
	GasLimit       uint64          `yaml:"gasLimit"` // zero means estimate
	ReceiptTimeout int             `yaml:"receiptTimeout"`
	Enabled        bool            `yaml:"enabled"`

	// signing: KMS when KMSEnabled and KMSKeyAlias is set, the private key otherwise
	KMSEnabled  bool   `yaml:"kmsEnabled"`
	KMSKeyAlias string `yaml:"kmsKeyAlias"`
	KMSK1       string `yaml:"kmsK1"`
	PrivateKey  string `yaml:"privateKey"`
}

// StandardsConfig ids the registry assigned to each deployed standard
type StandardsConfig struct {
	Erc20Release    string `yaml:"erc20Release"`
	EthRelease      string `yaml:"ethRelease"`
	EthRequire      string `yaml:"ethRequire"`
	Call            string `yaml:"call"`
	SequentialNonce string `yaml:"sequentialNonce"`
	AssetBased      string `yaml:"assetBased"`
}

// UsesKMS reports whether transactions on this network are signed through KMS
func (n NetworkConfig) UsesKMS() bool {
	return n.KMSEnabled && n.KMSKeyAlias != ""
}

var AppConfig *Config

// LoadConfig loads the configuration file and applies environment overrides
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			logrus.Info("Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"path":     configPath,
		"networks": len(cfg.Blockchain.Networks),
	}).Info("Configuration loaded")

	AppConfig = cfg
	return nil
}

// Parse decodes YAML, applies defaults and environment overrides, and validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.NATS.Timeout == 0 {
		cfg.NATS.Timeout = 10
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "intents"
	}
	for name, network := range cfg.Blockchain.Networks {
		if network.Name == "" {
			network.Name = name
		}
		if network.ReceiptTimeout == 0 {
			network.ReceiptTimeout = 120
		}
		cfg.Blockchain.Networks[name] = network
	}
}

// overrideFromEnv applies environment overrides
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if kmsEnabled := os.Getenv("KMS_ENABLED"); kmsEnabled != "" {
		config.KMS.Enabled = kmsEnabled == "true"
	}
	if kmsServiceURL := os.Getenv("KMS_SERVICE_URL"); kmsServiceURL != "" {
		config.KMS.ServiceURL = kmsServiceURL
	}
	if kmsAuthToken := os.Getenv("KMS_AUTH_TOKEN"); kmsAuthToken != "" {
		config.KMS.AuthToken = kmsAuthToken
	}

	if network := os.Getenv("DEFAULT_NETWORK"); network != "" {
		config.Blockchain.DefaultNetwork = network
	}

	for networkName, networkConfig := range config.Blockchain.Networks {
		prefix := strings.ToUpper(networkName)

		if alias := firstEnv(prefix+"_KMS_KEY_ALIAS", "KMS_KEY_ALIAS"); alias != "" {
			networkConfig.KMSKeyAlias = alias
		}
		if k1 := firstEnv(prefix+"_KMS_K1", "KMS_K1"); k1 != "" {
			networkConfig.KMSK1 = k1
		}
		if !networkConfig.UsesKMS() {
			if privateKey := firstEnv(prefix+"_PRIVATE_KEY", "PRIVATE_KEY"); privateKey != "" {
				networkConfig.PrivateKey = privateKey
			}
		}
		if rpcEndpoints := firstEnv(prefix+"_RPC_ENDPOINTS", "RPC_ENDPOINTS"); rpcEndpoints != "" {
			networkConfig.RPCEndpoints = splitList(rpcEndpoints)
		}
		if entryPoint := firstEnv(prefix+"_ENTRY_POINT", "ENTRY_POINT"); entryPoint != "" {
			networkConfig.EntryPoint = entryPoint
		}
		if gasPrice := os.Getenv(prefix + "_GAS_PRICE"); gasPrice != "" {
			networkConfig.GasPrice = gasPrice
		}
		if gasLimit := os.Getenv(prefix + "_GAS_LIMIT"); gasLimit != "" {
			if limit, err := strconv.ParseUint(gasLimit, 10, 64); err == nil {
				networkConfig.GasLimit = limit
			}
		}

		config.Blockchain.Networks[networkName] = networkConfig
	}
}

// Validate reports the first missing mandatory field
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Blockchain.DefaultNetwork != "" {
		if _, ok := c.Blockchain.Networks[c.Blockchain.DefaultNetwork]; !ok {
			return fmt.Errorf("blockchain.defaultNetwork %q is not configured", c.Blockchain.DefaultNetwork)
		}
	}
	for name, network := range c.Blockchain.Networks {
		if !network.Enabled {
			continue
		}
		if network.ChainID <= 0 {
			return fmt.Errorf("network %s: chainId is required", name)
		}
		if len(network.RPCEndpoints) == 0 {
			return fmt.Errorf("network %s: rpcEndpoints is required", name)
		}
		if network.EntryPoint == "" {
			return fmt.Errorf("network %s: entryPoint is required", name)
		}
		if network.UsesKMS() && !c.KMS.Enabled {
			return fmt.Errorf("network %s: kmsKeyAlias set but kms is disabled", name)
		}
	}
	return nil
}

// GetNetworkConfig returns an enabled network by name; empty name means the default network
func GetNetworkConfig(networkName string) (*NetworkConfig, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	return AppConfig.Network(networkName)
}

// Network returns an enabled network by name; empty name means the default network
func (c *Config) Network(networkName string) (*NetworkConfig, error) {
	if networkName == "" {
		networkName = c.Blockchain.DefaultNetwork
	}
	network, exists := c.Blockchain.Networks[networkName]
	if !exists {
		return nil, fmt.Errorf("network %s not found in config", networkName)
	}
	if !network.Enabled {
		return nil, fmt.Errorf("network %s is disabled", networkName)
	}
	return &network, nil
}

// NetworkByChainID returns the enabled network with the given chain id
func (c *Config) NetworkByChainID(chainID int) (*NetworkConfig, error) {
	for _, network := range c.Blockchain.Networks {
		if network.ChainID == chainID && network.Enabled {
			n := network
			return &n, nil
		}
	}
	return nil, fmt.Errorf("network with chainID %d not found or disabled", chainID)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	defaultNetwork     = "ethereum"
	defaultMode        = "mainnet"
	defaultAlgorithm   = "fastest"
	defaultCacheSize   = 8192
	defaultIPFSGateway = "https://ipfs.io/ipfs/"
	defaultLogLevel    = "warn"

	configFile = "config.json"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// Load reads config from dir (or creates defaults). dir defaults to ~/.w3probe.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3probe")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if cfg.SecretRPCs == nil {
		cfg.SecretRPCs = make(map[string][]string)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.IPFSGateway == "" {
		cfg.IPFSGateway = defaultIPFSGateway
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// AddSecretRPC records a keychain reference for a chain's private RPC.
func (c *Config) AddSecretRPC(chain, ref string) error {
	if c.SecretRPCs == nil {
		c.SecretRPCs = make(map[string][]string)
	}
	if slices.Contains(c.SecretRPCs[chain], ref) {
		return fmt.Errorf("secret RPC %s already exists for chain %s", ref, chain)
	}
	c.SecretRPCs[chain] = append(c.SecretRPCs[chain], ref)
	return nil
}

// RemoveSecretRPC forgets a keychain reference. It does not touch the keychain.
func (c *Config) RemoveSecretRPC(chain, ref string) error {
	refs := c.SecretRPCs[chain]
	idx := slices.Index(refs, ref)
	if idx == -1 {
		return fmt.Errorf("secret RPC %s not found for chain %s", ref, chain)
	}
	c.SecretRPCs[chain] = slices.Delete(refs, idx, idx+1)
	return nil
}

// GetSecretRPCs returns keychain references for a chain.
func (c *Config) GetSecretRPCs(chain string) []string {
	return c.SecretRPCs[chain]
}

// SetCacheSize sets the selector cache capacity.
func (c *Config) SetCacheSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", n)
	}
	c.CacheSize = n
	return nil
}

// SetLogLevel validates and stores the log level.
func (c *Config) SetLogLevel(level string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if !slices.Contains(validLogLevels, level) {
		return fmt.Errorf("invalid log level %q (want one of %s)", level, strings.Join(validLogLevels, ", "))
	}
	c.LogLevel = level
	return nil
}

// SetIPFSGateway stores the gateway used to rewrite ipfs:// URIs.
func (c *Config) SetIPFSGateway(gateway string) error {
	if !strings.HasPrefix(gateway, "http://") && !strings.HasPrefix(gateway, "https://") {
		return fmt.Errorf("gateway must be an http(s) URL, got %q", gateway)
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	c.IPFSGateway = gateway
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		NetworkMode:    defaultMode,
		RPCAlgorithm:   defaultAlgorithm,
		CacheSize:      defaultCacheSize,
		IPFSGateway:    defaultIPFSGateway,
		LogLevel:       defaultLogLevel,
		CustomRPCs:     make(map[string][]string),
		SecretRPCs:     make(map[string][]string),
		configDir:      dir,
	}
}

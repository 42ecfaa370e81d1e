package config

// Config holds all w3probe configuration.
type Config struct {
	DefaultNetwork string              `json:"default_network"`
	NetworkMode    string              `json:"network_mode"`  // "mainnet" | "testnet"
	RPCAlgorithm   string              `json:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	CacheSize      int                 `json:"cache_size"`    // selector cache capacity (entries)
	IPFSGateway    string              `json:"ipfs_gateway"`
	LogLevel       string              `json:"log_level"` // "debug" | "info" | "warn" | "error"
	CustomRPCs     map[string][]string `json:"custom_rpcs"`
	// SecretRPCs holds keychain references for RPC URLs that embed API keys.
	SecretRPCs map[string][]string `json:"secret_rpcs,omitempty"`

	// internal: config dir path used for Save()
	configDir string
}

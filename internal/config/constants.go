package config

import "time"

// Timeouts used by the cmd layer.
const (
	RPCSelectTimeout = 10 * time.Second // BestEVM benchmark / RPC selection
	ProbeTimeout     = 20 * time.Second // one selector/extension probe, proxy hops included
	ScanChainTimeout = 12 * time.Second // per-chain budget in the multi-chain scan
	MetadataTimeout  = 15 * time.Second // NFT metadata fetch
)

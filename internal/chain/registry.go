package chain

import (
	"errors"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Chain holds the metadata w3probe needs to reach one EVM network.
type Chain struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	ChainID         int64    `json:"chain_id"`
	TestnetChainID  int64    `json:"testnet_chain_id"`
	TestnetName     string   `json:"testnet_name"`
	MainnetRPCs     []string `json:"mainnet_rpcs"`
	TestnetRPCs     []string `json:"testnet_rpcs"`
	MainnetExplorer string   `json:"mainnet_explorer"`
	TestnetExplorer string   `json:"testnet_explorer"`
}

// Registry is the chain registry.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry returns the registry of every supported EVM chain. Both the
// mainnet and the testnet chain ID resolve to the same entry.
func NewRegistry() *Registry {
	chains := allChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, 2*len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
		if c.TestnetChainID != 0 {
			r.byID[c.TestnetChainID] = c
		}
	}
	return r
}

// All returns every chain in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// GetByName finds a chain by its slug name (e.g. "base", "ethereum").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a chain by either its mainnet or testnet chain ID.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// ID returns the numeric chain ID for the given mode ("mainnet"/"testnet").
func (c *Chain) ID(mode string) int64 {
	if mode == "testnet" {
		return c.TestnetChainID
	}
	return c.ChainID
}

// RPCs returns the RPC list for a chain in the given mode.
func (c *Chain) RPCs(mode string) []string {
	if mode == "testnet" {
		return c.TestnetRPCs
	}
	return c.MainnetRPCs
}

// Explorer returns the explorer URL for a chain in the given mode.
func (c *Chain) Explorer(mode string) string {
	if mode == "testnet" {
		return c.TestnetExplorer
	}
	return c.MainnetExplorer
}

// Label is the human-readable network name for a mode, e.g. "Base Sepolia".
func (c *Chain) Label(mode string) string {
	if mode == "testnet" && c.TestnetName != "" {
		return c.TestnetName
	}
	return c.DisplayName
}

// --- chain data ---

func allChains() []Chain {
	return []Chain{
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1, TestnetChainID: 11155111, TestnetName: "Sepolia",
			MainnetRPCs:     []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co"},
			MainnetExplorer: "https://etherscan.io",
			TestnetExplorer: "https://sepolia.etherscan.io",
		},
		{
			Name: "base", DisplayName: "Base", ChainID: 8453, TestnetChainID: 84532, TestnetName: "Base Sepolia",
			MainnetRPCs:     []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			TestnetRPCs:     []string{"https://sepolia.base.org"},
			MainnetExplorer: "https://basescan.org",
			TestnetExplorer: "https://sepolia.basescan.org",
		},
		{
			Name: "polygon", DisplayName: "Polygon", ChainID: 137, TestnetChainID: 80002, TestnetName: "Amoy",
			MainnetRPCs:     []string{"https://polygon-bor-rpc.publicnode.com", "https://polygon-pokt.nodies.app"},
			TestnetRPCs:     []string{"https://rpc-amoy.polygon.technology"},
			MainnetExplorer: "https://polygonscan.com",
			TestnetExplorer: "https://amoy.polygonscan.com",
		},
		{
			Name: "arbitrum", DisplayName: "Arbitrum", ChainID: 42161, TestnetChainID: 421614, TestnetName: "Arb Sepolia",
			MainnetRPCs:     []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"},
			TestnetRPCs:     []string{"https://sepolia-rollup.arbitrum.io/rpc"},
			MainnetExplorer: "https://arbiscan.io",
			TestnetExplorer: "https://sepolia.arbiscan.io",
		},
		{
			Name: "optimism", DisplayName: "Optimism", ChainID: 10, TestnetChainID: 11155420, TestnetName: "OP Sepolia",
			MainnetRPCs:     []string{"https://mainnet.optimism.io", "https://optimism.llamarpc.com"},
			TestnetRPCs:     []string{"https://sepolia.optimism.io"},
			MainnetExplorer: "https://optimistic.etherscan.io",
			TestnetExplorer: "https://sepolia-optimism.etherscan.io",
		},
		{
			Name: "bnb", DisplayName: "BNB Chain", ChainID: 56, TestnetChainID: 97, TestnetName: "BSC Testnet",
			MainnetRPCs:     []string{"https://bsc-dataseed.binance.org", "https://bsc-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://data-seed-prebsc-1-s1.binance.org:8545"},
			MainnetExplorer: "https://bscscan.com",
			TestnetExplorer: "https://testnet.bscscan.com",
		},
		{
			Name: "avalanche", DisplayName: "Avalanche", ChainID: 43114, TestnetChainID: 43113, TestnetName: "Fuji",
			MainnetRPCs:     []string{"https://api.avax.network/ext/bc/C/rpc", "https://avalanche-c-chain-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://api.avax-test.network/ext/bc/C/rpc"},
			MainnetExplorer: "https://snowtrace.io",
			TestnetExplorer: "https://testnet.snowtrace.io",
		},
		{
			Name: "fantom", DisplayName: "Fantom", ChainID: 250, TestnetChainID: 4002, TestnetName: "FTM Testnet",
			MainnetRPCs:     []string{"https://rpcapi.fantom.network", "https://fantom-pokt.nodies.app"},
			TestnetRPCs:     []string{"https://rpc.testnet.fantom.network"},
			MainnetExplorer: "https://ftmscan.com",
			TestnetExplorer: "https://testnet.ftmscan.com",
		},
		{
			Name: "linea", DisplayName: "Linea", ChainID: 59144, TestnetChainID: 59141, TestnetName: "Linea Sepolia",
			MainnetRPCs:     []string{"https://rpc.linea.build", "https://linea-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://rpc.sepolia.linea.build"},
			MainnetExplorer: "https://lineascan.build",
			TestnetExplorer: "https://sepolia.lineascan.build",
		},
		{
			Name: "zksync", DisplayName: "zkSync Era", ChainID: 324, TestnetChainID: 300, TestnetName: "zkSync Sepolia",
			MainnetRPCs:     []string{"https://mainnet.era.zksync.io", "https://zksync-era-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://sepolia.era.zksync.dev"},
			MainnetExplorer: "https://explorer.zksync.io",
			TestnetExplorer: "https://sepolia.explorer.zksync.io",
		},
		{
			Name: "scroll", DisplayName: "Scroll", ChainID: 534352, TestnetChainID: 534351, TestnetName: "Scroll Sepolia",
			MainnetRPCs:     []string{"https://rpc.scroll.io", "https://scroll-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://sepolia-rpc.scroll.io"},
			MainnetExplorer: "https://scrollscan.com",
			TestnetExplorer: "https://sepolia.scrollscan.com",
		},
		{
			Name: "mantle", DisplayName: "Mantle", ChainID: 5000, TestnetChainID: 5003, TestnetName: "Mantle Sepolia",
			MainnetRPCs:     []string{"https://rpc.mantle.xyz", "https://mantle-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://rpc.sepolia.mantle.xyz"},
			MainnetExplorer: "https://mantlescan.xyz",
			TestnetExplorer: "https://sepolia.mantlescan.xyz",
		},
		{
			Name: "celo", DisplayName: "Celo", ChainID: 42220, TestnetChainID: 44787, TestnetName: "Alfajores",
			MainnetRPCs:     []string{"https://forno.celo.org", "https://celo-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://alfajores-forno.celo-testnet.org"},
			MainnetExplorer: "https://celoscan.io",
			TestnetExplorer: "https://alfajores.celoscan.io",
		},
		{
			Name: "gnosis", DisplayName: "Gnosis", ChainID: 100, TestnetChainID: 10200, TestnetName: "Chiado",
			MainnetRPCs:     []string{"https://rpc.gnosischain.com", "https://gnosis-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://rpc.chiadochain.net"},
			MainnetExplorer: "https://gnosisscan.io",
			TestnetExplorer: "https://gnosis-chiado.blockscout.com",
		},
		{
			Name: "blast", DisplayName: "Blast", ChainID: 81457, TestnetChainID: 168587773, TestnetName: "Blast Sepolia",
			MainnetRPCs:     []string{"https://rpc.blast.io", "https://blast-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://sepolia.blast.io"},
			MainnetExplorer: "https://blastscan.io",
			TestnetExplorer: "https://testnet.blastscan.io",
		},
		{
			Name: "mode", DisplayName: "Mode", ChainID: 34443, TestnetChainID: 919, TestnetName: "Mode Sepolia",
			MainnetRPCs:     []string{"https://mainnet.mode.network", "https://mode-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://sepolia.mode.network"},
			MainnetExplorer: "https://explorer.mode.network",
			TestnetExplorer: "https://sepolia.explorer.mode.network",
		},
		{
			Name: "zora", DisplayName: "Zora", ChainID: 7777777, TestnetChainID: 999999999, TestnetName: "Zora Sepolia",
			MainnetRPCs:     []string{"https://rpc.zora.energy"},
			TestnetRPCs:     []string{"https://sepolia.rpc.zora.energy"},
			MainnetExplorer: "https://explorer.zora.energy",
			TestnetExplorer: "https://sepolia.explorer.zora.energy",
		},
		{
			Name: "moonbeam", DisplayName: "Moonbeam", ChainID: 1284, TestnetChainID: 1287, TestnetName: "Moonbase Alpha",
			MainnetRPCs:     []string{"https://rpc.api.moonbeam.network", "https://moonbeam-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://rpc.api.moonbase.moonbeam.network"},
			MainnetExplorer: "https://moonscan.io",
			TestnetExplorer: "https://moonbase.moonscan.io",
		},
		{
			Name: "cronos", DisplayName: "Cronos", ChainID: 25, TestnetChainID: 338, TestnetName: "Cronos Testnet",
			MainnetRPCs:     []string{"https://evm.cronos.org", "https://cronos-evm-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://evm-t3.cronos.org"},
			MainnetExplorer: "https://cronoscan.com",
			TestnetExplorer: "https://testnet.cronoscan.com",
		},
		{
			Name: "klaytn", DisplayName: "Klaytn (Kaia)", ChainID: 8217, TestnetChainID: 1001, TestnetName: "Kairos",
			MainnetRPCs:     []string{"https://public-en.node.kaia.io", "https://kaia.blockpi.network/v1/rpc/public"},
			TestnetRPCs:     []string{"https://public-en-kairos.node.kaia.io"},
			MainnetExplorer: "https://kaiascan.io",
			TestnetExplorer: "https://kairos.kaiascan.io",
		},
		{
			Name: "aurora", DisplayName: "Aurora", ChainID: 1313161554, TestnetChainID: 1313161555, TestnetName: "Aurora Testnet",
			MainnetRPCs:     []string{"https://mainnet.aurora.dev"},
			TestnetRPCs:     []string{"https://testnet.aurora.dev"},
			MainnetExplorer: "https://aurorascan.dev",
			TestnetExplorer: "https://testnet.aurorascan.dev",
		},
		{
			Name: "polygon-zkevm", DisplayName: "Polygon zkEVM", ChainID: 1101, TestnetChainID: 2442, TestnetName: "Cardona",
			MainnetRPCs:     []string{"https://zkevm-rpc.com", "https://polygon-zkevm-rpc.publicnode.com"},
			TestnetRPCs:     []string{"https://rpc.cardona.zkevm-rpc.com"},
			MainnetExplorer: "https://zkevm.polygonscan.com",
			TestnetExplorer: "https://cardona-zkevm.polygonscan.com",
		},
		{
			Name: "hyperliquid", DisplayName: "Hyperliquid EVM", ChainID: 999, TestnetChainID: 998, TestnetName: "HyperEVM Testnet",
			MainnetRPCs:     []string{"https://api.hyperliquid.xyz/evm"},
			TestnetRPCs:     []string{"https://api.hyperliquid-testnet.xyz/evm"},
			MainnetExplorer: "https://app.hyperliquid.xyz/explorer",
			TestnetExplorer: "https://app.hyperliquid-testnet.xyz/explorer",
		},
		{
			Name: "boba", DisplayName: "Boba Network", ChainID: 288, TestnetChainID: 28882, TestnetName: "Boba Sepolia",
			MainnetRPCs:     []string{"https://mainnet.boba.network", "https://boba-ethereum.gateway.tenderly.co"},
			TestnetRPCs:     []string{"https://sepolia.boba.network"},
			MainnetExplorer: "https://bobascan.com",
			TestnetExplorer: "https://testnet.bobascan.com",
		},
	}
}

package networkdefinition

import (
	"fmt"
	"sort"
	"strings"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"
	"walletview/internal/infrastructure/configloader"
)

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger         port.Logger
	allNetworkDefs map[string]entity.NetworkDefinition
}

var _ port.NetworkDefinitionProvider = (*NetworkDefinitionProvider)(nil)

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.NetworkDefinition{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		NativeSymbol:     "ETH",
		Decimals:         18,
		PrimaryRPCURL:    "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL: "https://etherscan.io",
	}
	Sepolia = entity.NetworkDefinition{
		ChainID:          11155111,
		Name:             "Sepolia Testnet",
		Identifier:       "sepolia",
		NativeSymbol:     "ETH",
		Decimals:         18,
		PrimaryRPCURL:    "https://ethereum-sepolia-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.sepolia.org", "https://1rpc.io/sepolia"},
		BlockExplorerURL: "https://sepolia.etherscan.io",
	}
	Holesky = entity.NetworkDefinition{
		ChainID:          17000,
		Name:             "Holesky Testnet",
		Identifier:       "holesky",
		NativeSymbol:     "ETH",
		Decimals:         18,
		PrimaryRPCURL:    "https://ethereum-holesky-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://1rpc.io/holesky"},
		BlockExplorerURL: "https://holesky.etherscan.io",
	}
	// LocalDev matches the defaults of hardhat and anvil.
	LocalDev = entity.NetworkDefinition{
		ChainID:       31337,
		Name:          "Local Development",
		Identifier:    "localdev",
		NativeSymbol:  "ETH",
		Decimals:      18,
		PrimaryRPCURL: "http://127.0.0.1:8545",
	}
)

// NewNetworkDefinitionProvider creates a provider over the predefined networks.
func NewNetworkDefinitionProvider(logger port.Logger) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger:         logger,
		allNetworkDefs: make(map[string]entity.NetworkDefinition),
	}
	for _, def := range []entity.NetworkDefinition{Ethereum, Sepolia, Holesky, LocalDev} {
		p.allNetworkDefs[def.Identifier] = def
	}
	return p
}

// GetAllNetworkDefinitions returns every known network, sorted by chain id.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defs := make([]entity.NetworkDefinition, 0, len(p.allNetworkDefs))
	for _, def := range p.allNetworkDefs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ChainID < defs[j].ChainID })
	return defs
}

// GetNetworkDefinitionByName returns a specific network definition by its identifier.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	def, ok := p.allNetworkDefs[strings.ToLower(identifier)]
	return def, ok
}

// GetNetworkDefinitionByChainID returns a specific network definition by its chain ID.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.allNetworkDefs {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// Resolve returns the definition selected by cfg with its overrides applied.
// An unknown identifier is accepted when cfg supplies both a chain id and an RPC URL.
func (p *NetworkDefinitionProvider) Resolve(cfg configloader.NetworkConfig) (entity.NetworkDefinition, error) {
	def, ok := p.GetNetworkDefinitionByName(cfg.Identifier)
	if !ok {
		if cfg.ChainID == 0 || cfg.RPCURL == "" {
			return entity.NetworkDefinition{}, fmt.Errorf("unknown network %q: set network.chainID and network.rpcURL to use a custom network", cfg.Identifier)
		}
		p.logger.Warn(fmt.Sprintf("Network '%s' is not predefined, using custom definition", cfg.Identifier))
		def = entity.NetworkDefinition{
			Name:         cfg.Identifier,
			Identifier:   strings.ToLower(cfg.Identifier),
			NativeSymbol: "ETH",
			Decimals:     18,
		}
	}

	if cfg.ChainID != 0 {
		if ok && cfg.ChainID != def.ChainID {
			p.logger.Warn("Configured chain id differs from the predefined network", "network", def.Identifier, "configured", cfg.ChainID, "predefined", def.ChainID)
		}
		def.ChainID = cfg.ChainID
	}
	if cfg.RPCURL != "" {
		def.PrimaryRPCURL = cfg.RPCURL
		def.FallbackRPCURLs = nil
	}
	if len(cfg.FallbackRPCURLs) > 0 {
		def.FallbackRPCURLs = append([]string(nil), cfg.FallbackRPCURLs...)
	}

	p.logger.Debug(fmt.Sprintf("Network resolved: %s (ID: %s, ChainID: %d)", def.Name, def.Identifier, def.ChainID), "rpc_primary", def.PrimaryRPCURL)
	return def, nil
}

package networkdefinition

import (
	"testing"

	"walletview/internal/infrastructure/configloader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func TestNetworkDefinitionProvider_Lookup(t *testing.T) {
	p := NewNetworkDefinitionProvider(nopLogger{})

	all := p.GetAllNetworkDefinitions()
	require.Len(t, all, 4)
	assert.Equal(t, uint64(1), all[0].ChainID)

	def, ok := p.GetNetworkDefinitionByName("SEPOLIA")
	require.True(t, ok)
	assert.Equal(t, uint64(11155111), def.ChainID)

	def, ok = p.GetNetworkDefinitionByChainID(31337)
	require.True(t, ok)
	assert.Equal(t, "localdev", def.Identifier)

	_, ok = p.GetNetworkDefinitionByName("unknown")
	assert.False(t, ok)
}

func TestNetworkDefinitionProvider_Resolve(t *testing.T) {
	p := NewNetworkDefinitionProvider(nopLogger{})

	tests := []struct {
		name      string
		cfg       configloader.NetworkConfig
		wantChain uint64
		wantRPC   string
		wantFalls int
		wantErr   bool
	}{
		{"predefined", configloader.NetworkConfig{Identifier: "sepolia"}, 11155111, Sepolia.PrimaryRPCURL, 2, false},
		{"rpc override drops fallbacks", configloader.NetworkConfig{Identifier: "sepolia", RPCURL: "http://node:8545"}, 11155111, "http://node:8545", 0, false},
		{"fallback override", configloader.NetworkConfig{Identifier: "localdev", FallbackRPCURLs: []string{"http://b:8545"}}, 31337, LocalDev.PrimaryRPCURL, 1, false},
		{"custom network", configloader.NetworkConfig{Identifier: "devnet", ChainID: 1337, RPCURL: "http://devnet:8545"}, 1337, "http://devnet:8545", 0, false},
		{"unknown without endpoint", configloader.NetworkConfig{Identifier: "devnet"}, 0, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := p.Resolve(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChain, def.ChainID)
			assert.Equal(t, tt.wantRPC, def.PrimaryRPCURL)
			assert.Len(t, def.FallbackRPCURLs, tt.wantFalls)
		})
	}

	assert.Len(t, Sepolia.FallbackRPCURLs, 2, "resolve must not mutate predefined definitions")
}

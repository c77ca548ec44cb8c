package client

import (
	"fmt"
	"sync"
	"time"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"
	"walletview/internal/infrastructure/configloader"
)

// evmClientProvider implements the port.BlockchainClientProvider interface.
type evmClientProvider struct {
	clients           map[string]*EVMClient
	mu                sync.Mutex
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
}

// ClientProvider is a port.BlockchainClientProvider that can release its clients.
type ClientProvider interface {
	port.BlockchainClientProvider
	Close()
}

// NewEVMClientProvider creates a new EVMClientProvider.
func NewEVMClientProvider(cfg *configloader.Config, logger port.Logger) ClientProvider {
	return &evmClientProvider{
		clients:           make(map[string]*EVMClient),
		logger:            logger,
		connectionTimeout: time.Duration(cfg.RpcClient.ConnectionTimeoutSeconds) * time.Second,
		rpcCallTimeout:    time.Duration(cfg.RpcClient.CallTimeoutSeconds) * time.Second,
	}
}

// GetClient retrieves a blockchain client for the given network definition.
// It caches clients to avoid reconnecting repeatedly.
func (p *evmClientProvider) GetClient(netDef entity.NetworkDefinition) (port.BlockchainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	clientKey := fmt.Sprintf("%d/%s", netDef.ChainID, netDef.PrimaryRPCURL)
	if client, exists := p.clients[clientKey]; exists {
		p.logger.Debug("Returning cached EVM client", "network", netDef.Name)
		return client, nil
	}

	p.logger.Info("Creating new EVM client", "network", netDef.Name, "rpc_primary", netDef.PrimaryRPCURL)
	newClient, err := NewEVMClient(netDef, p.connectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.logger.Error("Failed to create EVM client", "network", netDef.Name, "error", err)
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Name, err)
	}

	p.clients[clientKey] = newClient
	p.logger.Info("Successfully created and cached new EVM client", "network", netDef.Name)
	return newClient, nil
}

// Close closes every cached client.
func (p *evmClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, c := range p.clients {
		c.Close()
		delete(p.clients, key)
	}
}

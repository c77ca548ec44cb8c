package main

import (
	"errors"
	"fmt"

	"walletview/internal/app/port"
	"walletview/internal/app/service"
	"walletview/internal/domain/entity"
	"walletview/internal/infrastructure/accountprovider"
	"walletview/internal/infrastructure/configloader"
	"walletview/internal/infrastructure/contract"
	"walletview/internal/infrastructure/network/client"
	networkdefinition "walletview/internal/infrastructure/network/definition"
	"walletview/internal/infrastructure/snapshotcache"
	"walletview/internal/pkg/logger"
	"walletview/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.uber.org/zap"
)

// runtime holds the wired view and everything that must be released with it.
type runtime struct {
	cfg     *configloader.Config
	view    *service.WalletClientView
	zap     *zap.Logger
	closers []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	_ = rt.zap.Sync()
}

// setup loads the configuration and wires the wallet view. An unreachable node
// or a missing keystore does not fail setup: the view reports the provider as
// absent on connect.
func setup(configPath string, m port.Metrics) (*runtime, error) {
	cfg, err := configloader.Load(configPath, contractAddress)
	if err != nil {
		return nil, err
	}

	zapLogger, err := logger.Init(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, zap: zapLogger}
	logger.Info("Configuration loaded", "path", configPath, "network", cfg.Network.Identifier)

	netDef, err := networkdefinition.NewNetworkDefinitionProvider(logger.Named("network")).Resolve(cfg.Network)
	if err != nil {
		rt.Close()
		return nil, err
	}

	parsedABI, err := loadABI(cfg.Contract.ABIFile)
	if err != nil {
		rt.Close()
		return nil, err
	}

	clients := client.NewEVMClientProvider(cfg, logger.Named("rpc"))
	rt.closers = append(rt.closers, clients.Close)

	var (
		provider port.AccountProvider
		binder   port.ContractBinder
	)
	evm, err := clients.GetClient(netDef)
	if err != nil {
		logger.Error("RPC node unreachable, account provider disabled", "network", netDef.Name, "error", err)
	} else {
		binder, err = contract.NewBinder(evm.Backend(), parsedABI, contract.Options{GasLimit: cfg.Contract.GasLimit}, logger.Named("contract"))
		if err != nil {
			rt.Close()
			return nil, err
		}
		ks, err := accountprovider.Open(cfg.Keystore, evm, logger.Named("keystore"))
		switch {
		case err == nil:
			provider = ks
			rt.closers = append(rt.closers, ks.Close)
		case errors.Is(err, entity.ErrProviderAbsent):
			logger.Error("Keystore unavailable, account provider disabled", "dir", cfg.Keystore.Dir, "error", err)
		default:
			rt.Close()
			return nil, err
		}
	}

	rt.view = service.NewWalletClientView(
		provider,
		binder,
		snapshotcache.NewDisplayStore(netDef.ChainID, cfg.SnapshotTTL()),
		m,
		logger.Named("view"),
		service.ViewConfig{
			ContractAddress:     cfg.ContractAddress(),
			Network:             netDef,
			RefreshInterval:     cfg.RefreshInterval(),
			ConfirmationTimeout: cfg.ConfirmationTimeout(),
			ReadRateLimit:       cfg.RpcClient.RateLimit,
			ReadBurst:           cfg.RpcClient.BurstLimit,
		},
	)
	return rt, nil
}

func loadABI(path string) (abi.ABI, error) {
	if path == "" {
		return contract.WalletABI()
	}
	parsed, err := utils.LoadABIFromJSON(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("contract ABI: %w", err)
	}
	return parsed, nil
}

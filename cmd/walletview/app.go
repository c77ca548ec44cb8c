package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"walletview/internal/app/service"
	"walletview/internal/domain/entity"
	"walletview/internal/infrastructure/restapi"
	"walletview/internal/pkg/logger"
	"walletview/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
)

const defaultConfigPath = "config/config.yml"

func newApp() *cli.App {
	ctl := cli.NewApp()
	ctl.Name = "walletview"
	ctl.Usage = "view and operate a wallet contract from a local keystore"
	ctl.ErrWriter = os.Stderr
	ctl.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to the YAML configuration",
			Value:  defaultConfigPath,
			EnvVar: "CONFIG_PATH",
		},
	}
	ctl.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "serve the wallet view over HTTP",
			Action: serve,
		},
		{
			Name:   "balances",
			Usage:  "connect and print the account and contract balances",
			Action: showBalances,
		},
		{
			Name:      "deposit",
			Usage:     "deposit native currency into the contract",
			ArgsUsage: "AMOUNT",
			Action:    deposit,
		},
		{
			Name:      "withdraw",
			Usage:     "withdraw from the contract",
			ArgsUsage: "AMOUNT",
			Action:    withdraw,
		},
		{
			Name:      "transfer",
			Usage:     "transfer from the contract to another address",
			ArgsUsage: "RECIPIENT AMOUNT",
			Action:    transfer,
		},
	}
	return ctl
}

func serve(c *cli.Context) error {
	rt, err := setup(c.GlobalString("config"), metrics.MustRegisterMetrics())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt.view.Mount(ctx)
	defer rt.view.Unmount()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := rt.view.Connect(connectCtx); err != nil {
		logger.Warn("Initial connect failed, waiting for POST /api/v1/connect", "error", err)
	}
	cancel()

	if !strings.EqualFold(rt.cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := restapi.SetupRouter(rt.view, restapi.RouterConfig{
		AllowOrigins:   rt.cfg.Server.AllowOrigins,
		MetricsHandler: promhttp.Handler(),
	}, logger.Named("http"))

	srv := &http.Server{
		Addr:         ":" + rt.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(rt.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(rt.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(rt.cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server starting on port %s", rt.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exiting")
	return nil
}

func showBalances(c *cli.Context) error {
	return oneShot(c, 0, func(context.Context, *service.WalletClientView) error { return nil })
}

func deposit(c *cli.Context) error {
	return oneShot(c, 1, func(ctx context.Context, v *service.WalletClientView) error {
		return v.SubmitDeposit(ctx, c.Args().Get(0))
	})
}

func withdraw(c *cli.Context) error {
	return oneShot(c, 1, func(ctx context.Context, v *service.WalletClientView) error {
		return v.SubmitWithdraw(ctx, c.Args().Get(0))
	})
}

func transfer(c *cli.Context) error {
	return oneShot(c, 2, func(ctx context.Context, v *service.WalletClientView) error {
		return v.SubmitTransfer(ctx, c.Args().Get(0), c.Args().Get(1))
	})
}

// oneShot connects, runs action and prints the resulting balances.
func oneShot(c *cli.Context, nargs int, action func(context.Context, *service.WalletClientView) error) error {
	if c.NArg() != nargs {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	rt, err := setup(c.GlobalString("config"), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, rt.cfg.ConfirmationTimeout()+time.Minute)
	defer cancel()

	if err := rt.view.Connect(ctx); err != nil {
		return err
	}
	if err := action(ctx, rt.view); err != nil {
		return err
	}
	printState(c, rt.view.State())
	return nil
}

func printState(c *cli.Context, s entity.ViewState) {
	w := c.App.Writer
	fmt.Fprintf(w, "Network:          %s\n", s.Network)
	fmt.Fprintf(w, "Account:          %s\n", s.Connection.Address)
	fmt.Fprintf(w, "Account balance:  %s %s\n", s.Balances.UserBalance, s.NativeSymbol)
	fmt.Fprintf(w, "Contract:         %s\n", s.ContractAddress)
	fmt.Fprintf(w, "Contract balance: %s %s\n", s.Balances.ContractBalance, s.NativeSymbol)
	if s.Balances.Stale {
		fmt.Fprintln(w, "(some balances could not be refreshed and may be outdated)")
	}
}

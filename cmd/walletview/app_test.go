package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_Commands(t *testing.T) {
	app := newApp()

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"serve", "balances", "deposit", "withdraw", "transfer"}, names)
	assert.Equal(t, "RECIPIENT AMOUNT", app.Command("transfer").ArgsUsage)
}

func TestOneShot_ArgumentCount(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"walletview", "deposit"}, "usage: walletview deposit AMOUNT"},
		{[]string{"walletview", "withdraw", "1", "2"}, "usage: walletview withdraw AMOUNT"},
		{[]string{"walletview", "transfer", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"}, "usage: walletview transfer RECIPIENT AMOUNT"},
		{[]string{"walletview", "balances", "extra"}, "usage: walletview balances"},
	}
	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			app := newApp()
			app.Writer = &bytes.Buffer{}
			err := app.Run(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetup_ConfigErrors(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"walletview", "--config", filepath.Join(t.TempDir(), "missing.yml"), "balances"})
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  identifier: devnet\ncontract:\n  address: \"0x5FbDB2315678afecb367f032d93F642f64180aa3\"\n"), 0o600))
	t.Setenv("WALLET_CONTRACT_ADDRESS", "")
	t.Setenv("WALLET_RPC_URL", "")

	_, err = setup(path, nil)
	assert.ErrorContains(t, err, "unknown network")
}

func TestLoadABI(t *testing.T) {
	parsed, err := loadABI("")
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "getBalance")

	_, err = loadABI(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "contract ABI")
}

package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"node-wallet/internal/service/session"
	"node-wallet/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	var cfg config.Config
	cfg.Ledger = config.LedgerConfig{
		Network:        "testnet",
		RpcUrl:         "http://127.0.0.1:7546", // http 连接是惰性的
		MirrorUrl:      "http://127.0.0.1:5551",
		DeploymentFile: filepath.Join(dir, "deployment-info.json"),
		AbiDir:         filepath.Join(dir, "abi"),
	}
	cfg.WalletConnect = config.WalletConnectConfig{RelayUrl: memoryRelayURL}
	return cfg
}

func TestBuild_MemoryRelay(t *testing.T) {
	core, err := Build(context.Background(), testConfig(t), session.NewPairingBoard())
	require.NoError(t, err)
	defer core.Close()

	assert.Nil(t, core.Redis)
	assert.Nil(t, core.Producer)
	assert.NotNil(t, core.Sessions)
	assert.NotNil(t, core.Executor)
	assert.Empty(t, core.Book.All())
	assert.Nil(t, core.Sessions.Current(context.Background()))
}

func TestBuild_RelayNeedsProjectID(t *testing.T) {
	cfg := testConfig(t)
	cfg.WalletConnect.RelayUrl = "wss://relay.walletconnect.com"

	_, err := Build(context.Background(), cfg, session.NewPairingBoard())
	assert.ErrorContains(t, err, "project_id")
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyNetworkDefaults(t *testing.T) {
	tests := []struct {
		name       string
		in         LedgerConfig
		wantNet    string
		wantRpc    string
		wantMirror string
	}{
		{"testnet defaults", LedgerConfig{Network: "testnet"}, "testnet", "https://testnet.hashio.io/api", "https://testnet.mirrornode.hedera.com"},
		{"mainnet upper case", LedgerConfig{Network: " MAINNET "}, "mainnet", "https://mainnet.hashio.io/api", "https://mainnet-public.mirrornode.hedera.com"},
		{"unknown falls back", LedgerConfig{Network: "previewnet"}, "testnet", "https://testnet.hashio.io/api", "https://testnet.mirrornode.hedera.com"},
		{"explicit override kept", LedgerConfig{Network: "testnet", RpcUrl: "http://localhost:7546"}, "testnet", "http://localhost:7546", "https://testnet.mirrornode.hedera.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.in
			applyNetworkDefaults(&l)
			assert.Equal(t, tt.wantNet, l.Network)
			assert.Equal(t, tt.wantRpc, l.RpcUrl)
			assert.Equal(t, tt.wantMirror, l.MirrorUrl)
		})
	}
}

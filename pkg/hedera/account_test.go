package hedera

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountFromNamespaced(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"testnet account", "hedera:testnet:0.0.12345", "0.0.12345", false},
		{"mainnet account", "hedera:mainnet:0.0.1", "0.0.1", false},
		{"bare id", "0.0.98", "0.0.98", false},
		{"evm alias", "hedera:testnet:0x00000000000000000000000000000000000004d2", "", true},
		{"non zero shard", "hedera:testnet:1.0.5", "", true},
		{"missing num", "hedera:testnet:0.0.", "", true},
		{"trailing colon", "hedera:testnet:", "", true},
		{"garbage", "hedera:testnet:abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccountFromNamespaced(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAccountID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			// 提取出的 ID 必须满足固定格式
			assert.NoError(t, ValidateAccountID(got))
		})
	}
}

func TestFirstAccount_Empty(t *testing.T) {
	_, err := FirstAccount(nil)
	assert.ErrorIs(t, err, ErrNoAccounts)
}

func TestEVMAddressRoundTrip(t *testing.T) {
	addr, err := ToEVMAddress("0.0.1234")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000004d2"), addr)

	id, ok := FromEVMAddress(addr)
	require.True(t, ok)
	assert.Equal(t, "0.0.1234", id)

	resolved, err := ResolveAddress("0x00000000000000000000000000000000000004d2")
	require.NoError(t, err)
	assert.Equal(t, addr, resolved)

	_, err = ResolveAddress("0xnothex")
	assert.Error(t, err)
}

func TestContractIDFromAddress_Alias(t *testing.T) {
	alias, err := ResolveAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, alias.Hex(), ContractIDFromAddress(alias))
}

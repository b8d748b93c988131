package bip32

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BIP-32 test vector 1
const seedHex = "000102030405060708090a0b0c0d0e0f"

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	seed, err := hex.DecodeString(seedHex)
	require.NoError(t, err)
	w, err := NewMasterKeyFromSeed(seed)
	require.NoError(t, err)
	return w
}

func TestMasterKey_Vector1(t *testing.T) {
	w := newTestWallet(t)
	assert.Equal(t,
		"xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
		w.MasterKey().String())

	child, err := w.DerivePath("m/0'")
	require.NoError(t, err)
	assert.Equal(t,
		"xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
		child.String())
}

func TestDerivePath_EVM(t *testing.T) {
	w := newTestWallet(t)
	k, err := w.DerivePath(EVMPath)
	require.NoError(t, err)

	priv, err := k.ECDSA()
	require.NoError(t, err)
	// 同一路径两次派生结果一致
	k2, err := w.DerivePath("m/44h/60h/0h/0/0")
	require.NoError(t, err)
	priv2, err := k2.ECDSA()
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey), crypto.PubkeyToAddress(priv2.PublicKey))

	pub, err := k.Neuter()
	require.NoError(t, err)
	assert.False(t, pub.IsPrivate())
	_, err = pub.ECDSA()
	assert.ErrorIs(t, err, ErrPublicOnly)
}

func TestDerivePath_Invalid(t *testing.T) {
	w := newTestWallet(t)
	for _, p := range []string{"44'/60'", "m/abc", "m/44'//0"} {
		_, err := w.DerivePath(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestNewMasterKeyFromSeed_InvalidSeed(t *testing.T) {
	_, err := NewMasterKeyFromSeed([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

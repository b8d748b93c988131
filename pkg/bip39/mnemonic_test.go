package bip39

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	service := NewMnemonicService()

	for _, bits := range []int{128, 256} {
		m, err := service.GenerateMnemonic(bits)
		require.NoError(t, err)
		assert.True(t, service.ValidateMnemonic(m), "bits=%d", bits)
	}
}

func TestSeed(t *testing.T) {
	service := NewMnemonicService()

	// BIP-39 官方测试向量，passphrase 为空
	expected := "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4"

	seed, err := service.Seed(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, expected, hex.EncodeToString(seed))

	// 多余空白与大小写不影响结果
	seed2, err := service.Seed("  ABANDON abandon\tabandon abandon abandon abandon abandon abandon abandon abandon abandon about\n", "")
	require.NoError(t, err)
	assert.Equal(t, seed, seed2)
}

func TestSeed_Invalid(t *testing.T) {
	_, err := NewMnemonicService().Seed("abandon abandon abandon", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

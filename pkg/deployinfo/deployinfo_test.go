package deployinfo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain id", `"0.0.1234"`, "0.0.1234"},
		{"evm address", `"0x00000000000000000000000000000000000004d2"`, "0x00000000000000000000000000000000000004d2"},
		{"stringified object", `"{\"contractId\":\"0.0.77\"}"`, "0.0.77"},
		{"object contractId", `{"contractId":"0.0.5"}`, "0.0.5"},
		{"object id field", `{"id":"0.0.6","txId":"x"}`, "0.0.6"},
		{"triplet", `{"contractId":{"shard":0,"realm":0,"num":4321}}`, "0.0.4321"},
		{"stringified triplet", `"{\"contractId\":{\"num\":9}}"`, "0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, raw := range []string{`null`, `""`, `123`, `{"foo":"bar"}`, `{"contractId":{"shard":0}}`} {
		_, err := Normalize(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrBadDescriptor, raw)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "deployment-info.json"))
	require.NoError(t, err)
	assert.Empty(t, b.All())

	_, err = b.Get("NodeVault")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestLoad_MixedFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment-info.json")
	content := `{
  "network": "testnet",
  "contracts": {
    "NodeToken": "0.0.100",
    "NodeVault": "{\"contractId\":\"0.0.200\"}",
    "NodeGovernance": {"contractId": {"shard": 0, "realm": 0, "num": 300}}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testnet", b.Network())
	assert.Equal(t, map[string]string{
		"NodeToken":      "0.0.100",
		"NodeVault":      "0.0.200",
		"NodeGovernance": "0.0.300",
	}, b.All())
	assert.Equal(t, []string{"NodeGovernance", "NodeToken", "NodeVault"}, b.Names())
}

func TestPut_PersistsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment-info.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"contracts":{"Old":"{\"id\":\"0.0.1\"}"}}`), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, b.Put("testnet", "NodeLending", "0.0.555"))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.555", mustGet(t, reloaded, "NodeLending"))
	assert.Equal(t, "0.0.1", mustGet(t, reloaded, "Old"))
	assert.Equal(t, "testnet", reloaded.Network())

	// 落盘后是纯字符串格式
	var raw struct {
		UpdatedAt string            `json:"updatedAt"`
		Contracts map[string]string `json:"contracts"`
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "0.0.1", raw.Contracts["Old"])
	assert.NotEmpty(t, raw.UpdatedAt)

	// 目录中不应残留临时文件
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment-info.json")
	b, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, b.All())

	// 另一个进程 (node-deploy) 写入新合约
	other, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, other.Put("testnet", "NodeToken", "0.0.200"))

	n, err := b.Reload()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "0.0.200", mustGet(t, b, "NodeToken"))

	// 文件损坏时保留旧数据
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, err = b.Reload()
	assert.Error(t, err)
	assert.True(t, b.Has("NodeToken"))
}

func mustGet(t *testing.T, b *Book, name string) string {
	t.Helper()
	v, err := b.Get(name)
	require.NoError(t, err)
	return v
}

package tx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"node-wallet/pkg/hedera"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Artifact 编译产物: ABI 与创建字节码
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// LoadArtifact 读取 <dir>/<name>.json。
// 兼容 hardhat 产物 ({"abi": [...], "bytecode": "0x..."}) 与纯 ABI 数组。
// 纯 ABI 时可用同名 .bin 文件提供字节码。
func LoadArtifact(dir, name string) (*Artifact, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, err
	}

	art := &Artifact{Name: name}
	trimmed := bytes.TrimSpace(data)
	abiJSON := trimmed
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var hh struct {
			ABI      json.RawMessage `json:"abi"`
			Bytecode json.RawMessage `json:"bytecode"`
		}
		if err := json.Unmarshal(trimmed, &hh); err != nil {
			return nil, fmt.Errorf("parse artifact %s: %w", name, err)
		}
		abiJSON = hh.ABI
		art.Bytecode = decodeBytecode(hh.Bytecode)
	}

	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", name, err)
	}
	art.ABI = parsed

	if len(art.Bytecode) == 0 {
		if bin, err := os.ReadFile(filepath.Join(dir, name+".bin")); err == nil {
			art.Bytecode = common.FromHex(strings.TrimSpace(string(bin)))
		}
	}
	return art, nil
}

// bytecode 字段可能是字符串，也可能是 {"object": "0x..."} (foundry)
func decodeBytecode(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return common.FromHex(s)
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return common.FromHex(obj.Object)
	}
	return nil
}

// ABIRegistry 合约地址 -> ABI
type ABIRegistry struct {
	mu   sync.RWMutex
	abis map[common.Address]*abi.ABI
}

func NewABIRegistry() *ABIRegistry {
	return &ABIRegistry{abis: make(map[common.Address]*abi.ABI)}
}

// Register 按合约地址 (0.0.N 或 0x) 登记 ABI
func (r *ABIRegistry) Register(contractID string, a *abi.ABI) error {
	addr, err := hedera.ResolveAddress(contractID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.abis[addr] = a
	r.mu.Unlock()
	return nil
}

func (r *ABIRegistry) Lookup(addr common.Address) (*abi.ABI, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.abis[addr]
	return a, ok
}

// LoadABIRegistry 为 contracts (名称 -> 地址) 中每个合约加载 <dir>/<名称>.json。
// 缺少产物的合约跳过，调用时退化为按参数类型推导函数签名。
func LoadABIRegistry(dir string, contracts map[string]string) (*ABIRegistry, []string, error) {
	r := NewABIRegistry()
	var missing []string
	for name, id := range contracts {
		art, err := LoadArtifact(dir, name)
		if errors.Is(err, os.ErrNotExist) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if err := r.Register(id, &art.ABI); err != nil {
			return nil, nil, fmt.Errorf("contract %s: %w", name, err)
		}
	}
	return r, missing, nil
}

// Package deployinfo 读写 deployment-info.json (合约名 -> 地址)
package deployinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrContractNotFound = errors.New("contract not found in deployment info")
	ErrBadDescriptor    = errors.New("unrecognized contract descriptor")
)

// record 是文件的磁盘格式，contracts 的值可能是任意历史格式
type record struct {
	Network   string                     `json:"network,omitempty"`
	UpdatedAt string                     `json:"updatedAt,omitempty"`
	Contracts map[string]json.RawMessage `json:"contracts"`
}

// Book 合约地址簿，读取时统一归一化为纯地址字符串
type Book struct {
	path string

	mu        sync.RWMutex
	network   string
	contracts map[string]string
}

// Load 读取地址簿，文件不存在时返回空簿
func Load(path string) (*Book, error) {
	network, contracts, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Book{path: path, network: network, contracts: contracts}, nil
}

// Reload 重新读取文件 (其他进程可能已写入新部署)，失败时保留内存中的旧数据
func (b *Book) Reload() (int, error) {
	network, contracts, err := readFile(b.path)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.network = network
	b.contracts = contracts
	return len(contracts), nil
}

func readFile(path string) (string, map[string]string, error) {
	contracts := make(map[string]string)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", contracts, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", contracts, nil
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for name, raw := range rec.Contracts {
		addr, err := Normalize(raw)
		if err != nil {
			return "", nil, fmt.Errorf("contract %s: %w", name, err)
		}
		contracts[name] = addr
	}
	return rec.Network, contracts, nil
}

// Get 返回合约地址 ("0.0.N" 或 "0x...")
func (b *Book) Get(name string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	addr, ok := b.contracts[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContractNotFound, name)
	}
	return addr, nil
}

// Has 合约是否已记录
func (b *Book) Has(name string) bool {
	_, err := b.Get(name)
	return err == nil
}

// All 返回副本
func (b *Book) All() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.contracts))
	for k, v := range b.contracts {
		out[k] = v
	}
	return out
}

// Names 按字母序返回合约名
func (b *Book) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.contracts))
	for k := range b.contracts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (b *Book) Network() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.network
}

// Put 记录合约并立即落盘
func (b *Book) Put(network, name, address string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, had := b.contracts[name]
	prevNet := b.network
	b.contracts[name] = address
	if network != "" {
		b.network = network
	}

	if err := b.saveLocked(); err != nil {
		// 落盘失败时回滚内存状态
		if had {
			b.contracts[name] = prev
		} else {
			delete(b.contracts, name)
		}
		b.network = prevNet
		return err
	}
	return nil
}

// saveLocked 先写临时文件再 rename，避免写一半的文件
func (b *Book) saveLocked() error {
	rec := struct {
		Network   string            `json:"network,omitempty"`
		UpdatedAt string            `json:"updatedAt"`
		Contracts map[string]string `json:"contracts"`
	}{
		Network:   b.network,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Contracts: b.contracts,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, ".deployment-info-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // rename 成功后为 no-op

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

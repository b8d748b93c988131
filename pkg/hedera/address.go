package hedera

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ToEVMAddress 将 shard.realm.num 转换为 long-zero EVM 地址:
// shard(4 字节) | realm(8 字节) | num(8 字节)
func ToEVMAddress(id string) (common.Address, error) {
	e, err := ParseEntityID(id)
	if err != nil {
		return common.Address{}, err
	}
	var addr common.Address
	binary.BigEndian.PutUint32(addr[0:4], e.Shard)
	binary.BigEndian.PutUint64(addr[4:12], e.Realm)
	binary.BigEndian.PutUint64(addr[12:20], e.Num)
	return addr, nil
}

// FromEVMAddress 是 ToEVMAddress 的逆操作。
// 不是 long-zero 地址 (例如 ECDSA 别名地址) 时 ok=false。
func FromEVMAddress(addr common.Address) (id string, ok bool) {
	for _, b := range addr[0:4] {
		if b != 0 {
			return "", false
		}
	}
	realm := binary.BigEndian.Uint64(addr[4:12])
	if realm != 0 {
		return "", false
	}
	num := binary.BigEndian.Uint64(addr[12:20])
	if num == 0 {
		return "", false
	}
	return EntityID{Num: num}.String(), true
}

// ResolveAddress 接受 "0.0.N" 或 "0x..." 两种写法，返回 EVM 地址
func ResolveAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !common.IsHexAddress(s) {
			return common.Address{}, fmt.Errorf("invalid evm address: %q", s)
		}
		return common.HexToAddress(s), nil
	}
	return ToEVMAddress(s)
}

// ContractIDFromAddress 把部署回执里的合约地址转回 ID 形式，无法转换时返回 Hex
func ContractIDFromAddress(addr common.Address) string {
	if id, ok := FromEVMAddress(addr); ok {
		return id
	}
	return addr.Hex()
}

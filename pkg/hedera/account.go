// Package hedera 提供账本相关的小工具: 账户 ID 校验、命名空间账户解析、
// long-zero EVM 地址转换以及镜像节点余额查询。
package hedera

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidAccountID = errors.New("invalid account id")
	ErrNoAccounts       = errors.New("namespaced account list is empty")
)

// 账户 ID 固定为 0.0.<num>
var accountPattern = regexp.MustCompile(`^0\.0\.(\d+)$`)

// EntityID 是 shard.realm.num 三元组
type EntityID struct {
	Shard uint32
	Realm uint64
	Num   uint64
}

func (e EntityID) String() string {
	return fmt.Sprintf("%d.%d.%d", e.Shard, e.Realm, e.Num)
}

// ValidateAccountID 校验账户 ID 是否符合 0.0.<num> 格式
func ValidateAccountID(id string) error {
	if !accountPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountID, id)
	}
	return nil
}

// ParseEntityID 解析任意 shard.realm.num 形式的 ID (合约 ID 同样适用)
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return EntityID{}, fmt.Errorf("%w: %q", ErrInvalidAccountID, s)
	}
	shard, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return EntityID{}, fmt.Errorf("%w: %q", ErrInvalidAccountID, s)
	}
	realm, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return EntityID{}, fmt.Errorf("%w: %q", ErrInvalidAccountID, s)
	}
	num, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return EntityID{}, fmt.Errorf("%w: %q", ErrInvalidAccountID, s)
	}
	return EntityID{Shard: uint32(shard), Realm: realm, Num: num}, nil
}

// AccountFromNamespaced 从 "<network>:<sub-network>:<account-id>" 中取出账户 ID。
// 取最后一个冒号分隔段，并校验格式。
func AccountFromNamespaced(namespaced string) (string, error) {
	idx := strings.LastIndex(namespaced, ":")
	id := namespaced[idx+1:]
	if err := ValidateAccountID(id); err != nil {
		return "", err
	}
	return id, nil
}

// FirstAccount 取会话账户列表中的第一个账户
func FirstAccount(accounts []string) (string, error) {
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	return AccountFromNamespaced(accounts[0])
}

// Namespaced 构造 "hedera:<network>:<account-id>"
func Namespaced(network, accountID string) string {
	return "hedera:" + network + ":" + accountID
}

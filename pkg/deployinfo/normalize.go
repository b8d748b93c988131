package deployinfo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// 描述对象中可能出现的 ID 字段，按优先级排列
var idFields = []string{"contractId", "id", "address", "evmAddress"}

// Normalize 把历史上出现过的几种描述格式统一为纯地址字符串:
//
//	"0.0.1234"
//	"0x..."
//	"{\"contractId\":\"0.0.1234\"}"          (JSON 字符串化的对象)
//	{"contractId": "0.0.1234"}
//	{"contractId": {"shard":0,"realm":0,"num":1234}}
func Normalize(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrBadDescriptor
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadDescriptor, err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "{") {
			return Normalize(json.RawMessage(s))
		}
		if s == "" {
			return "", ErrBadDescriptor
		}
		return s, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadDescriptor, err)
		}
		for _, field := range idFields {
			if v, ok := obj[field]; ok {
				return normalizeID(v)
			}
		}
		return "", fmt.Errorf("%w: no id field", ErrBadDescriptor)
	default:
		return "", fmt.Errorf("%w: %s", ErrBadDescriptor, string(raw))
	}
}

type entityTriplet struct {
	Shard *uint64 `json:"shard"`
	Realm *uint64 `json:"realm"`
	Num   *uint64 `json:"num"`
}

func normalizeID(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '{' {
		var t entityTriplet
		if err := json.Unmarshal(v, &t); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadDescriptor, err)
		}
		if t.Num == nil {
			return "", fmt.Errorf("%w: missing num", ErrBadDescriptor)
		}
		var shard, realm uint64
		if t.Shard != nil {
			shard = *t.Shard
		}
		if t.Realm != nil {
			realm = *t.Realm
		}
		return fmt.Sprintf("%d.%d.%d", shard, realm, *t.Num), nil
	}
	return Normalize(v)
}

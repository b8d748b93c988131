package walletconnect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"node-wallet/pkg/crypto_util"
	"node-wallet/pkg/safe_random"
)

const (
	protocolVersion = "2"
	relayProtocol   = "irn"
	symKeyLength    = 32
	pairingTTL      = 5 * time.Minute
)

var ErrInvalidURI = errors.New("invalid pairing uri")

// Pairing 一次配对握手的参数。
// Topic 由 SymKey 派生: topic = sha256(symKey)
type Pairing struct {
	Topic  string
	SymKey []byte
	Expiry time.Time
}

// NewPairing 生成新的随机对称密钥及对应 topic
func NewPairing() (*Pairing, error) {
	key, err := safe_random.GenerateRandomBytes(symKeyLength)
	if err != nil {
		return nil, fmt.Errorf("生成配对密钥失败: %w", err)
	}
	return &Pairing{
		Topic:  crypto_util.CalculateSHA256(key),
		SymKey: key,
		Expiry: time.Now().Add(pairingTTL),
	}, nil
}

// URI 返回展示给用户的连接 URI (通常渲染成二维码)
// wc:<topic>@2?relay-protocol=irn&symKey=<hex>&expiryTimestamp=<unix>
func (p *Pairing) URI() string {
	q := url.Values{}
	q.Set("relay-protocol", relayProtocol)
	q.Set("symKey", hex.EncodeToString(p.SymKey))
	q.Set("expiryTimestamp", strconv.FormatInt(p.Expiry.Unix(), 10))
	return fmt.Sprintf("wc:%s@%s?%s", p.Topic, protocolVersion, q.Encode())
}

// ParseURI 解析 wc: URI，钱包端 (以及测试) 使用
func ParseURI(uri string) (*Pairing, error) {
	rest, ok := strings.CutPrefix(uri, "wc:")
	if !ok {
		return nil, fmt.Errorf("%w: missing wc: prefix", ErrInvalidURI)
	}
	topic, rest, ok := strings.Cut(rest, "@")
	if !ok || topic == "" {
		return nil, fmt.Errorf("%w: missing topic", ErrInvalidURI)
	}
	version, rawQuery, _ := strings.Cut(rest, "?")
	if version != protocolVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidURI, version)
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	key, err := hex.DecodeString(q.Get("symKey"))
	if err != nil || len(key) != symKeyLength {
		return nil, fmt.Errorf("%w: bad symKey", ErrInvalidURI)
	}
	if crypto_util.CalculateSHA256(key) != topic {
		return nil, fmt.Errorf("%w: topic does not match symKey", ErrInvalidURI)
	}

	p := &Pairing{Topic: topic, SymKey: key}
	if ts := q.Get("expiryTimestamp"); ts != "" {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad expiryTimestamp", ErrInvalidURI)
		}
		p.Expiry = time.Unix(sec, 0)
	}
	return p, nil
}

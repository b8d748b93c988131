package hedera

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"node-wallet/pkg/monitor"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TinybarsPerHbar 1 HBAR = 100,000,000 tinybars
const TinybarsPerHbar = 100_000_000

// ZeroBalance 余额查询失败时展示的占位值
const ZeroBalance = "0.00"

// MirrorClient 查询镜像节点 REST API
type MirrorClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type accountResponse struct {
	Account string `json:"account"`
	Balance struct {
		Balance   int64  `json:"balance"`
		Timestamp string `json:"timestamp"`
	} `json:"balance"`
}

func NewMirrorClient(baseURL string, log *zap.Logger) *MirrorClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &MirrorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// Balance 返回账户余额 (tinybars)
func (c *MirrorClient) Balance(ctx context.Context, accountID string) (int64, error) {
	if err := ValidateAccountID(accountID); err != nil {
		return 0, err
	}

	endpoint := c.baseURL + "/api/v1/accounts/" + url.PathEscape(accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("mirror request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("mirror returned status %d for %s", resp.StatusCode, accountID)
	}

	var body accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode mirror response: %w", err)
	}
	return body.Balance.Balance, nil
}

// DisplayBalance 返回展示用余额 (两位小数)。查询失败时降级为 "0.00"，不阻塞调用方。
func (c *MirrorClient) DisplayBalance(ctx context.Context, accountID string) string {
	tinybars, err := c.Balance(ctx, accountID)
	if err != nil {
		c.log.Warn("[Mirror] 余额查询失败，降级为 0", zap.String("account", accountID), zap.Error(err))
		monitor.RecordBalanceFallback()
		return ZeroBalance
	}
	return FormatTinybars(tinybars)
}

// FormatTinybars tinybars -> HBAR, 保留两位小数
// 例: 123456789 -> "1.23"
func FormatTinybars(tinybars int64) string {
	return decimal.New(tinybars, -8).StringFixed(2)
}

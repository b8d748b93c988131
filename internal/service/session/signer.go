package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"node-wallet/internal/service/tx"
	"node-wallet/pkg/hedera"
	"node-wallet/pkg/walletconnect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MethodSignTransaction 钱包签名请求方法名
const MethodSignTransaction = "hedera_signTransaction"

type signRequest struct {
	SignerAccountID string `json:"signerAccountId"`
	Transaction     string `json:"transactionBytes"`
}

type signResponse struct {
	SignedTransaction string `json:"signedTransactionBytes"`
}

// Signer 返回绑定到当前会话的远程签名函数。实现 tx.AccountSigner。
func (m *Manager) Signer(ctx context.Context) (string, common.Address, tx.SignFunc, error) {
	ws := m.Current(ctx)
	if ws == nil {
		return "", common.Address{}, nil, ErrNotConnected
	}
	from, err := hedera.ToEVMAddress(ws.AccountID)
	if err != nil {
		return "", common.Address{}, nil, fmt.Errorf("%w: %w", ErrInvalidAccountID, err)
	}

	signer := hedera.Namespaced(ws.Network, ws.AccountID)
	topic, key := ws.Topic, ws.SymKey

	sign := func(ctx context.Context, unsigned []byte) ([]byte, error) {
		raw, err := m.client.Request(ctx, topic, key, MethodSignTransaction, signRequest{
			SignerAccountID: signer,
			Transaction:     hexutil.Encode(unsigned),
		})
		if errors.Is(err, walletconnect.ErrUserRejected) {
			return nil, fmt.Errorf("%w: %v", tx.ErrSigningDeclined, err)
		}
		if err != nil {
			return nil, err
		}

		var resp signResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode sign response: %w", err)
		}
		return hexutil.Decode(resp.SignedTransaction)
	}
	return ws.AccountID, from, sign, nil
}

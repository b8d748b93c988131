package deploy

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"node-wallet/internal/service/tx"
	"node-wallet/pkg/hedera"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LedgerDeployer 用运营账户密钥在链上创建合约
type LedgerDeployer struct {
	preparer    *tx.Preparer
	bridge      *tx.Bridge
	submitter   *tx.Submitter
	artifactDir string
	args        []tx.Param // 构造参数
	key         *ecdsa.PrivateKey
	from        common.Address

	mu        sync.Mutex
	artifacts map[string]*tx.Artifact
}

func NewLedgerDeployer(preparer *tx.Preparer, bridge *tx.Bridge, submitter *tx.Submitter,
	artifactDir string, key *ecdsa.PrivateKey, args []tx.Param) *LedgerDeployer {
	return &LedgerDeployer{
		preparer:    preparer,
		bridge:      bridge,
		submitter:   submitter,
		artifactDir: artifactDir,
		args:        args,
		key:         key,
		from:        crypto.PubkeyToAddress(key.PublicKey),
		artifacts:   make(map[string]*tx.Artifact),
	}
}

// artifact 每个合约只读一次编译产物
func (d *LedgerDeployer) artifact(name string) (*tx.Artifact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if art, ok := d.artifacts[name]; ok {
		return art, nil
	}
	art, err := tx.LoadArtifact(d.artifactDir, name)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", name, err)
	}
	d.artifacts[name] = art
	return art, nil
}

// Deploy 每次调用重新冻结，保证 nonce 与 gas price 是最新的
func (d *LedgerDeployer) Deploy(ctx context.Context, contract string, gas uint64) (*Deployment, error) {
	art, err := d.artifact(contract)
	if err != nil {
		return nil, err
	}
	call, err := d.preparer.PrepareDeploy(art, d.args, gas)
	if err != nil {
		return nil, err
	}
	frozen, err := d.preparer.Freeze(ctx, call, d.from)
	if err != nil {
		return nil, err
	}
	signed, err := d.bridge.Sign(ctx, frozen, tx.LocalSigner(d.key, frozen.ChainID()))
	if err != nil {
		return nil, err
	}
	r, err := d.submitter.SubmitForReceipt(ctx, signed)
	if err != nil {
		return nil, err
	}
	if r.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("receipt %s carries no contract address", r.TxID)
	}
	return &Deployment{
		ContractID: hedera.ContractIDFromAddress(r.ContractAddress),
		TxID:       r.TxID,
		GasUsed:    r.GasUsed,
	}, nil
}

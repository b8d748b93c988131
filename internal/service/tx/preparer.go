package tx

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"node-wallet/pkg/hedera"
	"node-wallet/pkg/ledger"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Call 未绑定网络的调用描述。To 为空表示合约创建。
type Call struct {
	To           *common.Address
	ContractID   string
	FunctionName string
	Data         []byte
	GasLimit     uint64
	Value        *big.Int
}

// Preparer 构造未签名调用，并绑定到网络 (Freeze)
type Preparer struct {
	network ledger.Network
	abis    *ABIRegistry
}

func NewPreparer(network ledger.Network, abis *ABIRegistry) *Preparer {
	return &Preparer{network: network, abis: abis}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBytecodeOrParamsInvalid, fmt.Sprintf(format, args...))
}

// Prepare 打包函数调用。合约 ABI 已登记时按 ABI 校验函数与参数个数，
// 否则按参数类型推导函数签名。
func (p *Preparer) Prepare(pt PendingTransaction) (*Call, error) {
	if strings.TrimSpace(pt.FunctionName) == "" {
		return nil, invalid("missing function name")
	}
	to, err := hedera.ResolveAddress(pt.ContractID)
	if err != nil {
		return nil, invalid("contract %q: %v", pt.ContractID, err)
	}

	gas := pt.GasLimit
	if gas == 0 {
		gas = DefaultGasLimit
	}
	if gas > DefaultGasLimit {
		return nil, invalid("gas %d exceeds limit %d", gas, DefaultGasLimit)
	}

	value := pt.PayableValue
	if value != nil && value.Sign() < 0 {
		return nil, invalid("negative payable value")
	}
	hasValue := value != nil && value.Sign() > 0

	var data []byte
	if a, ok := p.abis.Lookup(to); ok {
		data, err = packWithABI(a, pt.FunctionName, pt.Params, hasValue)
	} else {
		data, err = packBySignature(pt.FunctionName, pt.Params)
	}
	if err != nil {
		return nil, err
	}

	call := &Call{
		To:           &to,
		ContractID:   pt.ContractID,
		FunctionName: pt.FunctionName,
		Data:         data,
		GasLimit:     gas,
		Value:        new(big.Int),
	}
	if hasValue {
		call.Value.Set(value)
	}
	return call, nil
}

// PrepareDeploy 构造合约创建调用: bytecode + 构造参数
func (p *Preparer) PrepareDeploy(art *Artifact, args []Param, gas uint64) (*Call, error) {
	if len(art.Bytecode) == 0 {
		return nil, invalid("empty bytecode for %s", art.Name)
	}
	inputs := art.ABI.Constructor.Inputs
	if len(inputs) != len(args) {
		return nil, invalid("constructor of %s expects %d args, got %d", art.Name, len(inputs), len(args))
	}
	values, err := convertArgs(inputs, args)
	if err != nil {
		return nil, err
	}
	packed, err := inputs.Pack(values...)
	if err != nil {
		return nil, invalid("pack constructor: %v", err)
	}

	data := make([]byte, 0, len(art.Bytecode)+len(packed))
	data = append(data, art.Bytecode...)
	data = append(data, packed...)
	return &Call{ContractID: art.Name, FunctionName: "constructor", Data: data, GasLimit: gas, Value: new(big.Int)}, nil
}

func packWithABI(a *abi.ABI, name string, params []Param, hasValue bool) ([]byte, error) {
	method, ok := a.Methods[name]
	if !ok {
		return nil, invalid("function %q not found in abi", name)
	}
	if len(method.Inputs) != len(params) {
		return nil, invalid("%s expects %d args, got %d", method.Sig, len(method.Inputs), len(params))
	}
	if hasValue && !method.IsPayable() {
		return nil, invalid("%s is not payable", method.Sig)
	}
	values, err := convertArgs(method.Inputs, params)
	if err != nil {
		return nil, err
	}
	data, err := a.Pack(name, values...)
	if err != nil {
		return nil, invalid("pack %s: %v", method.Sig, err)
	}
	return data, nil
}

// packBySignature 没有 ABI 时: selector = keccak256("name(type,...)")[:4]
func packBySignature(name string, params []Param) ([]byte, error) {
	args := make(abi.Arguments, 0, len(params))
	typeNames := make([]string, 0, len(params))
	for i, prm := range params {
		t, err := abi.NewType(string(prm.Type), "", nil)
		if err != nil {
			return nil, invalid("arg %d: unknown type %q", i, prm.Type)
		}
		args = append(args, abi.Argument{Type: t})
		typeNames = append(typeNames, t.String())
	}

	values, err := convertArgs(args, params)
	if err != nil {
		return nil, err
	}
	packed, err := args.Pack(values...)
	if err != nil {
		return nil, invalid("pack %s: %v", name, err)
	}

	sig := fmt.Sprintf("%s(%s)", name, strings.Join(typeNames, ","))
	data := append(crypto.Keccak256([]byte(sig))[:4], packed...)
	return data, nil
}

func convertArgs(args abi.Arguments, params []Param) ([]any, error) {
	out := make([]any, len(params))
	for i, prm := range params {
		v, err := convertArg(args[i].Type, prm.Value)
		if err != nil {
			return nil, invalid("arg %d (%s): %v", i, args[i].Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

// convertArg 把字符串值转换为 abi 打包所需的 Go 类型
func convertArg(t abi.Type, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch t.T {
	case abi.StringTy:
		return s, nil
	case abi.AddressTy:
		return hedera.ResolveAddress(s)
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.BytesTy:
		if s == "" {
			return []byte{}, nil
		}
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("value longer than %d bytes", t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("not an integer: %q", s)
		}
		if t.T == abi.UintTy {
			if n.Sign() < 0 {
				return nil, fmt.Errorf("negative value for unsigned type")
			}
			if n.BitLen() > t.Size {
				return nil, fmt.Errorf("overflows uint%d", t.Size)
			}
		} else if !fitsSigned(n, t.Size) {
			return nil, fmt.Errorf("overflows int%d", t.Size)
		}
		if t.Size > 64 {
			return n, nil
		}
		// uint8..uint64 / int8..int64 需要精确的 Go 类型
		if t.T == abi.UintTy {
			return reflect.ValueOf(n.Uint64()).Convert(t.GetType()).Interface(), nil
		}
		return reflect.ValueOf(n.Int64()).Convert(t.GetType()).Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported abi type %s", t.String())
	}
}

// fitsSigned n 是否在 [-2^(bits-1), 2^(bits-1)-1] 内
func fitsSigned(n *big.Int, bits int) bool {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if n.Sign() < 0 {
		return n.Cmp(new(big.Int).Neg(limit)) >= 0
	}
	return n.Cmp(limit) < 0
}

// FrozenTransaction 已绑定链 ID、nonce、gas price 的未签名交易，只能签名一次
type FrozenTransaction struct {
	tx      *ethtypes.Transaction
	chainID *big.Int
	from    common.Address

	consumed chan struct{}
}

// Freeze 绑定到网络上下文，之后内容不可变
func (p *Preparer) Freeze(ctx context.Context, call *Call, from common.Address) (*FrozenTransaction, error) {
	chainID, err := p.network.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	nonce, err := p.network.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("query nonce: %w", err)
	}
	gasPrice, err := p.network.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("query gas price: %w", err)
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      call.GasLimit,
		To:       call.To,
		Value:    value,
		Data:     call.Data,
	})

	f := &FrozenTransaction{tx: tx, chainID: chainID, from: from, consumed: make(chan struct{}, 1)}
	f.consumed <- struct{}{}
	return f, nil
}

func (f *FrozenTransaction) ChainID() *big.Int    { return new(big.Int).Set(f.chainID) }
func (f *FrozenTransaction) From() common.Address { return f.from }
func (f *FrozenTransaction) Hash() common.Hash    { return f.tx.Hash() }

// UnsignedBytes 未签名交易的 RLP 编码
func (f *FrozenTransaction) UnsignedBytes() ([]byte, error) {
	return f.tx.MarshalBinary()
}

// take 标记为已使用，第二次调用返回 false
func (f *FrozenTransaction) take() bool {
	select {
	case <-f.consumed:
		return true
	default:
		return false
	}
}

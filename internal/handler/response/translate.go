package response

import (
	"errors"

	"node-wallet/internal/service/session"
	"node-wallet/internal/service/tx"
	"node-wallet/pkg/deployinfo"
	"node-wallet/pkg/errno"
	"node-wallet/pkg/hedera"
)

var sentinels = []struct {
	err  error
	code errno.Errno
}{
	{session.ErrConnectionRejected, errno.ErrConnectionRejected},
	{session.ErrConnectionTimeout, errno.ErrConnectionTimeout},
	{session.ErrInvalidAccountID, errno.ErrInvalidAccountID},
	{hedera.ErrInvalidAccountID, errno.ErrInvalidAccountID},
	{session.ErrPairingInProgress, errno.ErrPairingInProgress},
	{session.ErrNotConnected, errno.ErrNotConnected},
	{tx.ErrBytecodeOrParamsInvalid, errno.ErrParamsInvalid},
	{tx.ErrSigningDeclined, errno.ErrSigningDeclined},
	{tx.ErrSigningTimeout, errno.ErrSigningTimeout},
	{deployinfo.ErrContractNotFound, errno.ErrContractNotFound},
}

// Translate 把领域错误映射为 errno，已经是 Errno 的原样返回
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var e errno.Errno
	if errors.As(err, &e) {
		return e
	}

	var failed *tx.TransactionFailedError
	if errors.As(err, &failed) {
		return errno.ErrTransactionFailed.WithMessage("Transaction failed: " + failed.Status)
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return err
}

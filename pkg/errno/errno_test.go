package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	code, msg := Decode(nil)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Success", msg)

	code, msg = Decode(ErrConnectionTimeout)
	assert.Equal(t, 30102, code)
	assert.Equal(t, "Connection timed out", msg)

	// 包装过的 Errno 也能识别
	code, _ = Decode(fmt.Errorf("connect: %w", ErrConnectionRejected))
	assert.Equal(t, 30101, code)

	code, msg = Decode(errors.New("boom"))
	assert.Equal(t, InternalServerError.Code, code)
	assert.Equal(t, "boom", msg)
}

func TestWithMessage(t *testing.T) {
	e := ErrTransactionFailed.WithMessage("Transaction failed: CONTRACT_REVERT_EXECUTED")
	assert.Equal(t, ErrTransactionFailed.Code, e.Code)
	assert.Equal(t, "Transaction failed: CONTRACT_REVERT_EXECUTED", e.Error())
	// 原值不变
	assert.Equal(t, "Transaction failed", ErrTransactionFailed.Message)
}

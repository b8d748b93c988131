package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type balanceReq struct {
	AccountID string `validate:"required,account_id"`
	Contract  string `validate:"omitempty,ledger_address"`
}

func TestCustomRules(t *testing.T) {
	v := validator.New()
	Register(v)

	assert.NoError(t, v.Struct(balanceReq{AccountID: "0.0.42"}))
	assert.NoError(t, v.Struct(balanceReq{AccountID: "0.0.42", Contract: "0x00000000000000000000000000000000000004d2"}))

	err := v.Struct(balanceReq{AccountID: "1.0.42", Contract: "nope"})
	assert.Error(t, err)
	msg := GetErrorMsg(err)
	assert.Contains(t, msg, "AccountID 必须是 0.0.<num> 格式")
	assert.Contains(t, msg, "Contract 不是有效的合约地址")
}

func TestGetErrorMsg_NonValidation(t *testing.T) {
	assert.Equal(t, "请求参数错误", GetErrorMsg(errors.New("EOF")))
}

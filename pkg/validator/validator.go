package validator

import (
	"fmt"
	"strings"

	"node-wallet/pkg/hedera"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init 在 gin 的 validator 上注册自定义规则:
//
//	account_id: 0.0.<num>
//	ledger_address: 0.0.<num> 或 0x 开头的 EVM 地址
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register 注册自定义规则，测试中可直接对独立的 Validate 实例调用
func Register(v *validator.Validate) {
	_ = v.RegisterValidation("account_id", func(fl validator.FieldLevel) bool {
		return hedera.ValidateAccountID(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("ledger_address", func(fl validator.FieldLevel) bool {
		_, err := hedera.ResolveAddress(fl.Field().String())
		return err == nil
	})
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errMsgs []string
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能为空", field))
			case "min":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 至少为 %s", field, e.Param()))
			case "max":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能超过 %s", field, e.Param()))
			case "oneof":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, e.Param()))
			case "account_id":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 0.0.<num> 格式", field))
			case "ledger_address":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不是有效的合约地址", field))
			default:
				errMsgs = append(errMsgs, fmt.Sprintf("%s 校验失败 (%s)", field, e.Tag()))
			}
		}
		return strings.Join(errMsgs, "; ")
	}
	return "请求参数错误"
}

package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage 返回一个替换了 Message 的副本 (Code 不变)
func (e Errno) WithMessage(msg string) Errno {
	return Errno{Code: e.Code, Message: msg}
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Message
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrNotFound         = Errno{Code: 10004, Message: "Resource not found"}
)

// Wallet session errors (30100+)
var (
	ErrConnectionRejected = Errno{Code: 30101, Message: "Connection rejected in wallet"}
	ErrConnectionTimeout  = Errno{Code: 30102, Message: "Connection timed out"}
	ErrInvalidAccountID   = Errno{Code: 30103, Message: "Invalid account id"}
	ErrPairingInProgress  = Errno{Code: 30104, Message: "A pairing request is already in progress"}
	ErrNotConnected       = Errno{Code: 30105, Message: "Wallet not connected"}
	ErrConnectionUnknown  = Errno{Code: 30199, Message: "Unknown error, please retry"}
)

// Transaction errors (30200+)
var (
	ErrParamsInvalid     = Errno{Code: 30201, Message: "Bytecode or parameters invalid"}
	ErrSigningDeclined   = Errno{Code: 30202, Message: "Signing declined in wallet"}
	ErrSigningTimeout    = Errno{Code: 30203, Message: "Signing timed out"}
	ErrTransactionFailed = Errno{Code: 30204, Message: "Transaction failed"}
	ErrContractNotFound  = Errno{Code: 30205, Message: "Contract not found in deployment info"}
)

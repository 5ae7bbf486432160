package pkg

import "errors"

// 业务错误分类，handler 层统一用 errors.Is 转换成用户可见的提示
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicate          = errors.New("already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPendingApproval    = errors.New("account is pending admin approval")
	ErrForbidden          = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")

	ErrDuplicateUsername = &wrapped{msg: "username already exists", base: ErrDuplicate}
	ErrDuplicateEmail    = &wrapped{msg: "email already exists", base: ErrDuplicate}
)

type wrapped struct {
	msg  string
	base error
}

func (e *wrapped) Error() string { return e.msg }
func (e *wrapped) Unwrap() error { return e.base }

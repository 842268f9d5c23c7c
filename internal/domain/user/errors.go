package user

import apperrors "github.com/xiebiao/booklend/pkg/errors"

// 用户领域错误定义
var (
	ErrUserNotFound       = apperrors.New(apperrors.ErrCodeUserNotFound, "用户不存在")
	ErrEmailDuplicate     = apperrors.New(apperrors.ErrCodeEmailDuplicate, "邮箱已被注册")
	ErrInvalidEmail       = apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
	ErrWeakPassword       = apperrors.New(apperrors.ErrCodeWeakPassword, "密码长度不能少于6位")
	ErrInvalidCredentials = apperrors.New(apperrors.ErrCodeInvalidPassword, "邮箱或密码错误")
)

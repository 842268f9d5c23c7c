package loan

import (
	apperrors "github.com/xiebiao/booklend/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrLoanNotFound 未找到活跃借阅记录
	ErrLoanNotFound = apperrors.New(apperrors.ErrCodeLoanNotFound, "No active borrowing record found for this book")

	// ErrAlreadyBorrowed 同一用户重复借阅同一图书
	ErrAlreadyBorrowed = apperrors.New(apperrors.ErrCodeAlreadyBorrowed, "You have already borrowed this book")

	// ErrLoanAlreadyClosed 借阅记录已归还,不可重复关闭
	ErrLoanAlreadyClosed = apperrors.New(apperrors.ErrCodeBusinessError, "Borrowing record already returned")
)

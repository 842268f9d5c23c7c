package book

import (
	apperrors "github.com/xiebiao/booklend/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "Book not found")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeISBNDuplicate, "Book with this ISBN already exists")

	// ErrBookUnavailable 图书当前不可借
	ErrBookUnavailable = apperrors.New(apperrors.ErrCodeBookUnavailable, "Book is not available for borrowing")

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")
)

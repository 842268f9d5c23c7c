package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/booklend/internal/domain/book"
)

// RegisterBookUseCase 图书登记用例
// 登记不写缓存:新书等下次列表读取或定时刷新时自然进入缓存
type RegisterBookUseCase struct {
	bookService book.Service
	logger      *zap.Logger
}

// NewRegisterBookUseCase 创建图书登记用例
func NewRegisterBookUseCase(bookService book.Service, logger *zap.Logger) *RegisterBookUseCase {
	return &RegisterBookUseCase{
		bookService: bookService,
		logger:      logger,
	}
}

// RegisterBookRequest 登记请求DTO
type RegisterBookRequest struct {
	ISBN   string
	Title  string
	Author string
}

// Execute 执行图书登记
func (uc *RegisterBookUseCase) Execute(ctx context.Context, req RegisterBookRequest) (*BookDTO, error) {
	b, err := uc.bookService.RegisterBook(ctx, req.ISBN, req.Title, req.Author)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("新书登记成功",
		zap.Uint("book_id", b.ID),
		zap.String("isbn", b.ISBN),
		zap.String("title", b.Title))

	return toBookDTO(b), nil
}

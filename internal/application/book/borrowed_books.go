package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/domain/loan"
)

// ListBorrowedUseCase 用户借阅列表查询用例
type ListBorrowedUseCase struct {
	bookRepo book.Repository
	loanRepo loan.Repository
	cache    Cache
	logger   *zap.Logger
}

// NewListBorrowedUseCase 创建借阅列表用例
func NewListBorrowedUseCase(
	bookRepo book.Repository,
	loanRepo loan.Repository,
	cache Cache,
	logger *zap.Logger,
) *ListBorrowedUseCase {
	return &ListBorrowedUseCase{
		bookRepo: bookRepo,
		loanRepo: loanRepo,
		cache:    cache,
		logger:   logger,
	}
}

// Execute 查询某用户当前借阅的全部图书
// 读路径与可借列表一致:缓存 → 数据库 → 回填
// 回源时优先用详情缓存拼装,减少逐本查库
func (uc *ListBorrowedUseCase) Execute(ctx context.Context, userID uint) ([]*BookDTO, error) {
	if cached := uc.cache.GetBorrowed(ctx, userID); cached != nil {
		return toBookDTOs(cached), nil
	}

	loans, err := uc.loanRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	books := make([]*book.Book, 0, len(loans))
	for _, l := range loans {
		b := uc.cache.GetDetail(ctx, l.BookID)
		if b == nil {
			b, err = uc.bookRepo.FindByID(ctx, l.BookID)
			if err != nil {
				// 借阅记录指向的图书查不到属于数据异常,跳过而非整个失败
				uc.logger.Warn("借阅记录关联的图书缺失",
					zap.Uint("loan_id", l.ID),
					zap.Uint("book_id", l.BookID),
					zap.Error(err))
				continue
			}
		}
		books = append(books, b)
	}

	uc.cache.SetBorrowed(ctx, userID, books)
	return toBookDTOs(books), nil
}

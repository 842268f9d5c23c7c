package book

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/domain/loan"
	"github.com/xiebiao/booklend/internal/domain/user"
	"github.com/xiebiao/booklend/pkg/metrics"
	"github.com/xiebiao/booklend/pkg/mq"
)

// ReturnBookUseCase 还书用例
// 归还依据是"本人对该图书的活跃借阅记录",没有记录直接拒绝
type ReturnBookUseCase struct {
	bookRepo  book.Repository
	loanRepo  loan.Repository
	userRepo  user.Repository
	txManager TxManager
	sync      *CacheSynchronizer
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewReturnBookUseCase 创建还书用例
func NewReturnBookUseCase(
	bookRepo book.Repository,
	loanRepo loan.Repository,
	userRepo user.Repository,
	txManager TxManager,
	sync *CacheSynchronizer,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ReturnBookUseCase {
	return &ReturnBookUseCase{
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
		userRepo:  userRepo,
		txManager: txManager,
		sync:      sync,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// ReturnBookResponse 还书响应DTO
type ReturnBookResponse struct {
	Message    string `json:"message"`
	LoanID     uint   `json:"loan_id"`
	BookID     uint   `json:"book_id"`
	ReturnDate string `json:"return_date"`
}

// Execute 执行还书
func (uc *ReturnBookUseCase) Execute(ctx context.Context, userID, bookID uint) (*ReturnBookResponse, error) {
	var (
		closed   *loan.Loan
		returned *book.Book
	)

	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 校验用户和图书存在
		// 与借书同样的NotFound语义,避免拿不存在的ID得到"无借阅记录"的误导性错误
		if _, err := uc.userRepo.FindByID(txCtx, userID); err != nil {
			return err
		}
		b, err := uc.bookRepo.FindByID(txCtx, bookID)
		if err != nil {
			return err
		}

		// 2. 查找本人对该图书的活跃借阅记录
		// 找不到 → ErrLoanNotFound("No active borrowing record found for this book")
		l, err := uc.loanRepo.FindActive(txCtx, userID, bookID)
		if err != nil {
			return err
		}

		// 3. 关闭借阅记录(写入归还时间)
		if err := l.Close(); err != nil {
			return err
		}
		if err := uc.loanRepo.Update(txCtx, l); err != nil {
			return err
		}

		// 4. 图书恢复可借
		if err := uc.bookRepo.MarkAvailable(txCtx, bookID); err != nil {
			return err
		}
		b.IsAvailable = true

		closed = l
		returned = b
		return nil
	})

	if err != nil {
		uc.metrics.LendingOp("return", "failed")
		return nil, err
	}

	uc.sync.AfterReturn(ctx, userID, bookID)
	uc.publishEvent(ctx, closed, returned)
	uc.metrics.LendingOp("return", "success")

	uc.logger.Info("还书成功",
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
		zap.Uint("loan_id", closed.ID))

	return &ReturnBookResponse{
		Message:    "Book returned successfully",
		LoanID:     closed.ID,
		BookID:     bookID,
		ReturnDate: closed.ReturnDate.Format(time.RFC3339),
	}, nil
}

func (uc *ReturnBookUseCase) publishEvent(ctx context.Context, l *loan.Loan, b *book.Book) {
	if uc.publisher == nil {
		return
	}
	event := mq.LoanEvent{
		LoanID:     l.ID,
		BookID:     l.BookID,
		UserID:     l.UserID,
		ISBN:       b.ISBN,
		OccurredAt: time.Now(),
	}
	if err := uc.publisher.Publish(ctx, mq.RoutingKeyLoanReturned, event); err != nil {
		uc.logger.Warn("归还事件发布失败",
			zap.Uint("loan_id", l.ID),
			zap.Error(err))
	}
}

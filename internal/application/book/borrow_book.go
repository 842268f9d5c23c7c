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

// BorrowBookUseCase 借书用例
// 核心问题:同一本书被并发借出
// 场景:图书只有一本,两个用户同时点借阅
// 错误实现:
//  1. 查询is_available → true
//  2. 创建借阅记录
//  3. UPDATE books SET is_available = false
//     结果:两个请求都通过了步骤1,产生两条活跃借阅记录
//
// 正确实现:条件UPDATE做原子判定
//  1. 事务内创建借阅记录
//  2. UPDATE books SET is_available = false WHERE id = ? AND is_available = true
//  3. RowsAffected = 0 → 已被抢先,整个事务回滚,借阅记录一并消失
type BorrowBookUseCase struct {
	bookRepo  book.Repository
	loanRepo  loan.Repository
	userRepo  user.Repository
	txManager TxManager
	sync      *CacheSynchronizer
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewBorrowBookUseCase 创建借书用例
func NewBorrowBookUseCase(
	bookRepo book.Repository,
	loanRepo loan.Repository,
	userRepo user.Repository,
	txManager TxManager,
	sync *CacheSynchronizer,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BorrowBookUseCase {
	return &BorrowBookUseCase{
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

// BorrowBookResponse 借书响应DTO
type BorrowBookResponse struct {
	Message    string `json:"message"`
	LoanID     uint   `json:"loan_id"`
	BookID     uint   `json:"book_id"`
	BorrowDate string `json:"borrow_date"`
}

// Execute 执行借书
func (uc *BorrowBookUseCase) Execute(ctx context.Context, userID, bookID uint) (*BorrowBookResponse, error) {
	var (
		newLoan  *loan.Loan
		borrowed *book.Book
	)

	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 校验用户存在
		if _, err := uc.userRepo.FindByID(txCtx, userID); err != nil {
			return err
		}

		// 2. 加载图书,提前失败(友好错误,真正的并发判定在步骤5)
		b, err := uc.bookRepo.FindByID(txCtx, bookID)
		if err != nil {
			return err
		}
		if !b.IsAvailable {
			return book.ErrBookUnavailable
		}

		// 3. 重复借阅检查:同一用户对同一图书最多一条活跃记录
		existing, err := uc.loanRepo.FindActive(txCtx, userID, bookID)
		if err != nil && err != loan.ErrLoanNotFound {
			return err
		}
		if existing != nil {
			return loan.ErrAlreadyBorrowed
		}

		// 4. 创建借阅记录
		newLoan = loan.NewLoan(userID, bookID)
		if err := uc.loanRepo.Create(txCtx, newLoan); err != nil {
			return err
		}

		// 5. 条件UPDATE原子标记不可借
		// RowsAffected=0 → ErrBookUnavailable,事务回滚,步骤4的记录一并撤销
		if err := uc.bookRepo.MarkUnavailable(txCtx, bookID); err != nil {
			return err
		}

		borrowed = b
		return nil
	})

	if err != nil {
		uc.metrics.LendingOp("borrow", "failed")
		return nil, err
	}

	// 事务已提交,同步缓存+发布事件(均为尽力而为)
	uc.sync.AfterBorrow(ctx, userID, bookID)
	uc.publishEvent(ctx, mq.RoutingKeyLoanBorrowed, newLoan, borrowed)
	uc.metrics.LendingOp("borrow", "success")

	uc.logger.Info("借书成功",
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
		zap.Uint("loan_id", newLoan.ID))

	return &BorrowBookResponse{
		Message:    "Book borrowed successfully",
		LoanID:     newLoan.ID,
		BookID:     bookID,
		BorrowDate: newLoan.BorrowDate.Format(time.RFC3339),
	}, nil
}

// publishEvent 发布借阅事件,失败只记录日志
func (uc *BorrowBookUseCase) publishEvent(ctx context.Context, routingKey string, l *loan.Loan, b *book.Book) {
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
	if err := uc.publisher.Publish(ctx, routingKey, event); err != nil {
		uc.logger.Warn("借阅事件发布失败",
			zap.String("routing_key", routingKey),
			zap.Uint("loan_id", l.ID),
			zap.Error(err))
	}
}

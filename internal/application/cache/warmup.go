package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	appbook "github.com/xiebiao/booklend/internal/application/book"
	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/domain/loan"
)

// BookSource 预热所需的图书数据源,book.Repository天然满足
type BookSource interface {
	FindAll(ctx context.Context) ([]*book.Book, error)
	FindAvailable(ctx context.Context) ([]*book.Book, error)
	FindByID(ctx context.Context, id uint) (*book.Book, error)
}

// LoanSource 预热所需的借阅数据源,loan.Repository天然满足
type LoanSource interface {
	FindAllActive(ctx context.Context) ([]*loan.Loan, error)
}

// Warmer 缓存预热器
// 设计说明:
// 1. 服务启动后异步执行,预热失败不阻止服务对外提供能力
// 2. 三个阶段相互隔离:任一阶段失败只记录日志,继续下一阶段
//    - 阶段一:可借图书列表
//    - 阶段二:活跃借阅(按用户分组的借阅列表 + 被借集合)
//    - 阶段三:全量图书详情
// 3. 定时刷新复用同一个预热器做全量重建
type Warmer struct {
	books  BookSource
	loans  LoanSource
	cache  appbook.Cache
	logger *zap.Logger
}

// NewWarmer 创建缓存预热器
func NewWarmer(books BookSource, loans LoanSource, cache appbook.Cache, logger *zap.Logger) *Warmer {
	return &Warmer{
		books:  books,
		loans:  loans,
		cache:  cache,
		logger: logger,
	}
}

// Run 执行一轮完整预热
func (w *Warmer) Run(ctx context.Context) {
	start := time.Now()

	w.warmAvailable(ctx)
	w.warmBorrowed(ctx)
	w.warmDetails(ctx)

	w.logger.Info("缓存预热完成", zap.Duration("elapsed", time.Since(start)))
}

// warmAvailable 阶段一:预热可借图书列表
func (w *Warmer) warmAvailable(ctx context.Context) {
	books, err := w.books.FindAvailable(ctx)
	if err != nil {
		w.logger.Warn("预热可借列表失败,跳过该阶段", zap.Error(err))
		return
	}

	w.cache.SetAvailable(ctx, books)
	w.logger.Debug("可借列表预热完成", zap.Int("count", len(books)))
}

// warmBorrowed 阶段二:预热用户借阅列表与被借集合
func (w *Warmer) warmBorrowed(ctx context.Context) {
	loans, err := w.loans.FindAllActive(ctx)
	if err != nil {
		w.logger.Warn("预热借阅数据失败,跳过该阶段", zap.Error(err))
		return
	}

	byUser := make(map[uint][]*book.Book)
	borrowedIDs := make([]uint, 0, len(loans))
	for _, l := range loans {
		b, err := w.books.FindByID(ctx, l.BookID)
		if err != nil {
			w.logger.Warn("预热时图书缺失,跳过该记录",
				zap.Uint("loan_id", l.ID),
				zap.Uint("book_id", l.BookID),
				zap.Error(err))
			continue
		}
		byUser[l.UserID] = append(byUser[l.UserID], b)
		borrowedIDs = append(borrowedIDs, l.BookID)
	}

	for userID, books := range byUser {
		w.cache.SetBorrowed(ctx, userID, books)
	}
	w.cache.SetBorrowedSet(ctx, borrowedIDs)

	w.logger.Debug("借阅数据预热完成",
		zap.Int("users", len(byUser)),
		zap.Int("borrowed", len(borrowedIDs)))
}

// warmDetails 阶段三:预热全量图书详情
func (w *Warmer) warmDetails(ctx context.Context) {
	books, err := w.books.FindAll(ctx)
	if err != nil {
		w.logger.Warn("预热图书详情失败,跳过该阶段", zap.Error(err))
		return
	}

	for _, b := range books {
		w.cache.SetDetail(ctx, b)
	}
	w.logger.Debug("图书详情预热完成", zap.Int("count", len(books)))
}

package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/booklend/internal/domain/book"
)

// CacheSynchronizer 借还事务提交后的缓存同步器
// 设计说明:
// 1. 只在数据库事务成功提交后调用,事务回滚时缓存保持原样
// 2. 列表视图(available/borrowed)直接失效,等下次读取按需重建
// 3. 详情视图失效后立即用最新实体回写,详情读多写少,主动回写减少穿透
// 4. 被借集合增量维护(SAdd/SRem),全量重建交给预热与定时刷新
// 5. 所有操作都是尽力而为:缓存故障不影响已提交的借还结果
type CacheSynchronizer struct {
	cache    Cache
	bookRepo book.Repository
	logger   *zap.Logger
}

// NewCacheSynchronizer 创建缓存同步器
func NewCacheSynchronizer(cache Cache, bookRepo book.Repository, logger *zap.Logger) *CacheSynchronizer {
	return &CacheSynchronizer{
		cache:    cache,
		bookRepo: bookRepo,
		logger:   logger,
	}
}

// AfterBorrow 借出成功后同步缓存
func (s *CacheSynchronizer) AfterBorrow(ctx context.Context, userID, bookID uint) {
	s.cache.InvalidateAvailable(ctx)
	s.cache.InvalidateBorrowed(ctx, userID)
	s.cache.AddBorrowedSet(ctx, bookID)
	s.rewriteDetail(ctx, bookID)

	s.logger.Debug("借出后缓存已同步",
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID))
}

// AfterReturn 归还成功后同步缓存
func (s *CacheSynchronizer) AfterReturn(ctx context.Context, userID, bookID uint) {
	s.cache.InvalidateAvailable(ctx)
	s.cache.InvalidateBorrowed(ctx, userID)
	s.cache.RemoveBorrowedSet(ctx, bookID)
	s.rewriteDetail(ctx, bookID)

	s.logger.Debug("归还后缓存已同步",
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID))
}

// rewriteDetail 失效后立即回写最新详情
// 数据库读取失败时只失效不回写,下次读取按需重建
func (s *CacheSynchronizer) rewriteDetail(ctx context.Context, bookID uint) {
	s.cache.InvalidateDetail(ctx, bookID)

	b, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		s.logger.Warn("回写图书详情缓存失败",
			zap.Uint("book_id", bookID),
			zap.Error(err))
		return
	}
	s.cache.SetDetail(ctx, b)
}

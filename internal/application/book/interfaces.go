package book

import (
	"context"

	"github.com/xiebiao/booklend/internal/domain/book"
)

// Cache 图书缓存接口
// 应用层依赖抽象,infrastructure/persistence/redis.BookCache是生产实现
// 所有方法不返回error:缓存故障由实现内部降级处理,读视为未命中
type Cache interface {
	GetAvailable(ctx context.Context) []*book.Book
	SetAvailable(ctx context.Context, books []*book.Book)
	InvalidateAvailable(ctx context.Context)

	GetBorrowed(ctx context.Context, userID uint) []*book.Book
	SetBorrowed(ctx context.Context, userID uint, books []*book.Book)
	InvalidateBorrowed(ctx context.Context, userID uint)

	GetDetail(ctx context.Context, bookID uint) *book.Book
	SetDetail(ctx context.Context, b *book.Book)
	InvalidateDetail(ctx context.Context, bookID uint)

	AddBorrowedSet(ctx context.Context, bookID uint)
	RemoveBorrowedSet(ctx context.Context, bookID uint)
	IsBorrowed(ctx context.Context, bookID uint) bool
	SetBorrowedSet(ctx context.Context, bookIDs []uint)

	InvalidateAll(ctx context.Context)
}

// TxManager 事务接口
// mysql.TxManager是生产实现,测试中用直通的fake替代
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher 借阅事件发布接口
// pkg/mq.Publisher是生产实现;事件发布失败不影响借还结果
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

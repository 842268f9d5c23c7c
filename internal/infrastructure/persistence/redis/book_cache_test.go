package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/infrastructure/config"
	"github.com/xiebiao/booklend/pkg/logger"
	"github.com/xiebiao/booklend/pkg/metrics"
)

// newUnreachableCache 指向一个必然连接失败的地址
// 验证缓存层在Redis不可用时的静默降级行为
func newUnreachableCache(t *testing.T) *BookCache {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
		MaxRetries:  -1, // 关闭重试,加快测试
	})
	return NewBookCache(client, logger.NewNop(), metrics.New(), config.CacheConfig{
		KeyPrefix:      "test:books",
		AvailableTTL:   5 * time.Minute,
		BorrowedTTL:    10 * time.Minute,
		DetailTTL:      30 * time.Minute,
		BorrowedSetTTL: 10 * time.Minute,
	})
}

func TestBookCache_DegradesWhenRedisUnreachable(t *testing.T) {
	cache := newUnreachableCache(t)
	ctx := context.Background()

	t.Run("读操作返回未命中", func(t *testing.T) {
		assert.Nil(t, cache.GetAvailable(ctx))
		assert.Nil(t, cache.GetBorrowed(ctx, 1))
		assert.Nil(t, cache.GetDetail(ctx, 1))
	})

	t.Run("借阅集合fail-open返回false", func(t *testing.T) {
		assert.False(t, cache.IsBorrowed(ctx, 1))
	})

	t.Run("写操作静默吞掉错误", func(t *testing.T) {
		// 任何一个panic或返回错误都意味着降级失效
		cache.SetAvailable(ctx, []*book.Book{{ID: 1, Title: "Go程序设计"}})
		cache.SetBorrowed(ctx, 1, []*book.Book{{ID: 1}})
		cache.SetDetail(ctx, &book.Book{ID: 1})
		cache.AddBorrowedSet(ctx, 1)
		cache.RemoveBorrowedSet(ctx, 1)
		cache.SetBorrowedSet(ctx, []uint{1, 2})
		cache.InvalidateAvailable(ctx)
		cache.InvalidateBorrowed(ctx, 1)
		cache.InvalidateDetail(ctx, 1)
		cache.InvalidateAll(ctx)
	})
}

func TestBookCache_KeyScheme(t *testing.T) {
	cache := newUnreachableCache(t)

	assert.Equal(t, "test:books:available", cache.availableKey())
	assert.Equal(t, "test:books:borrowed:42", cache.borrowedKey(42))
	assert.Equal(t, "test:books:detail:7", cache.detailKey(7))
	assert.Equal(t, "test:books:borrowed-set", cache.borrowedSetKey())
}

func TestBookCache_EmptyListNotCached(t *testing.T) {
	cache := newUnreachableCache(t)

	// 空列表直接跳过写入,不应触发任何Redis调用
	before := cache.cb.Counts().Requests
	cache.SetAvailable(context.Background(), nil)
	cache.SetBorrowed(context.Background(), 1, []*book.Book{})
	assert.Equal(t, before, cache.cb.Counts().Requests)
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/infrastructure/config"
	"github.com/xiebiao/booklend/pkg/circuitbreaker"
	"github.com/xiebiao/booklend/pkg/metrics"
)

// BookCache 图书多视图缓存
// 设计说明：
// 1. Key设计（冒号分隔命名空间）：
//    - {prefix}:available          可借图书列表（JSON数组）
//    - {prefix}:borrowed:{userId}  某用户借阅列表（JSON数组）
//    - {prefix}:detail:{bookId}    单本图书详情（JSON对象）
//    - {prefix}:borrowed-set       被借图书ID集合（Redis Set）
// 2. 所有操作经过熔断器,Redis故障时直接降级走数据库,不影响主流程
// 3. 读操作失败视为缓存未命中,写操作失败仅记录日志,均不向调用方返回错误
// 4. 空列表不写入缓存,避免用TTL锁死"无数据"的误判
type BookCache struct {
	client  *redis.Client
	cb      *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *metrics.Metrics
	cfg     config.CacheConfig
}

// NewBookCache 创建图书缓存
func NewBookCache(client *redis.Client, logger *zap.Logger, m *metrics.Metrics, cfg config.CacheConfig) *BookCache {
	cb := circuitbreaker.NewCircuitBreaker("book-cache", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	})
	return &BookCache{
		client:  client,
		cb:      cb,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
	}
}

// =========================================
// Key构造
// =========================================

func (c *BookCache) availableKey() string {
	return c.cfg.KeyPrefix + ":available"
}

func (c *BookCache) borrowedKey(userID uint) string {
	return fmt.Sprintf("%s:borrowed:%d", c.cfg.KeyPrefix, userID)
}

func (c *BookCache) detailKey(bookID uint) string {
	return fmt.Sprintf("%s:detail:%d", c.cfg.KeyPrefix, bookID)
}

func (c *BookCache) borrowedSetKey() string {
	return c.cfg.KeyPrefix + ":borrowed-set"
}

// =========================================
// 可借图书列表
// =========================================

// GetAvailable 读取可借图书列表,未命中或缓存故障返回nil
func (c *BookCache) GetAvailable(ctx context.Context) []*book.Book {
	return c.getBookList(ctx, c.availableKey(), "available")
}

// SetAvailable 写入可借图书列表
func (c *BookCache) SetAvailable(ctx context.Context, books []*book.Book) {
	c.setBookList(ctx, c.availableKey(), books, c.cfg.AvailableTTL, "available")
}

// InvalidateAvailable 失效可借图书列表
func (c *BookCache) InvalidateAvailable(ctx context.Context) {
	c.del(ctx, c.availableKey())
}

// =========================================
// 用户借阅列表
// =========================================

// GetBorrowed 读取某用户的借阅列表,未命中或缓存故障返回nil
func (c *BookCache) GetBorrowed(ctx context.Context, userID uint) []*book.Book {
	return c.getBookList(ctx, c.borrowedKey(userID), "borrowed")
}

// SetBorrowed 写入某用户的借阅列表
func (c *BookCache) SetBorrowed(ctx context.Context, userID uint, books []*book.Book) {
	c.setBookList(ctx, c.borrowedKey(userID), books, c.cfg.BorrowedTTL, "borrowed")
}

// InvalidateBorrowed 失效某用户的借阅列表
func (c *BookCache) InvalidateBorrowed(ctx context.Context, userID uint) {
	c.del(ctx, c.borrowedKey(userID))
}

// =========================================
// 图书详情
// =========================================

// GetDetail 读取图书详情,未命中或缓存故障返回nil
func (c *BookCache) GetDetail(ctx context.Context, bookID uint) *book.Book {
	key := c.detailKey(bookID)

	var data string
	err := c.cb.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, key).Result()
		return err
	})
	if err != nil {
		if err == redis.Nil {
			c.metrics.CacheMiss("detail")
			return nil
		}
		c.cacheError("get", key, err)
		return nil
	}

	var b book.Book
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		c.cacheError("unmarshal", key, err)
		return nil
	}

	c.metrics.CacheHit("detail")
	return &b
}

// SetDetail 写入图书详情
func (c *BookCache) SetDetail(ctx context.Context, b *book.Book) {
	if b == nil {
		return
	}
	key := c.detailKey(b.ID)

	data, err := json.Marshal(b)
	if err != nil {
		c.cacheError("marshal", key, err)
		return
	}

	err = c.cb.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.DetailTTL).Err()
	})
	if err != nil {
		c.cacheError("set", key, err)
	}
}

// InvalidateDetail 失效图书详情
func (c *BookCache) InvalidateDetail(ctx context.Context, bookID uint) {
	c.del(ctx, c.detailKey(bookID))
}

// =========================================
// 被借图书集合
// =========================================

// AddBorrowedSet 将图书ID加入被借集合
func (c *BookCache) AddBorrowedSet(ctx context.Context, bookID uint) {
	key := c.borrowedSetKey()
	err := c.cb.Execute(func() error {
		pipe := c.client.TxPipeline()
		pipe.SAdd(ctx, key, strconv.FormatUint(uint64(bookID), 10))
		pipe.Expire(ctx, key, c.cfg.BorrowedSetTTL)
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		c.cacheError("sadd", key, err)
	}
}

// RemoveBorrowedSet 将图书ID移出被借集合
func (c *BookCache) RemoveBorrowedSet(ctx context.Context, bookID uint) {
	key := c.borrowedSetKey()
	err := c.cb.Execute(func() error {
		return c.client.SRem(ctx, key, strconv.FormatUint(uint64(bookID), 10)).Err()
	})
	if err != nil {
		c.cacheError("srem", key, err)
	}
}

// IsBorrowed 检查图书是否在被借集合中
// 缓存故障时返回false(fail-open),借阅判定以数据库条件UPDATE为准
func (c *BookCache) IsBorrowed(ctx context.Context, bookID uint) bool {
	key := c.borrowedSetKey()

	var member bool
	err := c.cb.Execute(func() error {
		var err error
		member, err = c.client.SIsMember(ctx, key, strconv.FormatUint(uint64(bookID), 10)).Result()
		return err
	})
	if err != nil {
		c.cacheError("sismember", key, err)
		return false
	}
	return member
}

// SetBorrowedSet 整体重建被借集合(预热/全量刷新用)
func (c *BookCache) SetBorrowedSet(ctx context.Context, bookIDs []uint) {
	key := c.borrowedSetKey()
	if len(bookIDs) == 0 {
		c.del(ctx, key)
		return
	}

	members := make([]interface{}, len(bookIDs))
	for i, id := range bookIDs {
		members[i] = strconv.FormatUint(uint64(id), 10)
	}

	err := c.cb.Execute(func() error {
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, c.cfg.BorrowedSetTTL)
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		c.cacheError("rebuild-set", key, err)
	}
}

// =========================================
// 全量失效
// =========================================

// InvalidateAll 失效本前缀下的全部缓存Key
// 使用SCAN而非KEYS,避免大键空间下阻塞Redis
func (c *BookCache) InvalidateAll(ctx context.Context) {
	pattern := c.cfg.KeyPrefix + ":*"

	err := c.cb.Execute(func() error {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
			// 分批删除,控制单次DEL的键数量
			if len(keys) >= 100 {
				if err := c.client.Del(ctx, keys...).Err(); err != nil {
					return err
				}
				keys = keys[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			return c.client.Del(ctx, keys...).Err()
		}
		return nil
	})
	if err != nil {
		c.cacheError("invalidate-all", pattern, err)
		return
	}

	c.logger.Info("图书缓存已全量失效", zap.String("pattern", pattern))
}

// =========================================
// 内部辅助
// =========================================

func (c *BookCache) getBookList(ctx context.Context, key, view string) []*book.Book {
	var data string
	err := c.cb.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, key).Result()
		return err
	})
	if err != nil {
		if err == redis.Nil {
			c.metrics.CacheMiss(view)
			return nil
		}
		c.cacheError("get", key, err)
		return nil
	}

	var books []*book.Book
	if err := json.Unmarshal([]byte(data), &books); err != nil {
		c.cacheError("unmarshal", key, err)
		return nil
	}

	c.metrics.CacheHit(view)
	return books
}

func (c *BookCache) setBookList(ctx context.Context, key string, books []*book.Book, ttl time.Duration, view string) {
	// 空列表不缓存:TTL期间新数据无法透出
	if len(books) == 0 {
		return
	}

	data, err := json.Marshal(books)
	if err != nil {
		c.cacheError("marshal", key, err)
		return
	}

	err = c.cb.Execute(func() error {
		return c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		c.cacheError("set", key, err)
		return
	}

	c.logger.Debug("图书缓存已写入",
		zap.String("view", view),
		zap.String("key", key),
		zap.Int("count", len(books)),
		zap.Duration("ttl", ttl))
}

func (c *BookCache) del(ctx context.Context, key string) {
	err := c.cb.Execute(func() error {
		return c.client.Del(ctx, key).Err()
	})
	if err != nil {
		c.cacheError("del", key, err)
	}
}

// cacheError 统一的缓存故障处理:记录日志+指标,不向上传播
func (c *BookCache) cacheError(op, key string, err error) {
	c.metrics.CacheError(op)
	if err == circuitbreaker.ErrOpenState || err == circuitbreaker.ErrTooManyRequests {
		c.logger.Debug("缓存熔断中,跳过操作", zap.String("op", op), zap.String("key", key))
		return
	}
	c.logger.Warn("缓存操作失败,降级继续",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
}

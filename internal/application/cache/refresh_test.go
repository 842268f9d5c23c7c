package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/infrastructure/config"
	"github.com/xiebiao/booklend/pkg/logger"
)

func TestRefresher_FullRefresh(t *testing.T) {
	b1 := &book.Book{ID: 1, Title: "Go程序设计语言", IsAvailable: true}
	books := &fakeBookSource{all: []*book.Book{b1}, available: []*book.Book{b1}}
	cache := newMemCache()
	warmer := NewWarmer(books, &fakeLoanSource{}, cache, logger.NewNop())

	r := NewRefresher(warmer, cache, config.CacheConfig{
		RefreshEnabled:  true,
		RefreshInterval: 10 * time.Millisecond,
		CleanupInterval: time.Hour,
	}, logger.NewNop())

	// 预埋一条脏数据,全量刷新后应被重建覆盖
	cache.SetDetail(context.Background(), &book.Book{ID: 9, Title: "脏数据"})

	r.Start()
	defer r.Stop()

	require.Eventually(t, func() bool {
		return cache.invalidated >= 1 && len(cache.details) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Nil(t, cache.details[9])
	assert.NotNil(t, cache.details[1])
}

func TestRefresher_Disabled(t *testing.T) {
	cache := newMemCache()
	warmer := NewWarmer(&fakeBookSource{}, &fakeLoanSource{}, cache, logger.NewNop())

	r := NewRefresher(warmer, cache, config.CacheConfig{
		RefreshEnabled:  false,
		RefreshInterval: time.Millisecond,
		CleanupInterval: time.Millisecond,
	}, logger.NewNop())

	r.Start()
	time.Sleep(20 * time.Millisecond)
	r.Stop()

	assert.Zero(t, cache.invalidated)
}

func TestRefresher_StopIsIdempotent(t *testing.T) {
	cache := newMemCache()
	warmer := NewWarmer(&fakeBookSource{}, &fakeLoanSource{}, cache, logger.NewNop())

	r := NewRefresher(warmer, cache, config.CacheConfig{
		RefreshEnabled:  true,
		RefreshInterval: time.Hour,
		CleanupInterval: time.Hour,
	}, logger.NewNop())

	r.Start()
	r.Stop()
	r.Stop() // 重复Stop不应panic
}

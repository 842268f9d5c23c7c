package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appbook "github.com/xiebiao/booklend/internal/application/book"
	"github.com/xiebiao/booklend/internal/infrastructure/config"
)

// Refresher 缓存定时刷新器
// 设计说明:
// 1. 全量刷新周期(默认30分钟):先全量失效再重新预热,兜底清理
//    增量同步遗漏的脏数据
// 2. 巡检周期(默认60分钟):目前只记录一条日志,所有缓存Key都带TTL,
//    过期由Redis自动清理,无需手动删除
// 3. refresh_enabled=false时整个刷新器不启动
type Refresher struct {
	warmer *Warmer
	cache  appbook.Cache
	cfg    config.CacheConfig
	logger *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRefresher 创建缓存刷新器
func NewRefresher(warmer *Warmer, cache appbook.Cache, cfg config.CacheConfig, logger *zap.Logger) *Refresher {
	return &Refresher{
		warmer: warmer,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start 启动后台刷新循环
func (r *Refresher) Start() {
	if !r.cfg.RefreshEnabled {
		r.logger.Info("缓存定时刷新未启用")
		return
	}

	r.wg.Add(1)
	go r.loop()

	r.logger.Info("缓存定时刷新已启动",
		zap.Duration("refresh_interval", r.cfg.RefreshInterval),
		zap.Duration("cleanup_interval", r.cfg.CleanupInterval))
}

// Stop 停止刷新循环并等待退出
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}

func (r *Refresher) loop() {
	defer r.wg.Done()

	refreshTicker := time.NewTicker(r.cfg.RefreshInterval)
	defer refreshTicker.Stop()

	cleanupTicker := time.NewTicker(r.cfg.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-refreshTicker.C:
			r.refreshAll()
		case <-cleanupTicker.C:
			r.logger.Debug("缓存巡检:Key均带TTL,过期由Redis自动清理")
		case <-r.stopCh:
			return
		}
	}
}

// refreshAll 全量失效后重新预热
func (r *Refresher) refreshAll() {
	ctx := context.Background()

	r.logger.Info("开始全量刷新图书缓存")
	r.cache.InvalidateAll(ctx)
	r.warmer.Run(ctx)
}

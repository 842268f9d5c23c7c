//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
// 运行 `wire gen ./cmd/api` 生成wire_gen.go

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/booklend/internal/application/book"
	appcache "github.com/xiebiao/booklend/internal/application/cache"
	appuser "github.com/xiebiao/booklend/internal/application/user"
	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/domain/user"
	"github.com/xiebiao/booklend/internal/infrastructure/config"
	"github.com/xiebiao/booklend/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/booklend/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/booklend/internal/interface/http/handler"
	"github.com/xiebiao/booklend/internal/interface/http/middleware"
	"github.com/xiebiao/booklend/pkg/jwt"
	"github.com/xiebiao/booklend/pkg/logger"
	"github.com/xiebiao/booklend/pkg/metrics"
	"github.com/xiebiao/booklend/pkg/mq"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,
	mysql.NewDB,
	redis.NewClient,
	provideLogger,
	metrics.New,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewLoanRepository,
	mysql.NewTxManager,
	wire.Bind(new(appbook.TxManager), new(*mysql.TxManager)),
)

// cacheSet 缓存层依赖
var cacheSet = wire.NewSet(
	provideBookCache,
	wire.Bind(new(appbook.Cache), new(*redis.BookCache)),
	provideSessionStore,
	wire.Bind(new(middleware.TokenRegistry), new(*redis.SessionStore)),
	appcache.NewWarmer,
	provideRefresher,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	user.NewService,
	book.NewService,
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	appbook.NewCacheSynchronizer,
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewProfileUseCase,
	appuser.NewChangePasswordUseCase,
	appbook.NewRegisterBookUseCase,
	appbook.NewBorrowBookUseCase,
	appbook.NewReturnBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewListBorrowedUseCase,
	providePublisher,
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewBookHandler,
)

// provideLogger 从配置创建zap日志
func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
}

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideSessionStore 从Redis客户端创建Session存储
func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

// provideBookCache 从配置创建图书缓存
func provideBookCache(client *goredis.Client, log *zap.Logger, m *metrics.Metrics, cfg *config.Config) *redis.BookCache {
	return redis.NewBookCache(client, log, m, cfg.Cache)
}

// provideRefresher 从配置创建缓存刷新器
func provideRefresher(warmer *appcache.Warmer, cache appbook.Cache, cfg *config.Config, log *zap.Logger) *appcache.Refresher {
	return appcache.NewRefresher(warmer, cache, cfg.Cache, log)
}

// providePublisher 按配置创建借阅事件发布者
// 未启用MQ时返回nil接口,用例内部会跳过事件发布
func providePublisher(cfg *config.Config) (appbook.EventPublisher, error) {
	if !cfg.MQ.Enabled {
		return nil, nil
	}
	return mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
}

// provideGinEngine 创建并配置Gin引擎
func provideGinEngine(
	cfg *config.Config,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.Metrics(m))
	registerRoutes(r, userHandler, bookHandler, authMiddleware, m)
	return r
}

// InitializeApp 初始化整个应用
// Wire会在wire_gen.go中生成实际的初始化代码
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		cacheSet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		provideGinEngine,
	)

	return nil, nil
}

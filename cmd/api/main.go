package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

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
	"github.com/xiebiao/booklend/pkg/response"
)

// main 主程序入口
// 说明：手动依赖注入（wire.go提供Wire版本，运行wire gen生成）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())
	fmt.Printf("  - 缓存前缀: %s\n", cfg.Cache.KeyPrefix)

	// 2. 初始化日志
	zapLogger, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	// 3. 初始化数据库与Redis连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 4. 依赖注入（手动组装）
	// Repository ← Service ← UseCase ← Handler

	// 基础设施层
	m := metrics.New()
	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	loanRepo := mysql.NewLoanRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	bookCache := redis.NewBookCache(redisClient, zapLogger, m, cfg.Cache)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// 借阅事件发布（可选，未启用时保持nil接口）
	var publisher appbook.EventPublisher
	if cfg.MQ.Enabled {
		p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			log.Fatalf("初始化消息队列失败: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	// 领域层
	userService := user.NewService(userRepo)
	bookService := book.NewService(bookRepo)

	// 应用层
	cacheSync := appbook.NewCacheSynchronizer(bookCache, bookRepo, zapLogger)
	registerUseCase := appuser.NewRegisterUseCase(userService)
	loginUseCase := appuser.NewLoginUseCase(userService, jwtManager, sessionStore, zapLogger)
	logoutUseCase := appuser.NewLogoutUseCase(sessionStore)
	profileUseCase := appuser.NewProfileUseCase(userRepo)
	changePasswordUseCase := appuser.NewChangePasswordUseCase(userService)
	registerBookUseCase := appbook.NewRegisterBookUseCase(bookService, zapLogger)
	borrowUseCase := appbook.NewBorrowBookUseCase(bookRepo, loanRepo, userRepo, txManager, cacheSync, publisher, m, zapLogger)
	returnUseCase := appbook.NewReturnBookUseCase(bookRepo, loanRepo, userRepo, txManager, cacheSync, publisher, m, zapLogger)
	listUseCase := appbook.NewListBooksUseCase(bookRepo, bookCache, zapLogger)
	borrowedUseCase := appbook.NewListBorrowedUseCase(bookRepo, loanRepo, bookCache, zapLogger)

	// 缓存预热与定时刷新
	warmer := appcache.NewWarmer(bookRepo, loanRepo, bookCache, zapLogger)
	refresher := appcache.NewRefresher(warmer, bookCache, cfg.Cache, zapLogger)

	// 接口层
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase, profileUseCase, changePasswordUseCase)
	bookHandler := handler.NewBookHandler(registerBookUseCase, borrowUseCase, returnUseCase, listUseCase, borrowedUseCase)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 5. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.Metrics(m))

	// 6. 注册路由
	registerRoutes(r, userHandler, bookHandler, authMiddleware, m)

	// 7. 启动后异步预热缓存,失败不阻塞服务
	go func() {
		zapLogger.Info("开始缓存预热")
		warmer.Run(context.Background())
	}()

	// 8. 启动缓存定时刷新
	refresher.Start()
	defer refresher.Stop()

	// 9. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   API文档: http://localhost%s/swagger/index.html\n", addr)
	fmt.Printf("   可借图书: GET http://localhost%s/api/v1/books/available\n", addr)
	fmt.Printf("   借书: POST http://localhost%s/api/v1/books/borrow (需要登录)\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// Swagger文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 用户模块
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/logout", authMiddleware.RequireAuth(), userHandler.Logout)
			users.GET("/profile", authMiddleware.RequireAuth(), userHandler.Profile)
			users.PUT("/password", authMiddleware.RequireAuth(), userHandler.ChangePassword)
		}

		// 图书模块
		books := v1.Group("/books")
		{
			// 公开接口
			books.GET("", bookHandler.ListAll)
			books.GET("/available", bookHandler.ListAvailable)
			books.GET("/:id", bookHandler.GetBook)

			// 需要登录
			books.POST("", authMiddleware.RequireAuth(), bookHandler.RegisterBook)
			books.POST("/borrow", authMiddleware.RequireAuth(), bookHandler.BorrowBook)
			books.POST("/return", authMiddleware.RequireAuth(), bookHandler.ReturnBook)
			books.GET("/borrowed", authMiddleware.RequireAuth(), bookHandler.ListBorrowed)
		}
	}
}

package main

import (
	"context"
	"database/sql"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"donation-backend/config"
	"donation-backend/internal/api/admin"
	"donation-backend/internal/api/campaign"
	"donation-backend/internal/api/donation"
	"donation-backend/internal/api/user"
	"donation-backend/internal/common"
	"donation-backend/internal/draft"
	"donation-backend/internal/metrics"
	"donation-backend/internal/middleware"
	"donation-backend/internal/notification"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/repository/memory"
	"donation-backend/internal/repository/mysql"
	"donation-backend/internal/service"
	"donation-backend/internal/storage"
	"donation-backend/internal/task"
	"donation-backend/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// repositories 一组存储实现及其事务入口
type repositories struct {
	campaigns  interfaces.CampaignRepository
	donations  interfaces.DonationRepository
	receipts   interfaces.ReceiptRepository
	users      interfaces.UserRepository
	drafts     interfaces.DraftRepository
	transactor interfaces.Transactor
	close      func() error
}

func main() {
	// 在 main 函数开始处添加
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	util.InitLogger(cfg.LogLevel, cfg.LogFile)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	ctx := context.Background()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		util.Logger.Fatal("初始化存储失败", zap.Error(err))
	}
	defer repos.close()

	// 注册自定义验证器
	util.RegisterBindingValidations()

	docStore, err := storage.New(ctx, storage.Options{
		Backend:            cfg.StorageBackend,
		LocalPath:          cfg.LocalStoragePath,
		PublicBaseURL:      cfg.PublicBaseURL,
		S3Region:           cfg.S3Region,
		S3Bucket:           cfg.S3Bucket,
		GCSBucketName:      cfg.GCSBucketName,
		GCSCredentialsFile: cfg.GCSCredentialsFile,
	})
	if err != nil {
		util.Logger.Fatal("初始化文件存储失败", zap.Error(err))
	}
	if closer, ok := docStore.(io.Closer); ok {
		defer closer.Close()
	}

	var sender notification.Sender = notification.LogSender{}
	if cfg.SMTPEnabled() {
		sender = notification.NewEmailSender(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Domain:   senderDomain(cfg.SMTPUsername),
		})
	} else {
		util.Logger.Warn("未配置SMTP，通知仅写入日志")
	}
	dispatcher, err := notification.NewDispatcher(sender, cfg.NotifyWorkers)
	if err != nil {
		util.Logger.Fatal("创建通知协程池失败", zap.Error(err))
	}

	// 初始化服务
	userService := service.NewUserService(repos.users, cfg.JWTSecret, cfg.AdminEmailList())
	campaignService := service.NewCampaignService(repos.campaigns, nil)
	moderationService := service.NewModerationService(campaignService)
	receiptService := service.NewReceiptService(repos.receipts, repos.transactor, docStore, dispatcher, cfg.TransactionFeePercent)
	donationService := service.NewDonationService(repos.donations, repos.campaigns, repos.users, repos.transactor, receiptService, dispatcher)
	drafts := draft.NewManager(repos.drafts, campaignService, cfg.DraftAutosaveInterval, cfg.DraftSessionTTL)

	// 启动定时任务
	tasks, err := task.NewManager()
	if err != nil {
		util.Logger.Fatal("创建任务管理器失败", zap.Error(err))
	}
	// 只写日志时没有可补发的通道
	if cfg.SMTPEnabled() {
		if err := tasks.Register(task.NewReceiptEmailJob(receiptService, cfg.EmailRetryInterval)); err != nil {
			util.Logger.Fatal("注册收据补发任务失败", zap.Error(err))
		}
	}
	if err := tasks.Register(task.NewDraftSweepJob(drafts, sweepInterval(cfg.DraftSessionTTL))); err != nil {
		util.Logger.Fatal("注册草稿清理任务失败", zap.Error(err))
	}
	tasks.Start()

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	authHandler := user.NewAuthHandler(userService)
	profileHandler := user.NewProfileHandler(userService)
	campaignHandler := campaign.NewCampaignHandler(campaignService)
	draftHandler := campaign.NewDraftHandler(drafts)
	donationHandler := donation.NewDonationHandler(donationService, receiptService, cfg.CallbackSecret)
	adminHandler := admin.NewAdminHandler(moderationService, campaignService, receiptService, userService, errorMonitor)

	// 设置 Gin 路由
	r := gin.New()

	// 添加中间件
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		middleware.RequestIDHeader,
		donation.CallbackSecretHeader,
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		middleware.RequestIDHeader,
	}
	r.Use(cors.New(corsConfig))

	// 本地存储时直接提供收据文档
	if cfg.StorageBackend == "local" {
		r.Static("/uploads", cfg.LocalStoragePath)
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 用户相关路由
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.GET("/profile", auth, profileHandler.GetProfile)

		// 募捐活动
		api.GET("/campaigns", campaignHandler.ListCampaigns)
		api.GET("/campaigns/:id", campaignHandler.GetCampaign)
		api.POST("/campaigns", auth, campaignHandler.CreateCampaign)

		// 活动草稿向导
		draftRoutes := api.Group("/campaign-drafts", auth)
		{
			draftRoutes.GET("", draftHandler.GetDraft)
			draftRoutes.PATCH("/steps/:step", draftHandler.SaveStep)
			draftRoutes.POST("/submit", draftHandler.Submit)
			draftRoutes.DELETE("", draftHandler.Discard)
		}

		// 捐款与收据
		api.POST("/campaigns/:id/donations", auth, donationHandler.CreateDonation)
		api.GET("/donations", auth, donationHandler.ListDonations)
		api.GET("/donations/:id/receipt", auth, donationHandler.GetReceipt)

		// 支付回调，使用共享密钥而不是用户令牌
		api.POST("/payments/callback", donationHandler.PaymentCallback)

		// 管理员路由组
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(auth, middleware.AdminMiddleware(userService))
		{
			campaignAdmin := adminRoutes.Group("/campaigns")
			{
				campaignAdmin.POST("/:id/approve", adminHandler.ApproveCampaign) // 审核通过
				campaignAdmin.POST("/:id/reject", adminHandler.RejectCampaign)   // 审核拒绝
				campaignAdmin.POST("/:id/archive", adminHandler.ArchiveCampaign) // 归档
				campaignAdmin.POST("/:id/raised", adminHandler.IncrementRaised)  // 手工调整筹款额
			}

			adminRoutes.POST("/receipts/:id/tax-certificate", adminHandler.AttachTaxCertificate)
			adminRoutes.PUT("/users/:id/role", adminHandler.UpdateUserRole)

			// 系统管理
			adminRoutes.GET("/stats", adminHandler.GetSystemStats)
		}
	}

	if cfg.Debug {
		for _, route := range r.Routes() {
			util.Logger.Debug("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}

	// 创建一个带有超时的 http.Server
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
	}

	tasks.Stop()
	drafts.Close()
	if err := dispatcher.Close(10 * time.Second); err != nil {
		util.Logger.Warn("通知任务未在超时内结束", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// openRepositories 按 DB_DRIVER 选择 MySQL 或进程内存储
func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.DBDriver == "memory" {
		util.Logger.Warn("使用内存存储，进程退出后数据丢失")
		store := memory.NewStore()
		return &repositories{
			campaigns:  store.Campaigns(),
			donations:  store.Donations(),
			receipts:   store.Receipts(),
			users:      store.Users(),
			drafts:     store.Drafts(),
			transactor: store,
			close:      func() error { return nil },
		}, nil
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}

	// 数据库可能晚于应用启动
	pingCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	err = common.WithRetry(pingCtx, db.PingContext, 5, 2*time.Second, func(error) bool { return true })
	if err != nil {
		db.Close()
		return nil, err
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := mysql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &repositories{
		campaigns:  mysql.NewCampaignRepository(db),
		donations:  mysql.NewDonationRepository(db),
		receipts:   mysql.NewReceiptRepository(db),
		users:      mysql.NewUserRepository(db),
		drafts:     mysql.NewDraftRepository(db),
		transactor: mysql.NewTransactor(db),
		close:      db.Close,
	}, nil
}

// sweepInterval 清理间隔取会话有效期的四分之一，至少一分钟
func sweepInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 4; interval > time.Minute {
		return interval
	}
	return time.Minute
}

func senderDomain(username string) string {
	if i := strings.LastIndex(username, "@"); i >= 0 {
		return username[i+1:]
	}
	return "localhost"
}

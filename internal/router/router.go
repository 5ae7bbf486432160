package router

import (
	"log/slog"
	"net/http"
	"time"

	"Community_Portal/internal/handler"
	"Community_Portal/internal/middleware"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	Services    *service.Services
	Auth        *middleware.Authenticator
	Metrics     *pkg.Metrics
	UploadDir   string
	CORSOrigins []string
	Log         *slog.Logger
}

func InitRouter(opt Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opt.Log))
	r.MaxMultipartMemory = 8 << 20

	if len(opt.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opt.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	account := handler.NewAccountHandler(opt.Services, opt.Log)
	admin := handler.NewAdminHandler(opt.Services, opt.Log)
	event := handler.NewEventHandler(opt.Services, opt.Log)
	report := handler.NewReportHandler(opt.Services, opt.Log)
	notice := handler.NewNoticeHandler(opt.Services, opt.Log)
	auth := opt.Auth.AuthMiddleware()

	r.GET("/metrics", gin.WrapH(opt.Metrics.Handler()))
	if opt.UploadDir != "" {
		r.Static("/uploads", opt.UploadDir)
	}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"msg": "ok"}) })
		api.GET("/home", account.Landing)
	}

	// 用户相关接口
	userGroup := api.Group("/user")
	{
		userGroup.POST("/register", account.Register)
		userGroup.POST("/login", account.Login)
	}

	// token相关接口
	tokenGroup := api.Group("/token")
	{
		tokenGroup.POST("/refresh", account.TokenRefresh)
	}

	// 登录态接口，待审批账号只能访问 pending 和 logout
	authGroup := api.Group("/auth", auth)
	{
		authGroup.POST("/logout", account.Logout)
		authGroup.GET("/pending", account.Pending)
		authGroup.GET("/dashboard", account.Dashboard)
		authGroup.GET("/profile", account.Profile)
		authGroup.PUT("/profile", account.UpdateProfile)
		authGroup.GET("/notifications", account.Notifications)
		authGroup.POST("/change-password", account.ChangePassword)
		authGroup.DELETE("/account", account.DeleteAccount)
	}

	// 活动相关接口
	eventGroup := api.Group("/events", auth)
	{
		eventGroup.GET("", event.List)
		eventGroup.POST("", event.Create)
		eventGroup.GET("/:id", event.Detail)
		eventGroup.POST("/:id/join", event.Join)
		eventGroup.POST("/:id/leave", event.Leave)
		eventGroup.DELETE("/:id", event.Delete)
	}

	// 报告相关接口
	reportGroup := api.Group("/reports", auth)
	{
		reportGroup.GET("", report.List)
		reportGroup.POST("", report.Create)
		reportGroup.GET("/:id", report.Detail)
		reportGroup.POST("/:id/comments", report.Comment)
		reportGroup.POST("/:id/resolve", report.Resolve)
		reportGroup.DELETE("/:id", report.Delete)
	}

	// 公告板
	noticeGroup := api.Group("/notices", auth)
	{
		noticeGroup.GET("", notice.List)
		noticeGroup.POST("", notice.Post)
	}

	// 管理员接口，权限由授权策略判定
	adminGroup := api.Group("/admin", auth)
	{
		adminGroup.GET("/dashboard", admin.Dashboard)
		adminGroup.POST("/users/:id/approve", admin.Approve)
		adminGroup.POST("/users/:id/reject", admin.Reject)
		adminGroup.POST("/bulk/approve", admin.BulkApprove)
		adminGroup.POST("/bulk/reject", admin.BulkReject)
	}

	return r
}

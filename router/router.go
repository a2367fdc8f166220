package router

import (
	"time"

	"budgetbuddy/api"
	"budgetbuddy/authgate"
	"budgetbuddy/config"
	_ "budgetbuddy/docs"
	"budgetbuddy/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// 门禁策略来自配置
	gate := authgate.New(authgate.Policy{
		PIN:           cfg.Auth.PIN,
		PINHash:       cfg.Auth.PINHash,
		AllowedEmails: cfg.Auth.AllowedEmails,
	})

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		authHandler := api.NewAuthHandler(cfg, gate)
		expenseHandler := api.NewExpenseHandler()

		// 认证相关路由（无需登录）
		auth := v1.Group("/auth")
		{
			auth.GET("/google/config", authHandler.GetGoogleConfig)
			auth.GET("/google/callback", authHandler.GoogleCallback)

			// PIN 提交：仅接受待验证 token，按 IP 限流防暴力猜解
			auth.POST("/pin",
				middleware.LoginRateLimit(10, time.Minute),
				middleware.PinAuth(),
				authHandler.SubmitPin)
		}

		// 消费类别和支付方式（无需登录）
		v1.GET("/categories", expenseHandler.GetCategories)
		v1.GET("/payment-methods", expenseHandler.GetPaymentMethods)

		// 需要完整会话的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.POST("/auth/logout", authHandler.Logout)

			// 消费记录相关
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 统计相关
			dashboardHandler := api.NewDashboardHandler()
			analyticsHandler := api.NewAnalyticsHandler()
			authorized.GET("/dashboard", dashboardHandler.GetDashboard)
			authorized.GET("/analytics", analyticsHandler.GetAnalytics)
			authorized.GET("/years", dashboardHandler.GetAvailableYears)

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

package router

import (
	"time"

	"ledger/api"
	"ledger/config"
	_ "ledger/docs"
	"ledger/middleware"
	"ledger/models"

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

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录），登录和密码重置带限流
		authHandler := api.NewAuthHandler(cfg)
		passwordResetHandler := api.NewPasswordResetHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(5, time.Minute), authHandler.Login)

			// 密码重置
			auth.POST("/password/request-reset", middleware.LoginRateLimit(3, time.Minute), passwordResetHandler.RequestReset)
			auth.GET("/password/verify-token", passwordResetHandler.VerifyToken)
			auth.POST("/password/reset", passwordResetHandler.ResetPassword)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 任何登录用户可读
			canRead := authorized.Group("", middleware.RequireRole(models.RoleAdmin, models.RoleEditor, models.RoleViewer))
			// 管理员和编辑可写
			canWrite := authorized.Group("", middleware.RequireRole(models.RoleAdmin, models.RoleEditor))
			// 仅管理员可删除和管理
			adminOnly := authorized.Group("", middleware.RequireRole(models.RoleAdmin))

			// 用户自身
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			// 供应商相关
			supplierHandler := api.NewSupplierHandler()
			canRead.GET("/suppliers", supplierHandler.List)
			canRead.GET("/suppliers/:id", supplierHandler.Get)
			canRead.GET("/suppliers/:id/transactions", supplierHandler.GetTransactions)
			canRead.GET("/supplier-categories", supplierHandler.GetCategories)
			canWrite.POST("/suppliers", supplierHandler.Create)
			canWrite.PUT("/suppliers/:id", supplierHandler.Update)
			adminOnly.DELETE("/suppliers/:id", supplierHandler.Delete)

			// 交易流水相关
			transactionHandler := api.NewTransactionHandler()
			canRead.GET("/transactions", transactionHandler.List)
			canRead.GET("/transactions/:id", transactionHandler.Get)
			canWrite.POST("/transactions", transactionHandler.Create)
			adminOnly.DELETE("/transactions/:id", transactionHandler.Delete)

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := canRead.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
				export.GET("/pdf", exportHandler.ExportPDF)
			}

			// 用户管理（仅管理员）
			userHandler := api.NewUserHandler()
			adminOnly.GET("/users", userHandler.List)
			adminOnly.PUT("/users/:id/role", userHandler.UpdateRole)
			adminOnly.PUT("/users/:id/password", userHandler.ResetPassword)
			adminOnly.POST("/email/test", passwordResetHandler.SendTestEmail)

			// 云备份（仅管理员）
			backupHandler := api.NewBackupHandler()
			adminOnly.POST("/backups", backupHandler.Create)
			adminOnly.GET("/backups", backupHandler.List)
			adminOnly.GET("/backups/download", backupHandler.Download)
			adminOnly.DELETE("/backups", backupHandler.Delete)
			adminOnly.GET("/backups/status", backupHandler.Status)
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

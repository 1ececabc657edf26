package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"devfolio/internal/api/handler"
	"devfolio/internal/api/middleware"
	"devfolio/internal/pkg/config"
	"devfolio/internal/pkg/oauth"
	"devfolio/internal/repository"
	"devfolio/internal/service"
)

// Setup 设置路由
func Setup(cfg *config.Config, db *gorm.DB, mirror *service.MirrorService, logger *zap.Logger) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	repositoryRepo := repository.NewRepositoryRepository(db)

	// 初始化Service
	ldapService := service.NewLDAPService(&cfg.Auth.LDAP)
	authService := service.NewAuthService(&cfg.Auth, userRepo, ldapService)
	identityService := service.NewIdentityService(userRepo, mirror)
	repositoryService := service.NewRepositoryService(repositoryRepo)

	// OAuth提供方
	registry := oauth.NewRegistry(cfg.Auth.OAuth, cfg.Server.BaseURL)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	oauthHandler := handler.NewOAuthHandler(registry, identityService, authService, userRepo, logger)
	userHandler := handler.NewUserHandler(identityService)
	repositoryHandler := handler.NewRepositoryHandler(repositoryService, mirror)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证相关(无需token)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/signin", authHandler.Signin)
			authGroup.POST("/signout", authHandler.Signout)
			authGroup.POST("/refresh", authHandler.Refresh)

			// OAuth授权与回调
			authGroup.GET("/oauth/:provider", oauthHandler.Initiate)
			authGroup.GET("/oauth/:provider/callback", oauthHandler.Callback)
		}

		// 需要认证的路由
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware())
		{
			// 认证信息
			authed.GET("/auth/me", authHandler.GetMe)
			authed.GET("/auth/verify", authHandler.Verify)

			// 提供方绑定管理
			authed.DELETE("/users/providers", userHandler.RemoveProvider)

			// 代码库镜像
			authed.GET("/repositories", repositoryHandler.List)
			authed.POST("/repositories/sync", repositoryHandler.SyncNow)
		}
	}

	return r
}

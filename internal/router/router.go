package router

import (
	"github.com/gin-gonic/gin"

	"github.com/formlead/formlead/internal/handler"
	"github.com/formlead/formlead/internal/middleware"
	"github.com/formlead/formlead/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 内部流水线端点：存储事件、任务回调、监控扫描
	internal := r.Group("/internal", middleware.RequireInternalSecret(svc.Config.Auth.InternalSecret))
	{
		internal.POST("/rag/events", h.Pipeline.StorageEvent)
		internal.POST("/rag/import", h.Pipeline.ImportTask)
		internal.POST("/rag/monitor", h.Pipeline.MonitorSweep)
	}

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 小组件公开端点，按 X-API-Key 解析租户
		widget := v1.Group("", middleware.WidgetAPIKey(svc))
		{
			widget.POST("/forms/submit", h.Submission.Submit)
			widget.POST("/chat", h.Chat.Chat)
			widget.DELETE("/chat/sessions/:session_id", h.Chat.ClearSession)
		}

		// 租户管理，仅超级管理员
		admin := v1.Group("/tenants", middleware.RequireAuth(svc), middleware.RequireSuperuser())
		{
			admin.POST("", h.Tenant.Create)
			admin.GET("", h.Tenant.List)
			admin.PUT("/:tenant_id", h.Tenant.Update)
			admin.DELETE("/:tenant_id", h.Tenant.Delete)
			admin.POST("/:tenant_id/rag_corpus", h.Tenant.ProvisionCorpus)
		}

		// 租户作用域端点，路径租户必须与用户租户一致（超级管理员除外）
		tenantScope := v1.Group("/tenants/:tenant_id", middleware.RequireAuth(svc), middleware.RequireTenant())
		{
			tenantScope.GET("", h.Tenant.Get)

			ragFiles := tenantScope.Group("/rag_files")
			{
				ragFiles.POST("", h.RagFile.Upload)
				ragFiles.GET("", h.RagFile.List)
				ragFiles.GET("/:processing_id", h.RagFile.Get)
				ragFiles.GET("/:processing_id/status", h.RagFile.Get)
				ragFiles.DELETE("/:processing_id", h.RagFile.Delete)
			}

			subs := tenantScope.Group("/submissions")
			{
				subs.GET("", h.Submission.List)
				subs.GET("/:id", h.Submission.Get)
				subs.PATCH("/:id/status", h.Submission.UpdateStatus)
			}

			gaConfigs := tenantScope.Group("/ga_configurations")
			{
				gaConfigs.POST("", h.GAConfig.Create)
				gaConfigs.GET("", h.GAConfig.List)
				gaConfigs.GET("/:form_id", h.GAConfig.Get)
				gaConfigs.PUT("/:form_id", h.GAConfig.Update)
				gaConfigs.DELETE("/:form_id", h.GAConfig.Delete)
			}
		}
	}

	return r
}

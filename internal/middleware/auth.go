package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/formlead/formlead/internal/model"
	"github.com/formlead/formlead/internal/service"
	"github.com/gin-gonic/gin"
)

// RequireAuth 要求有效认证的中间件
// 必须提供有效的 JWT token，否则返回 401
func RequireAuth(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Missing Authorization header",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid Authorization header format",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := svc.Auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// RequireTenant 租户访问控制中间件
// 路径中的 :tenant_id 必须与当前用户的租户一致，超级管理员可访问任意租户
// 解析结果写入上下文 tenant_id，处理器一律从上下文取租户
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Missing authenticated user",
			})
			c.Abort()
			return
		}

		pathTenant := c.Param("tenant_id")
		if pathTenant == "" {
			pathTenant = user.TenantID
		}

		if !user.IsSuperuser() && pathTenant != user.TenantID {
			c.JSON(403, gin.H{
				"code":    -1,
				"message": "Access to this tenant is not allowed",
			})
			c.Abort()
			return
		}

		if pathTenant == "" {
			c.JSON(403, gin.H{
				"code":    -1,
				"message": "No tenant associated with user",
			})
			c.Abort()
			return
		}

		c.Set("tenant_id", pathTenant)
		c.Next()
	}
}

// RequireSuperuser 超级管理员中间件
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok || !user.IsSuperuser() {
			c.JSON(403, gin.H{
				"code":    -1,
				"message": "Superuser role required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireInternalSecret 内部端点共享密钥中间件
// 事件推送、任务回调与监控扫描只接受携带正确 X-Internal-Secret 的请求
func RequireInternalSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Internal-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.JSON(403, gin.H{
				"code":    -1,
				"message": "Forbidden",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// WidgetAPIKey 表单小组件 API Key 中间件
// 公开提交端点按 X-API-Key 解析租户
func WidgetAPIKey(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Missing X-API-Key header",
			})
			c.Abort()
			return
		}

		tenant, err := svc.Tenant.GetByAPIKey(apiKey)
		if err != nil {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid API key",
			})
			c.Abort()
			return
		}

		c.Set("tenant_id", tenant.TenantID)
		c.Next()
	}
}

// GetCurrentUser 从上下文获取当前用户
func GetCurrentUser(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetTenantID 从上下文获取当前租户ID
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get("tenant_id"); exists {
		if id, ok := tenantID.(string); ok {
			return id
		}
	}
	return ""
}

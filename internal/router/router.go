package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/handler"
)

// requestIDHeader 是请求标识的响应头名称
const requestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配唯一标识，便于日志关联
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	r.Use(RequestID())

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("habitlog_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", handler.Login)
		admin.POST("/logout", handler.Logout)

		// 需要认证的 API 路由
		authed := admin.Group("/api")
		authed.Use(handler.AuthRequired())
		{
			authed.GET("/habits", api.ListHabits)
			authed.POST("/habits", api.CreateHabit)
			authed.GET("/habits/:id", api.GetHabit)
			authed.PUT("/habits/:id", api.UpdateHabit)
			authed.POST("/habits/:id/archive", api.ArchiveHabit)

			authed.GET("/habits/:id/actions", api.ListActions)
			authed.POST("/habits/:id/actions/toggle", api.ToggleAction)

			authed.GET("/insights", api.GetInsights)
			authed.GET("/insights/heatmap", api.GetHeatmap)
			authed.GET("/insights/top-habits", api.GetTopHabits)
			authed.GET("/insights/top-days", api.GetTopDays)
			authed.GET("/insights/habits/:id/chart", api.GetHabitChart)
		}
	}

	return r
}

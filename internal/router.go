package internal

import (
	"face-attend/internal/handler"
	"face-attend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func setupRoutes(router *gin.Engine, h *handler.Handler) {
	apiGroup := router.Group("/api")

	{
		authMiddleware := middleware.NewAuthMiddleware()

		apiGroup.Use(authMiddleware.BasicAuthMiddleware())

		apiGroup.POST("/identities", func(c *gin.Context) {
			h.EnrollIdentity(c)
		})
		apiGroup.GET("/identities/:key", func(c *gin.Context) {
			h.GetIdentity(c)
		})
		apiGroup.POST("/sessions/:session/attendance", func(c *gin.Context) {
			h.ReconcileSession(c)
		})
		apiGroup.POST("/sessions/:session/attendance/async", func(c *gin.Context) {
			h.SubmitSession(c)
		})
		apiGroup.GET("/sessions/:session/attendance", func(c *gin.Context) {
			h.GetSessionMarks(c)
		})
	}
}

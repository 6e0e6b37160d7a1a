package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/dedup-scanner/api/handlers"
	"github.com/feichai0017/dedup-scanner/api/middleware"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	scans := v1.Group("/scans")
	{
		scans.POST("", h.Scan.CreateScan)
		scans.GET("/status/:taskId", h.Scan.GetStatus)
		scans.GET("/report/:taskId", h.Scan.DownloadReport)
		scans.DELETE("/:taskId", h.Scan.CancelScan)
	}
}

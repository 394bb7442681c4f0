package public

import (
	"github.com/pizzaria-cajazeiras/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	data := gin.H{"status": "ok"}
	if h.Container == nil {
		response.Success(c, data)
		return
	}
	if h.Config != nil {
		data["storage_driver"] = h.Config.Storage.Driver
		data["catalog_source"] = h.Config.Catalog.Source
	}
	data["queue_enabled"] = h.QueueClient.Enabled()
	if h.Sessions != nil {
		data["sessions"] = h.Sessions.Len()
	}
	if h.DB != nil {
		if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			data["status"] = "degraded"
			data["database"] = "down"
		} else {
			data["database"] = "up"
		}
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(c.Request.Context()).Err(); err != nil {
			data["status"] = "degraded"
			data["redis"] = "down"
		} else {
			data["redis"] = "up"
		}
	}
	response.Success(c, data)
}

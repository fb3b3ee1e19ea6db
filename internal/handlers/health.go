package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"idcard-backend/internal/models"
	"idcard-backend/internal/services"
)

type HealthHandler struct {
	jobService *services.JobService
}

func NewHealthHandler(jobService *services.JobService) *HealthHandler {
	return &HealthHandler{
		jobService: jobService,
	}
}

// Health godoc
// @Summary     Health check
// @Description Returns the health status of the API and the number of cached uploads
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Uploads: h.jobService.ActiveUploads(),
	})
}

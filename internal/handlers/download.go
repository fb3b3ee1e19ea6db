package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"idcard-backend/internal/services"
)

type DownloadHandler struct {
	jobService *services.JobService
}

func NewDownloadHandler(jobService *services.JobService) *DownloadHandler {
	return &DownloadHandler{
		jobService: jobService,
	}
}

// Download godoc
// @Summary     Download a generated PDF
// @Tags        download
// @Produce     application/pdf
// @Param       artifact_id path string true "Artifact ID"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /download/{artifact_id} [get]
func (h *DownloadHandler) Download(c *gin.Context) {
	artifact, data, err := h.jobService.Artifact(c.Request.Context(), c.Param("artifact_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", data)
}

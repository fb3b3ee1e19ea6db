package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"idcard-backend/internal/models"
	"idcard-backend/internal/services"
)

type StatusHandler struct {
	jobService *services.JobService
}

func NewStatusHandler(jobService *services.JobService) *StatusHandler {
	return &StatusHandler{
		jobService: jobService,
	}
}

// GetStatus godoc
// @Summary     Get upload status
// @Description Returns the lifecycle state, last summary and artifact of an upload.
// @Tags        uploads
// @Produce     json
// @Param       upload_id path string true "Upload ID"
// @Success     200 {object} models.JobResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /uploads/{upload_id} [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	job, err := h.jobService.Job(c.Param("upload_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.JobResponse{
		UploadID:  job.UploadID,
		State:     job.State,
		Filename:  job.Dataset.Filename,
		TotalRows: len(job.Dataset.Rows),
		Summary:   job.Summary,
		Artifact:  job.Artifact,
		Error:     job.ErrorMessage,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		ExpiresAt: job.ExpiresAt,
	})
}

// GetPreview godoc
// @Summary     Preview an upload
// @Tags        uploads
// @Produce     json
// @Param       upload_id path string true "Upload ID"
// @Success     200 {object} models.UploadResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /uploads/{upload_id}/preview [get]
func (h *StatusHandler) GetPreview(c *gin.Context) {
	job, rows, err := h.jobService.Preview(c.Param("upload_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse(job, rows))
}

// DeleteUpload godoc
// @Summary     Delete an upload
// @Description Drops the cached spreadsheet and its generated PDF.
// @Tags        uploads
// @Param       upload_id path string true "Upload ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /uploads/{upload_id} [delete]
func (h *StatusHandler) DeleteUpload(c *gin.Context) {
	if err := h.jobService.Delete(c.Request.Context(), c.Param("upload_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

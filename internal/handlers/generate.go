package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"idcard-backend/internal/models"
	"idcard-backend/internal/services"
)

type GenerateHandler struct {
	jobService *services.JobService
}

func NewGenerateHandler(jobService *services.JobService) *GenerateHandler {
	return &GenerateHandler{
		jobService: jobService,
	}
}

// Generate godoc
// @Summary     Generate the ID card PDF
// @Description Renders one card per row of an uploaded spreadsheet with the given design.
// @Description Rows with a missing or unreachable photo get a placeholder; they are listed in the summary.
// @Description Only one generation per upload runs at a time.
// @Tags        generate
// @Accept      json
// @Produce     json
// @Param       request body models.GenerateRequest true "Upload reference and design"
// @Success     200 {object} models.GenerateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /generate-pdf [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	uploadID := strings.TrimSpace(req.Reference())
	if uploadID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: "uploadId is required",
		})
		return
	}

	job, err := h.jobService.Generate(c.Request.Context(), uploadID, req.Design, req.SelectedIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.Artifact == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "generation finished without an artifact",
		})
		return
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		DownloadURL: job.Artifact.DownloadURL,
		Filename:    job.Artifact.Filename,
		JobID:       job.UploadID,
		Summary:     job.Summary,
	})
}

package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"idcard-backend/internal/models"
	"idcard-backend/internal/services"
)

type UploadHandler struct {
	jobService *services.JobService
}

func NewUploadHandler(jobService *services.JobService) *UploadHandler {
	return &UploadHandler{
		jobService: jobService,
	}
}

// Upload godoc
// @Summary     Upload a spreadsheet
// @Description Parses the first worksheet of an .xlsx or .xls file and returns its columns and a preview.
// @Description Rows missing an ID or Name are kept but flagged invalid.
// @Tags        upload
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Spreadsheet (.xlsx or .xls)"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := formFile(c)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to open file",
			Message: err.Error(),
		})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		respondUploadError(c, err)
		return
	}

	job, err := h.jobService.Upload(c.Request.Context(), file.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	job, rows, err := h.jobService.Preview(job.UploadID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse(job, rows))
}

// formFile accepts the field names used by older clients.
func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	for _, field := range []string{"file", "spreadsheet", "files"} {
		if files := form.File[field]; len(files) > 0 {
			return files[0], nil
		}
	}
	return nil, fmt.Errorf("no file found in form fields file, spreadsheet or files")
}

func respondUploadError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "failed to read upload",
		Message: err.Error(),
	})
}

func uploadResponse(job models.Job, rows []models.Row) models.UploadResponse {
	ds := job.Dataset
	preview := make([]map[string]string, len(rows))
	for i, row := range rows {
		preview[i] = row.Values
	}

	var issues []models.RowIssue
	for _, row := range ds.Rows {
		for _, issue := range row.Issues {
			if len(issues) >= models.MaxSummaryIssues {
				break
			}
			issues = append(issues, issue)
		}
	}

	return models.UploadResponse{
		UploadID:    job.UploadID,
		FilePath:    job.UploadID,
		Filename:    ds.Filename,
		Columns:     ds.Schema,
		Preview:     preview,
		TotalRows:   len(ds.Rows),
		InvalidRows: ds.InvalidRows(),
		Issues:      issues,
	}
}

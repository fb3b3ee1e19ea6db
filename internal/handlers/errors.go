package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"idcard-backend/internal/models"
	"idcard-backend/internal/services"
	"idcard-backend/internal/spreadsheet"
)

// respondError maps service errors to status codes.
func respondError(c *gin.Context, err error) {
	var (
		malformed  *spreadsheet.MalformedFileError
		tooLarge   *spreadsheet.DatasetTooLargeError
		badDesign  *models.InvalidDesignError
		inProgress *services.JobInProgressError
		maxBytes   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &malformed):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "malformed spreadsheet", Message: err.Error()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "too many rows", Message: err.Error()})
	case errors.As(err, &maxBytes):
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "file too large", Message: err.Error()})
	case errors.As(err, &badDesign):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid design", Message: err.Error()})
	case errors.Is(err, services.ErrNoDataRows):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no data rows", Message: err.Error()})
	case errors.Is(err, services.ErrNoRowsSelected):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no rows selected", Message: err.Error()})
	case errors.As(err, &inProgress):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "generation in progress", Message: err.Error()})
	case errors.Is(err, services.ErrUploadNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "upload not found", Message: err.Error()})
	case errors.Is(err, services.ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "artifact not found", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error", Message: err.Error()})
	}
}

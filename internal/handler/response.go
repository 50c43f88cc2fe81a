package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"helix/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *ListMeta   `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListMeta holds list metadata.
type ListMeta struct {
	Total int `json:"total"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondList sends a 200 success response with a total count.
func RespondList(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &ListMeta{Total: total}})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Routing errors carry the offending code, so their wrapped message is shown.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrInvalidDepartment):
		return http.StatusBadRequest, "INVALID_DEPARTMENT", err.Error()
	case errors.Is(err, domain.ErrInvalidProcess):
		return http.StatusBadRequest, "INVALID_PROCESS", err.Error()
	case errors.Is(err, domain.ErrInvalidFileType):
		return http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error()
	case errors.Is(err, domain.ErrInvalidRouteCode):
		return http.StatusBadRequest, "INVALID_ROUTING_CODE", err.Error()
	case errors.Is(err, domain.ErrRoutingIncomplete):
		return http.StatusBadRequest, "ROUTING_INCOMPLETE", "department, process and file type must all be selected"
	case errors.Is(err, domain.ErrInvalidPriority):
		return http.StatusBadRequest, "INVALID_PRIORITY", "invalid priority; allowed: low, normal, high, urgent, critical"
	case errors.Is(err, domain.ErrNoValidFiles):
		return http.StatusUnprocessableEntity, "NO_VALID_FILES", "no valid files to upload"
	case errors.Is(err, domain.ErrBatchInProgress):
		return http.StatusConflict, "BATCH_IN_PROGRESS", "an upload batch is already running"
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusUnauthorized, "MISSING_CREDENTIAL", "no operator credential available for upload"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file staging failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// 5xx causes go to the global zap logger.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		zap.L().Error("internal error",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
	}
	RespondError(c, status, code, msg)
}

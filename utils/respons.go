package utils

import (
	"github.com/gin-gonic/gin"
)

// Machine-readable error codes surfaced alongside the human message.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidState     = "INVALID_STATE"
	CodePastDated        = "PAST_DATED"
	CodeTooLateToCancel  = "TOO_LATE_TO_CANCEL"
	CodeAlreadyRated     = "ALREADY_RATED"
	CodeInvalidSortField = "INVALID_SORT_FIELD"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeStorageFailure   = "STORAGE_FAILURE"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondErrorCode attaches a machine-readable code so API consumers do not
// have to match on message text.
func RespondErrorCode(c *gin.Context, status int, code string, err error) {
	c.JSON(status, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Code:    code,
		Data:    nil,
	})
}

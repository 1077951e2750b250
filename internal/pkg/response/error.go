package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/campus-scheduler/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Error sends a JSON error response.
// AppErrors keep their status code and message; anything else is logged and
// reported as 500 without leaking the internal message.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		log.Printf("%s %s: internal error: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := ErrorResponse{Error: appErr.Message}
	var d apperror.Detailer
	if errors.As(err, &d) {
		resp.Details = d.ErrorDetails()
	}
	c.JSON(appErr.Code, resp)
}

// BadRequest reports a binding or validation failure.
func BadRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

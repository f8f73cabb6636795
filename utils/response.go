package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
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
	})
}

// RespondAppError maps a typed AppError to its HTTP status. Fatal errors
// keep their cause out of the response body and log it instead.
func RespondAppError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		ErrorLogger.Printf("unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, JSONResponse{
			Status:  false,
			Message: "internal server error",
		})
		return
	}

	if appErr.Kind == KindFatal && appErr.Err != nil {
		ErrorLogger.Printf("fatal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, appErr.Err)
	}

	c.JSON(appErr.HTTPStatus(), JSONResponse{
		Status:  false,
		Message: appErr.Message,
		Error:   string(appErr.Kind),
	})
}

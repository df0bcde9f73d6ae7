package utils

import (
	"errors"
	"os"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
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

// RespondInternal logs the error and returns a 500. The detail is only
// echoed back when APP_ENV=development.
func RespondInternal(c *gin.Context, err error) {
	if ErrorLogger != nil {
		ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if os.Getenv("APP_ENV") == "development" {
		RespondError(c, 500, err)
		return
	}
	RespondError(c, 500, errors.New("internal server error"))
}

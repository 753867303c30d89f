package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// apiResponse is the uniform envelope for every JSON endpoint. Code 0 means
// success; errors echo the HTTP status.
type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	respond(c, http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	respond(c, status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

func respond(c *gin.Context, status int, body apiResponse) {
	c.JSON(status, body)
}

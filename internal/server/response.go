package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resp is the JSON envelope of every API response.
type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Resp{Message: "Success", Data: data})
}

func accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, Resp{Message: "Accepted", Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Resp{ErrorCode: status, Message: msg})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todolist/internal/core/model/response"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.HealthResponse{Status: "ok"})
}

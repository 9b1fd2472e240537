package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ping GET /ping
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ping": "pong!"})
}

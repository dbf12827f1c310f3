package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondValidationError sends the error payload with the full list of
// violated rules so clients fix everything in one round-trip.
func respondValidationError(c *gin.Context, details []string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
		"code":    "VALIDATION_ERROR",
		"message": "invalid input",
		"details": details,
	}})
}

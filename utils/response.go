package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"status": "success", "data": data})
}

func JSONError(c *gin.Context, httpCode int, code, message string) {
	c.JSON(httpCode, gin.H{"error": gin.H{"code": code, "message": message}})
}

package apperror

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Respond writes err as {"error": msg} with the status its kind maps to.
func Respond(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

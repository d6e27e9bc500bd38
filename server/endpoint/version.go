package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/version"
)

// Version returns a handler that reports build version information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondOK(c, version.Get())
	}
}

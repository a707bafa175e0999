package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voicescribe/version"
)

var startTime = time.Now()

// Version returns a handler that reports build information and uptime.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"version":    v.Version,
			"commit":     v.Commit,
			"branch":     v.Branch,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"release":    v.Release,
			"dirty":      v.Dirty,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		})
	}
}

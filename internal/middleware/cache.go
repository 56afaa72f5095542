package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// NoStore keeps patient data out of shared and browser caches.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}

// CachePrivate lets the caller's own client reuse a GET response for maxAge seconds.
func CachePrivate(maxAge int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" {
			c.Header("Cache-Control", "private, max-age="+strconv.Itoa(maxAge))
			c.Header("Vary", "Authorization")
		}
		c.Next()
	}
}

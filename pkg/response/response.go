// Package response writes API responses together with their cache-control
// policy.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cache lifetimes per response class. Event and question lookups are
// effectively immutable once the record exists, so they cache long; ids that
// don't exist are unlikely to start existing, but not impossible, so
// not-found caches shorter. A bad secret will not turn good, and hosts need
// a fresher question list than guests.
const (
	CacheNone      = "no-cache"
	CacheImmutable = "public, max-age=604800"
	CacheMissing   = "max-age=3600"
	CacheBadAuth   = "max-age=86400"
	CacheHostList  = "max-age=3"
	CacheGuestList = "max-age=10"
)

// JSON sends a 200 with the given body and cache policy.
func JSON(c *gin.Context, cache string, body interface{}) {
	c.Header("Cache-Control", cache)
	c.JSON(http.StatusOK, body)
}

// Text sends a 200 with a plain-text body.
func Text(c *gin.Context, cache, body string) {
	c.Header("Cache-Control", cache)
	c.String(http.StatusOK, "%s", body)
}

// Error sends a bare error status. Most errors must not be cached; 401/404
// responses that won't change pass an explicit policy instead.
func Error(c *gin.Context, status int, cache string) {
	c.Header("Cache-Control", cache)
	c.Status(status)
}

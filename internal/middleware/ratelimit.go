package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/types"
)

// UserRateLimit throttles authenticated traffic per user id. Must run after
// Auth; if no user is in the context it falls back to the client IP.
func UserRateLimit(store *cache.Store, limit int, window time.Duration) gin.HandlerFunc {
	return rateLimit(store, types.ThrottleScopeUser, limit, window, func(ctx *gin.Context) string {
		if value, exists := ctx.Get(types.ContextUserKey); exists {
			if user, ok := value.(AuthenticatedUser); ok {
				return strconv.FormatUint(uint64(user.ID), 10)
			}
		}
		return ctx.ClientIP()
	})
}

// AnonRateLimit throttles unauthenticated endpoints per client IP.
func AnonRateLimit(store *cache.Store, limit int, window time.Duration) gin.HandlerFunc {
	return rateLimit(store, types.ThrottleScopeAnon, limit, window, func(ctx *gin.Context) string {
		return ctx.ClientIP()
	})
}

func rateLimit(store *cache.Store, scope string, limit int, window time.Duration, ident func(*gin.Context) string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		allowed, err := store.Allow(ctx.Request.Context(), scope, ident(ctx), limit, window)

		if err != nil {
			// The limiter is a gate, not a dependency: if the cache is
			// unreachable the request proceeds.
			log.Printf("Rate limiter unavailable for scope %s: %v", scope, err)
			ctx.Next()
			return
		}

		if !allowed {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Request was throttled."})
			return
		}

		ctx.Next()
	}
}

package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scraprates/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/scraprates/internal/observability/metrics"
	"go.uber.org/zap"
)

const rateLimitReasonClientRate = "client-rate"

// ActivationRateLimit throttles activation attempts per client IP. Limiter
// failures let the request through so a Redis outage never blocks
// subscribers.
func (s *Server) ActivationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.activationLimiter == nil || !s.activationLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.activationLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("activation rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if result.Allowed {
			c.Next()
			return
		}

		logger.FromContext(ctx).Warn("activation rate limit exceeded",
			zap.String("reason", rateLimitReasonClientRate),
		)
		if s.obsMetrics != nil {
			s.obsMetrics.RecordActivation(ctx, obsmetrics.ActivationRateLimited)
		}

		retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-Rate-Limited-Reason", rateLimitReasonClientRate)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, activateResponse{
			Success: false,
			Message: msgRateLimited,
			Code:    codeRateLimited,
		})
	}
}

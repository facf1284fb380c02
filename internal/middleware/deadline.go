package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ai-image-enhancer/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const DeadlineExceededMessage = "Request exceeded the execution time limit"

// Deadline bounds the whole request. Handlers observe it through the request
// context; if they return after it passed without writing, a 500 failure is sent.
func Deadline(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			zerolog.Ctx(ctx).Error().Dur("limit", timeout).Msg("request ceiling exceeded")
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewFailure(DeadlineExceededMessage, nil))
		}
	}
}

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondError maps a service error onto a status code and JSON body
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var verrs models.ValidationErrors
	var limited *models.RateLimitError
	var invalid *models.InvalidCredentialsError

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": verrs,
		})
	case errors.As(err, &limited):
		seconds := int(math.Ceil(limited.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many attempts, please try again later",
			"retry_after": seconds,
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":              invalid.Error(),
			"attempts_remaining": invalid.AttemptsRemaining,
		})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

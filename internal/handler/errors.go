package handler

import (
	"net/http"

	"coursepay/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the domain error taxonomy onto HTTP status codes.
// Persistence and unknown errors are logged and surfaced generically.
func respondError(c *gin.Context, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case domain.KindAuthorization:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/middleware"
	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/pkg/timeutil"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryDate(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	date, err := timeutil.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &date
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

// statusFor maps the service taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrLockedPlan):
		return http.StatusLocked
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respond renders a mutation result. A scheduler warning still counts as
// success — the state change committed and the next sync self-heals.
func respond(c *gin.Context, code int, body any, err error) {
	if err == nil {
		c.JSON(code, body)
		return
	}
	if errors.Is(err, services.ErrSchedulerUnavailable) {
		c.JSON(code, gin.H{"data": body, "warning": "reminder scheduling degraded, will retry on next change"})
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad " + name})
		return 0, false
	}
	return uint(n), true
}

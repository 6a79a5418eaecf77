package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"villabay/internal/domain/shared/fault"
)

// respondError maps the domain error taxonomy onto HTTP statuses. The
// error message is safe to echo: domain errors never carry user data.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch fault.KindOf(err) {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindPermission:
		return http.StatusForbidden
	case fault.KindConflict:
		return http.StatusConflict
	case fault.KindState:
		return http.StatusUnprocessableEntity
	case fault.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

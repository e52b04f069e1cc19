package response

import "github.com/gin-gonic/gin"

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondFailure writes an error response carrying a machine-readable reason
// code so callers can present an actionable message instead of a generic one.
func RespondFailure(c *gin.Context, code int, reason, message string) {
	c.JSON(code, StandardApiResponse{
		Status:     "error",
		StatusCode: code,
		Message:    message,
		Reason:     reason,
	})
}

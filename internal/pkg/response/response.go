package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}

// Status maps a domain error to its HTTP status and error code.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusConflict, "UNAVAILABLE"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusConflict, "INVALID_QUANTITY"
	case errors.Is(err, domain.ErrBusy):
		return http.StatusServiceUnavailable, "BUSY"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrPartialFailure):
		return http.StatusMultiStatus, "PARTIAL_FAILURE"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// FromError writes the envelope for err. Storage and unknown errors get a
// generic message; their cause goes to the log and to c.Errors.
func FromError(c *gin.Context, err error) {
	status, code := Status(err)

	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		ErrorWithDetails(c, status, code, ve.Error(), gin.H{"field": ve.Field})
		return
	}

	var qe *domain.QuantityError
	if errors.As(err, &qe) {
		ErrorWithDetails(c, status, code, qe.Error(), gin.H{"min": 1, "max": qe.Available, "requested": qe.Requested})
		return
	}

	var pf *domain.PartialFailureError
	if errors.As(err, &pf) {
		_ = c.Error(err)
		ErrorWithDetails(c, status, code, pf.Error(), gin.H{"completed": pf.Completed, "failed": pf.Failed})
		return
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Printf("internal_error method=%s path=%s error=%q", c.Request.Method, c.Request.URL.Path, causeOf(err))
		Error(c, status, code, "internal server error")
		return
	}

	Error(c, status, code, err.Error())
}

func causeOf(err error) string {
	var se *domain.StorageError
	if errors.As(err, &se) && se.Err != nil {
		return se.Op + ": " + se.Err.Error()
	}
	return err.Error()
}

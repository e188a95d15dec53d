package httpx

import (
	"log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

// ErrorBody is the JSON error envelope.
// swagger:model ErrorBody
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"      example:"VALIDATION_FAILED"`
	Message   string `json:"message"   example:"customer_id is required"`
	Retryable bool   `json:"retryable"`
	Ref       string `json:"ref,omitempty"`
}

// Error writes err using the taxonomy status. Unclassified errors are logged
// and reported with a generic message.
func Error(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	rid, _ := c.Get("rid")

	e, ok := apperr.As(err)
	if !ok {
		log.Printf("[http] rid=%v unclassified error: %v", rid, err)
		c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{Code: apperr.CodeInternal, Message: "internal error"}})
		return
	}
	msg := e.Message
	switch apperr.KindOf(err) {
	case apperr.KindPersistence:
		msg = "storage unavailable"
		fallthrough
	case apperr.KindUpstream:
		log.Printf("[http] rid=%v %s %s: %v", rid, c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{
		Code:      e.Code,
		Message:   msg,
		Retryable: e.Retryable,
		Ref:       e.Ref,
	}})
}

// BadRequest is shorthand for a validation failure at the handler boundary.
func BadRequest(c *gin.Context, format string, args ...any) {
	Error(c, apperr.Validation(format, args...))
}

// QueryInt reads an integer query parameter, falling back to def when absent.
func QueryInt(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return n, nil
}

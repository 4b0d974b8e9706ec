package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/vital/internal/ports/primary"
)

// APIError represents a standardized error response.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Status  string `json:"status,omitempty"` // callable-style kind, e.g. "failed-precondition"
	Details string `json:"details,omitempty"`
}

type statusCode struct {
	http int
	code string
}

// statusCodes maps error kinds to an HTTP status and error code.
type statusCodes map[primary.ErrorKind]statusCode

var defaultStatusCodes = statusCodes{
	primary.KindInvalidArgument:    {http.StatusBadRequest, "BAD_REQUEST"},
	primary.KindUnauthenticated:    {http.StatusUnauthorized, "UNAUTHORIZED"},
	primary.KindPermissionDenied:   {http.StatusForbidden, "FORBIDDEN"},
	primary.KindNotFound:           {http.StatusNotFound, "NOT_FOUND"},
	primary.KindFailedPrecondition: {http.StatusPreconditionFailed, "FAILED_PRECONDITION"},
	primary.KindInternal:           {http.StatusInternalServerError, "INTERNAL_ERROR"},
}

// manualStatusCodes reports refused villager escalations as 400.
var manualStatusCodes = func() statusCodes {
	m := make(statusCodes, len(defaultStatusCodes))
	for k, v := range defaultStatusCodes {
		m[k] = v
	}
	m[primary.KindFailedPrecondition] = statusCode{http.StatusBadRequest, "FAILED_PRECONDITION"}
	return m
}()

// respondServiceError writes err using codes. Internal errors are logged and
// answered with the generic message only.
func respondServiceError(c *gin.Context, err error, codes statusCodes, withStatus bool, log *zap.SugaredLogger) {
	kind := primary.KindOf(err)
	sc, ok := codes[kind]
	if !ok {
		sc = codes[primary.KindInternal]
	}

	if kind == primary.KindInternal {
		log.Errorw("Request failed", "path", c.FullPath(), "error", err)
	}

	body := APIError{
		Error: primary.MessageOf(err),
		Code:  sc.code,
	}
	if withStatus {
		body.Status = kind.String()
	}
	c.JSON(sc.http, body)
}

// RespondBadRequest sends a 400 Bad Request response.
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIError{
		Error: message,
		Code:  "BAD_REQUEST",
	})
}

package api

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/vital/internal/ports/primary"
)

const CronSecretHeader = "x-cron-secret"

// EscalationHandler serves the three escalation triggers.
type EscalationHandler struct {
	escalations primary.EscalationService
	cronSecret  string
	log         *zap.SugaredLogger
}

type triggerAutoEscalationRequest struct {
	IssueID string `json:"issueId"`
}

func (h *EscalationHandler) triggerAutoEscalation(c *gin.Context) {
	log := GetReqLogger(c, h.log)

	var req triggerAutoEscalationRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.escalations.TriggerAutoEscalation(c.Request.Context(), req.IssueID)
	if err != nil {
		respondServiceError(c, err, defaultStatusCodes, true, log)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *EscalationHandler) manualEscalateIssue(c *gin.Context) {
	log := GetReqLogger(c, h.log)

	var req primary.ManualEscalationRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.escalations.ManualEscalate(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, manualStatusCodes, false, log)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *EscalationHandler) autoEscalateOverdue(c *gin.Context) {
	log := GetReqLogger(c, h.log)

	if h.cronSecret != "" {
		got := c.GetHeader(CronSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.cronSecret)) != 1 {
			log.Warnw("Rejected sweep trigger with wrong cron secret", "clientIP", c.ClientIP())
			c.JSON(http.StatusUnauthorized, APIError{Error: "Unauthorized", Code: "UNAUTHORIZED"})
			return
		}
	}

	result, err := h.escalations.SweepOverdue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, defaultStatusCodes, false, log)
		return
	}
	c.JSON(http.StatusOK, result)
}

// bindOptionalJSON decodes the body into dst. An empty body leaves dst zero so
// the service reports the missing fields.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	RespondBadRequest(c, "invalid JSON body")
	return false
}

package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Code      int         `json:"code"`
	ErrorCode string      `json:"error_code,omitempty"`
	Message   string      `json:"message,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// errorMapping ties a sentinel error to its HTTP status, a stable machine
// code and the short user-facing message.
type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{ErrTierUnavailable, http.StatusBadRequest, "tier_unavailable", "This plan is not available right now"},
	{ErrDuplicateActiveSubscription, http.StatusConflict, "duplicate_subscription", "You already have an active subscription"},
	{ErrNotAnUpgrade, http.StatusBadRequest, "not_an_upgrade", "The selected plan is not an upgrade"},
	{ErrNotADowngrade, http.StatusBadRequest, "not_a_downgrade", "The selected plan is not a downgrade"},
	{ErrNoPendingDowngrade, http.StatusBadRequest, "no_pending_downgrade", "There is no scheduled downgrade to cancel"},
	{ErrNotPaused, http.StatusBadRequest, "not_paused", "The subscription is not paused"},
	{ErrInvalidRetentionAction, http.StatusBadRequest, "invalid_retention_action", "Unknown retention option"},
	{ErrSpreadNotFound, http.StatusNotFound, "spread_not_found", "Spread not found"},
	{ErrFeatureNotOffered, http.StatusNotFound, "feature_not_offered", "Feature not found"},
	{ErrForbidden, http.StatusForbidden, "forbidden", "You do not have access to this resource"},
	{ErrAccountNotFound, http.StatusNotFound, "account_not_found", "Account not found"},
	{ErrSubscriptionNotFound, http.StatusNotFound, "subscription_not_found", "Subscription not found"},
	{ErrWebhookSignature, http.StatusBadRequest, "invalid_signature", "Webhook signature verification failed"},
	{ErrGatewayUnavailable, http.StatusBadGateway, "gateway_unavailable", "Payment service is temporarily unavailable, please try again"},
	{ErrIntegrityViolation, http.StatusConflict, "integrity_violation", "This operation is not allowed for the subscription's current state"},
	{ErrDatabaseError, http.StatusInternalServerError, "internal_error", "Internal server error"},
}

// HandleServiceError turns a service error into the API envelope. Internal
// detail stays in the server log; the client only sees the short message
// and a machine-readable code.
func HandleServiceError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				log.Printf("service error: %v", err)
			}
			c.JSON(m.status, APIResponse{
				Status:    "error",
				Code:      m.status,
				ErrorCode: m.code,
				Message:   m.message,
				TraceID:   traceID(c),
			})
			return
		}
	}

	log.Printf("unmapped service error: %v", err)
	c.JSON(http.StatusInternalServerError, APIResponse{
		Status:    "error",
		Code:      http.StatusInternalServerError,
		ErrorCode: "internal_error",
		Message:   "Internal server error",
		TraceID:   traceID(c),
	})
}

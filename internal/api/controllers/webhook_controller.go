package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"arcanum/internal/services"
	"arcanum/pkg/utils"
)

// Stripe caps event payloads well below this; anything larger is noise.
const maxWebhookBody = 64 * 1024

type WebhookController struct {
	reconcileService services.ReconcileServiceInterface
}

func NewWebhookController(reconcileService services.ReconcileServiceInterface) *WebhookController {
	return &WebhookController{reconcileService: reconcileService}
}

// HandleStripeWebhook godoc
// @Summary Receive billing gateway events
// @Description Verifies the event signature and reconciles local state. Unauthenticated; the signature is the credential.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /webhooks/stripe [post]
func (w *WebhookController) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Unable to read payload")
		return
	}

	err = w.reconcileService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, utils.ErrWebhookSignature) {
			utils.HandleServiceError(c, err)
			return
		}
		// Post-verification failures are acked anyway; retrying the same
		// event would fail the same way, and state repair runs through sync.
	}
	utils.RespondSuccess(c, nil, "received")
}

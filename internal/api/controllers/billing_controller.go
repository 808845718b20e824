package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arcanum/internal/models/request_models"
	"arcanum/internal/services"
	"arcanum/pkg/tiers"
	"arcanum/pkg/utils"
)

type BillingController struct {
	billingService   services.BillingServiceInterface
	reconcileService services.ReconcileServiceInterface
	accountService   services.AccountServiceInterface
}

func NewBillingController(
	billingService services.BillingServiceInterface,
	reconcileService services.ReconcileServiceInterface,
	accountService services.AccountServiceInterface,
) *BillingController {
	return &BillingController{
		billingService:   billingService,
		reconcileService: reconcileService,
		accountService:   accountService,
	}
}

// CreateCheckout godoc
// @Summary Start a hosted checkout for a subscription tier
// @Description Returns the gateway checkout URL; the subscription is created once checkout completes
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckoutRequest true "Checkout Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/checkout [post]
func (b *BillingController) CreateCheckout(c *gin.Context) {
	var request request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	accountID, email, ok := currentAccount(c)
	if !ok {
		return
	}
	if _, err := b.accountService.EnsureAccount(c.Request.Context(), accountID, email); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	resp, err := b.billingService.InitiateSubscription(c.Request.Context(), accountID, tiers.Tier(request.Tier))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Checkout session created")
}

// GetSubscription godoc
// @Summary Get the caller's current subscription
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/subscription [get]
func (b *BillingController) GetSubscription(c *gin.Context) {
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.billingService.GetSubscription(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "")
}

// ListInvoices godoc
// @Summary List the caller's invoice history
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/invoices [get]
func (b *BillingController) ListInvoices(c *gin.Context) {
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	invoices, err := b.billingService.ListInvoices(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, invoices, "")
}

// Upgrade godoc
// @Summary Upgrade the subscription to a higher tier immediately
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.UpgradeRequest true "Upgrade Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/upgrade [post]
func (b *BillingController) Upgrade(c *gin.Context) {
	var request request_models.UpgradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.billingService.Upgrade(c.Request.Context(), accountID, request.SubscriptionID, tiers.Tier(request.Tier))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Subscription upgraded")
}

// ScheduleDowngrade godoc
// @Summary Schedule a downgrade for the end of the billing period
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.DowngradeRequest true "Downgrade Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/downgrade [post]
func (b *BillingController) ScheduleDowngrade(c *gin.Context) {
	var request request_models.DowngradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.billingService.ScheduleDowngrade(c.Request.Context(), accountID, request.SubscriptionID, tiers.Tier(request.Tier))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Downgrade scheduled for period end")
}

// CancelScheduledDowngrade godoc
// @Summary Cancel a previously scheduled downgrade
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CancelDowngradeRequest true "Cancel Downgrade Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/downgrade [delete]
func (b *BillingController) CancelScheduledDowngrade(c *gin.Context) {
	var request request_models.CancelDowngradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.billingService.CancelScheduledDowngrade(c.Request.Context(), accountID, request.SubscriptionID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Scheduled downgrade canceled")
}

// Cancel godoc
// @Summary Cancel the subscription, immediately or at period end
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CancelRequest true "Cancel Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/cancel [post]
func (b *BillingController) Cancel(c *gin.Context) {
	var request request_models.CancelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.billingService.Cancel(c.Request.Context(), accountID, request.SubscriptionID,
		request.Immediate, request.Reason, request.Feedback)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Subscription canceled")
}

// Resume godoc
// @Summary Resume a paused subscription before its scheduled resume date
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.ResumeRequest true "Resume Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/resume [post]
func (b *BillingController) Resume(c *gin.Context) {
	var request request_models.ResumeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.billingService.Resume(c.Request.Context(), accountID, request.SubscriptionID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Subscription resumed")
}

// ApplyRetention godoc
// @Summary Apply a retention offer from the cancellation survey
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.RetentionRequest true "Retention Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/retention [post]
func (b *BillingController) ApplyRetention(c *gin.Context) {
	var request request_models.RetentionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.billingService.ApplyRetention(c.Request.Context(), accountID, request.SubscriptionID,
		request.Action, tiers.Tier(request.Tier), request.Reason, request.Feedback)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Retention action applied")
}

// Sync godoc
// @Summary Reconcile local subscription state against the billing gateway
// @Description Pulls subscriptions and invoices from the gateway and applies them; safe to call repeatedly
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/sync [post]
func (b *BillingController) Sync(c *gin.Context) {
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	resp, err := b.reconcileService.SyncFromGateway(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Subscription state synchronized")
}

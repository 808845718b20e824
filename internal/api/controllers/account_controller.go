package controllers

import (
	"github.com/gin-gonic/gin"

	"arcanum/internal/services"
	"arcanum/pkg/utils"
)

type AccountController struct {
	accountService services.AccountServiceInterface
}

func NewAccountController(accountService services.AccountServiceInterface) *AccountController {
	return &AccountController{accountService: accountService}
}

// GetProfile godoc
// @Summary Get the caller's profile with current tier and subscription
// @Tags Accounts
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /account/me [get]
func (a *AccountController) GetProfile(c *gin.Context) {
	accountID, email, ok := currentAccount(c)
	if !ok {
		return
	}
	if _, err := a.accountService.EnsureAccount(c.Request.Context(), accountID, email); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	profile, err := a.accountService.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, profile, "")
}

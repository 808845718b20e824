package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arcanum/internal/models/request_models"
	"arcanum/internal/services"
	"arcanum/pkg/utils"
)

type ReadingController struct {
	readingService services.ReadingServiceInterface
	accountService services.AccountServiceInterface
}

func NewReadingController(
	readingService services.ReadingServiceInterface,
	accountService services.AccountServiceInterface,
) *ReadingController {
	return &ReadingController{
		readingService: readingService,
		accountService: accountService,
	}
}

// ListSpreads godoc
// @Summary List spreads, marking the ones above the caller's tier as locked
// @Tags Readings
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /spreads [get]
func (r *ReadingController) ListSpreads(c *gin.Context) {
	accountID, email, ok := currentAccount(c)
	if !ok {
		return
	}
	if _, err := r.accountService.EnsureAccount(c.Request.Context(), accountID, email); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	spreads, err := r.readingService.ListSpreads(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, spreads, "")
}

// Draw godoc
// @Summary Draw a reading for a spread
// @Description Entitlement is evaluated first; a tier below the spread's requirement returns an upgrade prompt, not an error
// @Tags Readings
// @Accept json
// @Produce json
// @Param request body request_models.DrawReadingRequest true "Draw Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /readings [post]
func (r *ReadingController) Draw(c *gin.Context) {
	var request request_models.DrawReadingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	accountID, email, ok := currentAccount(c)
	if !ok {
		return
	}
	if _, err := r.accountService.EnsureAccount(c.Request.Context(), accountID, email); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	result, err := r.readingService.Draw(c.Request.Context(), accountID, request.SpreadID, request.Question)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "")
}

// History godoc
// @Summary List the caller's saved readings
// @Tags Readings
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /readings [get]
func (r *ReadingController) History(c *gin.Context) {
	accountID, _, ok := currentAccount(c)
	if !ok {
		return
	}
	readings, err := r.readingService.History(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, readings, "")
}

package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"arcanum/internal/models/response_models"
	"arcanum/pkg/tiers"
	"arcanum/pkg/utils"
)

type TierController struct {
	catalog *tiers.Catalog
	matrix  *tiers.Matrix
}

func NewTierController(catalog *tiers.Catalog, matrix *tiers.Matrix) *TierController {
	return &TierController{catalog: catalog, matrix: matrix}
}

// ListTiers godoc
// @Summary List the purchasable subscription tiers
// @Description Public pricing page data: every paid plan with its price and included features
// @Tags Tiers
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /tiers [get]
func (t *TierController) ListTiers(c *gin.Context) {
	plans := lo.Map(t.catalog.Plans(), func(plan tiers.PlanSpec, _ int) response_models.TierPlan {
		return response_models.TierPlan{
			Tier:       string(plan.Tier),
			Name:       plan.Name,
			PriceMinor: plan.PriceMinor,
			Currency:   plan.Currency,
			TrialDays:  plan.TrialDays,
			Features:   featureNames(t.matrix, plan.Tier),
		}
	})
	utils.RespondSuccess(c, plans, "")
}

// featureNames lists the features a tier unlocks, including everything
// below it.
func featureNames(m *tiers.Matrix, tier tiers.Tier) []string {
	var out []string
	for _, f := range m.Features() {
		required, ok := m.RequiredTier(f)
		if ok && tier.AtLeast(required) {
			out = append(out, string(f))
		}
	}
	return out
}

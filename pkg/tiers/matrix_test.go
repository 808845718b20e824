package tiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixRequiredTier(t *testing.T) {
	m := DefaultMatrix()

	req, ok := m.RequiredTier(FeatureCelticCross)
	require.True(t, ok)
	assert.Equal(t, TierPro, req)

	_, ok = m.RequiredTier(Feature("palm_reading"))
	assert.False(t, ok)
}

func TestMatrixMonotonicity(t *testing.T) {
	m := DefaultMatrix()
	ladder := []Tier{TierFree, TierBasic, TierPro, TierVIP}

	// If a tier can use a feature, every higher tier can too.
	for _, f := range m.Features() {
		for i, lower := range ladder {
			if !m.CanAccess(lower, f) {
				continue
			}
			for _, higher := range ladder[i:] {
				assert.Truef(t, m.CanAccess(higher, f),
					"feature %s allowed for %s but not for %s", f, lower, higher)
			}
		}
	}
}

func TestMatrixCanAccess(t *testing.T) {
	m := DefaultMatrix()

	assert.True(t, m.CanAccess(TierFree, FeatureDailyCard))
	assert.False(t, m.CanAccess(TierFree, FeatureCelticCross))
	assert.True(t, m.CanAccess(TierPro, FeatureCelticCross))
	assert.True(t, m.CanAccess(TierVIP, FeatureCelticCross))
	assert.False(t, m.CanAccess(TierPro, FeatureYearAhead))

	// Unknown features are closed, even for VIP.
	assert.False(t, m.CanAccess(TierVIP, Feature("palm_reading")))
}

package tiers

// Feature is a gated capability: a spread the user can draw or a product
// capability layered on top of readings.
type Feature string

const (
	FeatureDailyCard        Feature = "daily_card"
	FeatureSingleCard       Feature = "single_card"
	FeatureThreeCard        Feature = "three_card"
	FeatureLoveSpread       Feature = "love_spread"
	FeatureReadingHistory   Feature = "reading_history"
	FeatureHorseshoe        Feature = "horseshoe"
	FeatureCelticCross      Feature = "celtic_cross"
	FeatureAIInterpretation Feature = "ai_interpretation"
	FeatureYearAhead        Feature = "year_ahead"
	FeaturePDFExport        Feature = "pdf_export"
)

// Matrix maps each feature to the minimum tier that may use it.
type Matrix struct {
	required map[Feature]Tier
}

func NewMatrix(required map[Feature]Tier) *Matrix {
	m := &Matrix{required: make(map[Feature]Tier, len(required))}
	for f, t := range required {
		m.required[f] = t
	}
	return m
}

// DefaultMatrix is the product's entitlement table. Every feature has
// exactly one minimum tier.
func DefaultMatrix() *Matrix {
	return NewMatrix(map[Feature]Tier{
		FeatureDailyCard:        TierFree,
		FeatureSingleCard:       TierFree,
		FeatureThreeCard:        TierBasic,
		FeatureLoveSpread:       TierBasic,
		FeatureReadingHistory:   TierBasic,
		FeatureHorseshoe:        TierPro,
		FeatureCelticCross:      TierPro,
		FeatureAIInterpretation: TierPro,
		FeatureYearAhead:        TierVIP,
		FeaturePDFExport:        TierVIP,
	})
}

// RequiredTier returns the minimum tier for a feature. Unknown features
// report false; callers should treat that as "not offered", not "free".
func (m *Matrix) RequiredTier(f Feature) (Tier, bool) {
	t, ok := m.required[f]
	return t, ok
}

// CanAccess reports whether tier may use feature. Unknown features are
// never accessible.
func (m *Matrix) CanAccess(t Tier, f Feature) bool {
	req, ok := m.required[f]
	if !ok {
		return false
	}
	return t.AtLeast(req)
}

// Features lists every feature in the matrix.
func (m *Matrix) Features() []Feature {
	out := make([]Feature, 0, len(m.required))
	for f := range m.required {
		out = append(out, f)
	}
	return out
}

package tiers

// Tier is a feature-access level. Tiers are totally ordered:
// free < basic < pro < vip.
type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
	TierVIP   Tier = "vip"
)

var tierOrder = map[Tier]int{
	TierFree:  0,
	TierBasic: 1,
	TierPro:   2,
	TierVIP:   3,
}

// Order returns the rank of the tier. Unknown values rank below free so that
// a corrupted tier string can never out-rank a real one.
func (t Tier) Order() int {
	if o, ok := tierOrder[t]; ok {
		return o
	}
	return -1
}

// Valid reports whether t is one of the four known tiers.
func (t Tier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

// AtLeast reports whether t grants everything other grants.
func (t Tier) AtLeast(other Tier) bool {
	return t.Order() >= other.Order()
}

// PlanSpec describes one paid tier: its Stripe price id, display data and
// trial length. The free tier has no PlanSpec.
type PlanSpec struct {
	Tier       Tier
	PriceID    string
	Name       string
	PriceMinor int64
	Currency   string
	TrialDays  int64
	Features   []string
}

// Catalog maps tiers to billing plans and billing plans back to tiers.
// It is built once from explicit PlanSpecs and injected where needed,
// never read from process environment at call time.
type Catalog struct {
	plans     map[Tier]PlanSpec
	byPriceID map[string]Tier
}

func NewCatalog(plans []PlanSpec) *Catalog {
	c := &Catalog{
		plans:     make(map[Tier]PlanSpec, len(plans)),
		byPriceID: make(map[string]Tier, len(plans)),
	}
	for _, p := range plans {
		if !p.Tier.Valid() || p.Tier == TierFree {
			continue
		}
		c.plans[p.Tier] = p
		if p.PriceID != "" {
			c.byPriceID[p.PriceID] = p.Tier
		}
	}
	return c
}

// ResolveTier maps a billing price id to a tier. It is total: an empty or
// unrecognized price id resolves to free, never to a paid tier, so a stale
// or misconfigured plan id fails toward the least privileged level.
func (c *Catalog) ResolveTier(priceID string) Tier {
	if priceID == "" {
		return TierFree
	}
	if t, ok := c.byPriceID[priceID]; ok {
		return t
	}
	return TierFree
}

// PriceID returns the Stripe price id configured for a tier.
// The second return is false for free, unknown tiers and unconfigured plans.
func (c *Catalog) PriceID(t Tier) (string, bool) {
	p, ok := c.plans[t]
	if !ok || p.PriceID == "" {
		return "", false
	}
	return p.PriceID, true
}

// Plan returns the PlanSpec for a paid tier.
func (c *Catalog) Plan(t Tier) (PlanSpec, bool) {
	p, ok := c.plans[t]
	return p, ok
}

// Plans returns the paid plans in ascending tier order.
func (c *Catalog) Plans() []PlanSpec {
	out := make([]PlanSpec, 0, len(c.plans))
	for _, t := range []Tier{TierBasic, TierPro, TierVIP} {
		if p, ok := c.plans[t]; ok {
			out = append(out, p)
		}
	}
	return out
}

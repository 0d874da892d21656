package enums

import "strings"

// PlanTier names one of the fixed subscription tiers.
type PlanTier string

const (
	PlanTierTrial      PlanTier = "TRIAL"
	PlanTierFree       PlanTier = "FREE"
	PlanTierPro        PlanTier = "PRO"
	PlanTierBusiness   PlanTier = "BUSINESS"
	PlanTierEnterprise PlanTier = "ENTERPRISE"
)

var planTiers = set[PlanTier]{PlanTierTrial, PlanTierFree, PlanTierPro, PlanTierBusiness, PlanTierEnterprise}

// PlanTiers returns the tiers in catalog order.
func PlanTiers() []PlanTier { return planTiers.values() }

func (p PlanTier) String() string { return string(p) }
func (p PlanTier) IsValid() bool  { return planTiers.has(p) }

// IsPaid reports whether the tier can be bought through an upgrade.
func (p PlanTier) IsPaid() bool {
	return p == PlanTierPro || p == PlanTierBusiness || p == PlanTierEnterprise
}

func ParsePlanTier(value string) (PlanTier, error) {
	return planTiers.parse("plan tier", value, strings.ToUpper)
}

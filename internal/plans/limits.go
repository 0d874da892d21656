// Package plans holds the fixed per-tier limits and the public plan catalog.
package plans

import (
	"github.com/shopspring/decimal"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// Unlimited marks a quota with no ceiling.
const Unlimited = -1

// Limits describes what a tier may do in a calendar month.
type Limits struct {
	MonthlyQRCodes        int                  `json:"monthly_qr_codes"`
	MonthlyDynamicQRCodes int                  `json:"monthly_dynamic_qr_codes"`
	MonthlyAPICalls       int                  `json:"monthly_api_calls"`
	LogoUploads           bool                 `json:"logo_uploads"`
	Analytics             enums.AnalyticsTier  `json:"analytics"`
	ExportFormats         []enums.ExportFormat `json:"export_formats"`
	WatermarkRequired     bool                 `json:"watermark_required"`
}

// Plan is a catalog entry shown to customers.
type Plan struct {
	Tier         enums.PlanTier  `json:"tier"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	Currency     string          `json:"currency"`
	Limits       Limits          `json:"limits"`
}

var allFormats = []enums.ExportFormat{
	enums.ExportFormatPNG,
	enums.ExportFormatJPG,
	enums.ExportFormatSVG,
	enums.ExportFormatPDF,
}

var catalog = map[enums.PlanTier]Plan{
	enums.PlanTierTrial: {
		Tier:         enums.PlanTierTrial,
		Name:         "Trial",
		MonthlyPrice: decimal.Zero,
		Limits: Limits{
			MonthlyQRCodes:        100,
			MonthlyDynamicQRCodes: 10,
			MonthlyAPICalls:       1000,
			LogoUploads:           true,
			Analytics:             enums.AnalyticsTierBasic,
			ExportFormats:         []enums.ExportFormat{enums.ExportFormatPNG, enums.ExportFormatJPG, enums.ExportFormatSVG},
		},
	},
	enums.PlanTierFree: {
		Tier:         enums.PlanTierFree,
		Name:         "Free",
		MonthlyPrice: decimal.Zero,
		Limits: Limits{
			MonthlyQRCodes:        10,
			MonthlyDynamicQRCodes: 0,
			MonthlyAPICalls:       0,
			LogoUploads:           false,
			Analytics:             enums.AnalyticsTierNone,
			ExportFormats:         []enums.ExportFormat{enums.ExportFormatPNG},
			WatermarkRequired:     true,
		},
	},
	enums.PlanTierPro: {
		Tier:         enums.PlanTierPro,
		Name:         "Pro",
		MonthlyPrice: decimal.RequireFromString("9.99"),
		Limits: Limits{
			MonthlyQRCodes:        500,
			MonthlyDynamicQRCodes: 50,
			MonthlyAPICalls:       5000,
			LogoUploads:           true,
			Analytics:             enums.AnalyticsTierBasic,
			ExportFormats:         allFormats,
		},
	},
	enums.PlanTierBusiness: {
		Tier:         enums.PlanTierBusiness,
		Name:         "Business",
		MonthlyPrice: decimal.RequireFromString("29.99"),
		Limits: Limits{
			MonthlyQRCodes:        5000,
			MonthlyDynamicQRCodes: 500,
			MonthlyAPICalls:       50000,
			LogoUploads:           true,
			Analytics:             enums.AnalyticsTierAdvanced,
			ExportFormats:         allFormats,
		},
	},
	enums.PlanTierEnterprise: {
		Tier:         enums.PlanTierEnterprise,
		Name:         "Enterprise",
		MonthlyPrice: decimal.RequireFromString("99.99"),
		Limits: Limits{
			MonthlyQRCodes:        Unlimited,
			MonthlyDynamicQRCodes: Unlimited,
			MonthlyAPICalls:       Unlimited,
			LogoUploads:           true,
			Analytics:             enums.AnalyticsTierAdvanced,
			ExportFormats:         allFormats,
		},
	},
}

const defaultCurrency = "USD"

// For returns the limits of tier. Unknown tiers get FREE limits.
func For(tier enums.PlanTier) Limits {
	plan, ok := catalog[tier]
	if !ok {
		plan = catalog[enums.PlanTierFree]
	}
	return plan.Limits.clone()
}

// Lookup returns the catalog entry for tier.
func Lookup(tier enums.PlanTier) (Plan, bool) {
	plan, ok := catalog[tier]
	if !ok {
		return Plan{}, false
	}
	plan.Limits = plan.Limits.clone()
	plan.Currency = defaultCurrency
	return plan, true
}

// Catalog lists every tier in display order.
func Catalog() []Plan {
	tiers := enums.PlanTiers()
	out := make([]Plan, 0, len(tiers))
	for _, tier := range tiers {
		if plan, ok := Lookup(tier); ok {
			out = append(out, plan)
		}
	}
	return out
}

// Quota returns the monthly quota that governs action.
// Logo uploads are boolean gated: 0 when disallowed, Unlimited otherwise.
func (l Limits) Quota(action enums.UsageAction) int {
	switch action {
	case enums.UsageActionQRGenerated:
		return l.MonthlyQRCodes
	case enums.UsageActionDynamicQR:
		return l.MonthlyDynamicQRCodes
	case enums.UsageActionAPICall:
		return l.MonthlyAPICalls
	case enums.UsageActionLogoUpload:
		if l.LogoUploads {
			return Unlimited
		}
		return 0
	default:
		return 0
	}
}

// AllowsFormat reports whether format is exportable on this plan.
func (l Limits) AllowsFormat(format enums.ExportFormat) bool {
	for _, candidate := range l.ExportFormats {
		if candidate == format {
			return true
		}
	}
	return false
}

// IsUnlimited reports whether quota has no ceiling.
func IsUnlimited(quota int) bool {
	return quota == Unlimited
}

func (l Limits) clone() Limits {
	formats := make([]enums.ExportFormat, len(l.ExportFormats))
	copy(formats, l.ExportFormats)
	l.ExportFormats = formats
	return l
}

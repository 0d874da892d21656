package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFolding(t *testing.T) {
	tier, err := ParsePlanTier(" pro ")
	require.NoError(t, err)
	assert.Equal(t, PlanTierPro, tier)

	style, err := ParseModuleStyle("NEON")
	require.NoError(t, err)
	assert.Equal(t, ModuleStyleNeon, style)

	format, err := ParseExportFormat("JPEG")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatJPG, format)
	assert.Equal(t, "image/jpeg", format.MimeType())

	level, err := ParseErrorCorrectionLevel("h")
	require.NoError(t, err)
	assert.Equal(t, ErrorCorrectionH, level)
}

func TestParseExactEnums(t *testing.T) {
	_, err := ParseUsageAction("QR_GENERATED")
	assert.EqualError(t, err, `invalid usage action "QR_GENERATED"`)

	action, err := ParseUsageAction("dynamic_qr")
	require.NoError(t, err)
	assert.Equal(t, UsageActionDynamicQR, action)

	_, err = ParseAnalyticsEventType("order_paid")
	assert.Error(t, err)
}

func TestValuesAreCopies(t *testing.T) {
	tiers := PlanTiers()
	require.Len(t, tiers, 5)
	tiers[0] = "HACKED"
	assert.Equal(t, PlanTierTrial, PlanTiers()[0])
	assert.Len(t, ModuleStyles(), 8)
	assert.Len(t, UsageActions(), 4)
}

func TestPredicates(t *testing.T) {
	assert.True(t, PlanTierBusiness.IsPaid())
	assert.False(t, PlanTierTrial.IsPaid())
	assert.False(t, SubscriptionStatus("paused").IsValid())
	assert.True(t, SubscriptionStatusPastDue.IsValid())
	assert.True(t, AnalyticsTierAdvanced.IsValid())
}

func TestDeviceClassFromUserAgent(t *testing.T) {
	cases := []struct {
		ua   string
		want DeviceClass
	}{
		{"", DeviceClassUnknown},
		{"Mozilla/5.0 (iPad; CPU OS 17_0)", DeviceClassTablet},
		{"Mozilla/5.0 (iPhone; CPU iPhone)", DeviceClassMobile},
		{"Mozilla/5.0 (Linux; Android 14) Mobile", DeviceClassMobile},
		{"Mozilla/5.0 (X11; Linux x86_64)", DeviceClassDesktop},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeviceClassFromUserAgent(tc.ua), tc.ua)
	}
}

package enums

// UsageAction is a metered action kind.
type UsageAction string

const (
	UsageActionQRGenerated UsageAction = "qr_generated"
	UsageActionAPICall     UsageAction = "api_call"
	UsageActionDynamicQR   UsageAction = "dynamic_qr"
	UsageActionLogoUpload  UsageAction = "logo_upload"
)

var usageActions = set[UsageAction]{UsageActionQRGenerated, UsageActionAPICall, UsageActionDynamicQR, UsageActionLogoUpload}

func UsageActions() []UsageAction { return usageActions.values() }

func (a UsageAction) String() string { return string(a) }
func (a UsageAction) IsValid() bool  { return usageActions.has(a) }

func ParseUsageAction(value string) (UsageAction, error) {
	return usageActions.parse("usage action", value, nil)
}

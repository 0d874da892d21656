package enums

// AnalyticsTier is the depth of scan analytics a plan exposes.
type AnalyticsTier string

const (
	AnalyticsTierNone     AnalyticsTier = "none"
	AnalyticsTierBasic    AnalyticsTier = "basic"
	AnalyticsTierAdvanced AnalyticsTier = "advanced"
)

var analyticsTiers = set[AnalyticsTier]{AnalyticsTierNone, AnalyticsTierBasic, AnalyticsTierAdvanced}

func (a AnalyticsTier) String() string { return string(a) }
func (a AnalyticsTier) IsValid() bool  { return analyticsTiers.has(a) }

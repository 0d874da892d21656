package enums

// AnalyticsEventType is the event_type attribute carried on the events topic.
type AnalyticsEventType string

const (
	AnalyticsEventQRScanned     AnalyticsEventType = "qr_scanned"
	AnalyticsEventQRCreated     AnalyticsEventType = "qr_created"
	AnalyticsEventQRDeactivated AnalyticsEventType = "qr_deactivated"
)

var analyticsEventTypes = set[AnalyticsEventType]{
	AnalyticsEventQRScanned,
	AnalyticsEventQRCreated,
	AnalyticsEventQRDeactivated,
}

func (a AnalyticsEventType) IsValid() bool { return analyticsEventTypes.has(a) }

func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	return analyticsEventTypes.parse("analytics event type", value, nil)
}

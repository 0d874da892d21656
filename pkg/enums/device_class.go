package enums

import "strings"

// DeviceClass buckets scanning devices for analytics breakdowns.
type DeviceClass string

const (
	DeviceClassMobile  DeviceClass = "mobile"
	DeviceClassTablet  DeviceClass = "tablet"
	DeviceClassDesktop DeviceClass = "desktop"
	DeviceClassUnknown DeviceClass = "unknown"
)

// DeviceClassFromUserAgent classifies a User-Agent header.
func DeviceClassFromUserAgent(userAgent string) DeviceClass {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return DeviceClassUnknown
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return DeviceClassTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		return DeviceClassMobile
	default:
		return DeviceClassDesktop
	}
}

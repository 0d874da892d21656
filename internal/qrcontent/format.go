package qrcontent

import (
	"net/url"
	"strconv"
	"strings"
)

const defaultWiFiSecurity = "WPA"

var socialBaseURLs = map[string]string{
	"twitter":   "https://twitter.com/",
	"instagram": "https://instagram.com/",
	"facebook":  "https://facebook.com/",
	"linkedin":  "https://linkedin.com/in/",
	"youtube":   "https://youtube.com/@",
	"tiktok":    "https://tiktok.com/@",
	"github":    "https://github.com/",
}

const defaultSocialPlatform = "twitter"

// Format returns the encoder input for p. It never fails; absent optional
// fields are left out and a nil payload formats to "".
func Format(p Payload) string {
	if p == nil {
		return ""
	}
	return p.format()
}

func (u URL) format() string  { return u.URL }
func (t Text) format() string { return t.Text }

func (e Email) format() string {
	params := []string{}
	if e.Subject != "" {
		params = append(params, "subject="+encodeComponent(e.Subject))
	}
	if e.Body != "" {
		params = append(params, "body="+encodeComponent(e.Body))
	}
	out := "mailto:" + e.Address
	if len(params) > 0 {
		out += "?" + strings.Join(params, "&")
	}
	return out
}

func (p Phone) format() string { return "tel:" + p.Number }

func (s SMS) format() string {
	out := "sms:" + s.Number
	if s.Message != "" {
		out += "?body=" + encodeComponent(s.Message)
	}
	return out
}

func (w WiFi) format() string {
	security := w.Security
	if security == "" {
		security = defaultWiFiSecurity
	}
	return "WIFI:T:" + security +
		";S:" + w.SSID +
		";P:" + w.Password +
		";H:" + strconv.FormatBool(w.Hidden) + ";;"
}

func (v VCard) format() string {
	lines := []string{"BEGIN:VCARD", "VERSION:3.0"}
	fields := []struct{ key, value string }{
		{"FN", strings.TrimSpace(v.FirstName + " " + v.LastName)},
		{"ORG", v.Organization},
		{"TEL", v.Phone},
		{"EMAIL", v.Email},
		{"URL", v.Website},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		lines = append(lines, field.key+":"+field.value)
	}
	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\n")
}

func (l Location) format() string {
	return "geo:" + formatCoordinate(l.Latitude) + "," + formatCoordinate(l.Longitude)
}

func (s Social) format() string {
	base, ok := socialBaseURLs[strings.ToLower(strings.TrimSpace(s.Platform))]
	if !ok {
		base = socialBaseURLs[defaultSocialPlatform]
	}
	return base + strings.TrimLeft(s.Handle, "@")
}

func (r Review) format() string { return r.URL }

func formatCoordinate(v *float64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// encodeComponent percent-encodes like a URI component: spaces become %20, not +.
func encodeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

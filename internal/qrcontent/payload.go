// Package qrcontent turns typed QR payloads into the literal strings handed to the encoder.
package qrcontent

import (
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// Payload is one QR content kind. The set of implementations is closed.
type Payload interface {
	Type() enums.QRContentType
	format() string
}

type URL struct {
	URL string `json:"url" validate:"required"`
}

type Text struct {
	Text string `json:"text" validate:"required"`
}

type Email struct {
	Address string `json:"address" validate:"required"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

type Phone struct {
	Number string `json:"number" validate:"required"`
}

type SMS struct {
	Number  string `json:"number" validate:"required"`
	Message string `json:"message,omitempty"`
}

type WiFi struct {
	SSID     string `json:"ssid" validate:"required"`
	Password string `json:"password,omitempty"`
	// Security is WPA, WEP or nopass; empty means WPA.
	Security string `json:"security,omitempty" validate:"omitempty,oneof=WPA WEP nopass"`
	Hidden   bool   `json:"hidden,omitempty"`
}

type VCard struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Website      string `json:"website,omitempty"`
}

type Location struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

type Social struct {
	Platform string `json:"platform,omitempty"`
	Handle   string `json:"handle" validate:"required"`
}

type Review struct {
	URL string `json:"url,omitempty"`
}

func (URL) Type() enums.QRContentType      { return enums.QRContentURL }
func (Text) Type() enums.QRContentType     { return enums.QRContentText }
func (Email) Type() enums.QRContentType    { return enums.QRContentEmail }
func (Phone) Type() enums.QRContentType    { return enums.QRContentPhone }
func (SMS) Type() enums.QRContentType      { return enums.QRContentSMS }
func (WiFi) Type() enums.QRContentType     { return enums.QRContentWiFi }
func (VCard) Type() enums.QRContentType    { return enums.QRContentVCard }
func (Location) Type() enums.QRContentType { return enums.QRContentLocation }
func (Social) Type() enums.QRContentType   { return enums.QRContentSocial }
func (Review) Type() enums.QRContentType   { return enums.QRContentReview }

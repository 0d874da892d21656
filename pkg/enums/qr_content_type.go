package enums

import "strings"

// QRContentType is the semantic kind of payload encoded in a QR code.
type QRContentType string

const (
	QRContentURL      QRContentType = "URL"
	QRContentText     QRContentType = "TEXT"
	QRContentEmail    QRContentType = "EMAIL"
	QRContentPhone    QRContentType = "PHONE"
	QRContentSMS      QRContentType = "SMS"
	QRContentWiFi     QRContentType = "WIFI"
	QRContentVCard    QRContentType = "VCARD"
	QRContentLocation QRContentType = "LOCATION"
	QRContentSocial   QRContentType = "SOCIAL"
	QRContentReview   QRContentType = "REVIEW"
)

var qrContentTypes = set[QRContentType]{
	QRContentURL, QRContentText, QRContentEmail, QRContentPhone, QRContentSMS,
	QRContentWiFi, QRContentVCard, QRContentLocation, QRContentSocial, QRContentReview,
}

func (q QRContentType) String() string { return string(q) }
func (q QRContentType) IsValid() bool  { return qrContentTypes.has(q) }

func ParseQRContentType(value string) (QRContentType, error) {
	return qrContentTypes.parse("qr content type", value, strings.ToUpper)
}

package qrcontent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

var validate = validator.New()

// Decode builds the payload variant named by contentType from its JSON fields
// and checks its required fields.
func Decode(contentType enums.QRContentType, raw json.RawMessage) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}

	var (
		payload Payload
		err     error
	)
	switch contentType {
	case enums.QRContentURL:
		payload, err = decodeInto[URL](raw)
	case enums.QRContentText:
		payload, err = decodeInto[Text](raw)
	case enums.QRContentEmail:
		payload, err = decodeInto[Email](raw)
	case enums.QRContentPhone:
		payload, err = decodeInto[Phone](raw)
	case enums.QRContentSMS:
		payload, err = decodeInto[SMS](raw)
	case enums.QRContentWiFi:
		payload, err = decodeInto[WiFi](raw)
	case enums.QRContentVCard:
		payload, err = decodeInto[VCard](raw)
	case enums.QRContentLocation:
		payload, err = decodeInto[Location](raw)
	case enums.QRContentSocial:
		payload, err = decodeInto[Social](raw)
	case enums.QRContentReview:
		payload, err = decodeInto[Review](raw)
	default:
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", contentType, err)
	}
	return payload, nil
}

// Encode serializes a payload back into the JSON stored with a saved code.
func Encode(p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(p)
}

func decodeInto[T Payload](raw json.RawMessage) (Payload, error) {
	var value T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if err := validate.Struct(value); err != nil {
		return nil, err
	}
	return value, nil
}

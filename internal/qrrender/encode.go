package qrrender

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

var recoveryLevels = map[enums.ErrorCorrectionLevel]qrcode.RecoveryLevel{
	enums.ErrorCorrectionL: qrcode.Low,
	enums.ErrorCorrectionM: qrcode.Medium,
	enums.ErrorCorrectionQ: qrcode.High,
	enums.ErrorCorrectionH: qrcode.Highest,
}

// encodeModules returns the square module grid for content, without quiet zone.
func encodeModules(content string, level enums.ErrorCorrectionLevel) ([][]bool, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrDecode)
	}
	recovery, ok := recoveryLevels[level]
	if !ok {
		return nil, configErrorf("unknown error correction level %q", level)
	}
	code, err := qrcode.New(content, recovery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	code.DisableBorder = true
	return code.Bitmap(), nil
}

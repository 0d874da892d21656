package qrrender

import (
	"errors"
	"fmt"

	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
)

var (
	// ErrConfig marks an invalid style or output request.
	ErrConfig = errors.New("invalid render config")
	// ErrDecode marks content the symbol encoder cannot represent.
	ErrDecode = errors.New("content cannot be encoded")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// AsAPIError maps render failures onto typed API errors; other errors pass through.
func AsAPIError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConfig):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	case errors.Is(err, ErrDecode):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "content cannot be encoded")
	default:
		return err
	}
}

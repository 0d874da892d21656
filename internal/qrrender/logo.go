package qrrender

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

const (
	logoSizeRatio    = 0.2
	logoPaddingRatio = 0.1
)

// Composite draws logo centered over base on a masked background patch and
// returns a new image. A logo that cannot be decoded is logged and base is
// returned unchanged.
func Composite(ctx context.Context, logg *logger.Logger, base *image.RGBA, logo []byte, mask enums.LogoMaskShape, background color.RGBA) *image.RGBA {
	if base == nil || len(logo) == 0 {
		return base
	}
	decoded, err := imaging.Decode(bytes.NewReader(logo), imaging.AutoOrientation(true))
	if err != nil {
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "qr.logo_decode_failed")
		}
		return base
	}

	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)

	size := float64(base.Bounds().Dx())
	logoSide := size * logoSizeRatio
	padding := logoSide * logoPaddingRatio
	logoX := (size - logoSide) / 2
	patchSide := logoSide + 2*padding
	patchX := logoX - padding
	center := size / 2

	dc := gg.NewContextForRGBA(out)
	dc.SetColor(background)
	switch mask {
	case enums.LogoMaskCircle:
		dc.DrawCircle(center, center, patchSide/2)
	case enums.LogoMaskRounded:
		dc.DrawRoundedRectangle(patchX, patchX, patchSide, patchSide, padding)
	default:
		dc.DrawRectangle(patchX, patchX, patchSide, patchSide)
	}
	dc.Fill()

	side := int(logoSide)
	if side <= 0 {
		return out
	}
	fitted := imaging.Fill(decoded, side, side, imaging.Center, imaging.Lanczos)
	pos := int(logoX)
	if mask == enums.LogoMaskCircle {
		dc.DrawCircle(center, center, logoSide/2)
		dc.Clip()
		dc.DrawImage(fitted, pos, pos)
		dc.ResetClip()
		return out
	}
	dc.DrawImage(fitted, pos, pos)
	return out
}

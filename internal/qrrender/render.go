// Package qrrender paints QR module grids in styled rasters, composites logos
// and encodes the result.
package qrrender

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

const (
	logoZoneRatio = 0.25

	roundedRadiusRatio = 0.2
	circleRadiusRatio  = 0.425
	dottedRadiusRatio  = 0.33
	neonInsetRatio     = 0.6
	neonBlurDivisor    = 3.0
	minimalInsetRatio  = 0.8
	minimalAlpha       = 0.8
	gradientDarken     = 20
)

// Render encodes content and paints it on a style.SizePx square canvas. When
// reserveLogo is set, dark modules whose top-left corner falls in the centered
// logo zone are left unpainted.
func Render(content string, style Style, reserveLogo bool) (*image.RGBA, error) {
	if err := style.Validate(); err != nil {
		return nil, err
	}
	grid, err := encodeModules(content, style.ErrorCorrection)
	if err != nil {
		return nil, err
	}
	return paint(grid, style, reserveLogo), nil
}

func paint(grid [][]bool, style Style, reserveLogo bool) *image.RGBA {
	size := float64(style.SizePx)
	canvas := image.NewRGBA(image.Rect(0, 0, style.SizePx, style.SizePx))
	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(style.Background)
	dc.Clear()

	n := len(grid)
	if n == 0 {
		return canvas
	}
	cell := size / float64(n)

	zone := keepOut{}
	if reserveLogo {
		side := size * logoZoneRatio
		zone = keepOut{min: (size - side) / 2, max: (size + side) / 2, active: true}
	}

	var dark []cellPos
	for row := range grid {
		for col, on := range grid[row] {
			if !on {
				continue
			}
			x, y := float64(col)*cell, float64(row)*cell
			if zone.contains(x, y) {
				continue
			}
			dark = append(dark, cellPos{x: x, y: y})
		}
	}

	switch style.ModuleStyle {
	case enums.ModuleStyleGradient:
		paintGradient(dc, dark, cell, style.Foreground)
	case enums.ModuleStyleNeon:
		paintNeon(dc, canvas.Bounds(), dark, cell, style.Foreground)
	default:
		paintShapes(dc, dark, cell, style)
	}
	return canvas
}

type cellPos struct{ x, y float64 }

type keepOut struct {
	min, max float64
	active   bool
}

func (k keepOut) contains(x, y float64) bool {
	return k.active && x >= k.min && x < k.max && y >= k.min && y < k.max
}

// paintShapes handles every style drawn with a single solid fill.
func paintShapes(dc *gg.Context, cells []cellPos, cell float64, style Style) {
	fg := style.Foreground
	dc.SetColor(fg)
	for _, c := range cells {
		switch style.ModuleStyle {
		case enums.ModuleStyleRounded:
			dc.DrawRoundedRectangle(c.x, c.y, cell, cell, cell*roundedRadiusRatio)
		case enums.ModuleStyleCircle:
			dc.DrawCircle(c.x+cell/2, c.y+cell/2, cell*circleRadiusRatio)
		case enums.ModuleStyleDotted:
			dc.DrawCircle(c.x+cell/2, c.y+cell/2, cell*dottedRadiusRatio)
		case enums.ModuleStyleDiamond:
			dc.NewSubPath()
			dc.MoveTo(c.x+cell/2, c.y)
			dc.LineTo(c.x+cell, c.y+cell/2)
			dc.LineTo(c.x+cell/2, c.y+cell)
			dc.LineTo(c.x, c.y+cell/2)
			dc.ClosePath()
		case enums.ModuleStyleMinimal:
			inset := cell * (1 - minimalInsetRatio) / 2
			dc.DrawRectangle(c.x+inset, c.y+inset, cell*minimalInsetRatio, cell*minimalInsetRatio)
		default:
			dc.DrawRectangle(c.x, c.y, cell, cell)
		}
	}
	if style.ModuleStyle == enums.ModuleStyleMinimal {
		dc.SetRGBA(float64(fg.R)/255, float64(fg.G)/255, float64(fg.B)/255, minimalAlpha)
	}
	dc.Fill()
}

func paintGradient(dc *gg.Context, cells []cellPos, cell float64, fg color.RGBA) {
	end := darken(fg, gradientDarken)
	for _, c := range cells {
		grad := gg.NewLinearGradient(c.x, c.y, c.x+cell, c.y+cell)
		grad.AddColorStop(0, fg)
		grad.AddColorStop(1, end)
		dc.SetFillStyle(grad)
		dc.DrawRectangle(c.x, c.y, cell, cell)
		dc.Fill()
	}
}

// paintNeon draws inset squares on a separate layer, blurs a copy of it for
// the glow and lays the glow then the crisp squares over the canvas.
func paintNeon(dc *gg.Context, bounds image.Rectangle, cells []cellPos, cell float64, fg color.RGBA) {
	layer := image.NewRGBA(bounds)
	lc := gg.NewContextForRGBA(layer)
	lc.SetColor(fg)
	inset := cell * (1 - neonInsetRatio) / 2
	for _, c := range cells {
		lc.DrawRectangle(c.x+inset, c.y+inset, cell*neonInsetRatio, cell*neonInsetRatio)
	}
	lc.Fill()

	glow := imaging.Blur(layer, cell/neonBlurDivisor)
	dc.DrawImage(glow, 0, 0)
	dc.DrawImage(layer, 0, 0)
}

func darken(c color.RGBA, amount int) color.RGBA {
	return color.RGBA{
		R: clampChannel(int(c.R) - amount),
		G: clampChannel(int(c.G) - amount),
		B: clampChannel(int(c.B) - amount),
		A: c.A,
	}
}

func clampChannel(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

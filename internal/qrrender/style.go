package qrrender

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

// Style controls how a QR symbol is painted.
type Style struct {
	SizePx          int
	ErrorCorrection enums.ErrorCorrectionLevel
	Foreground      color.RGBA
	Background      color.RGBA
	ModuleStyle     enums.ModuleStyle
	LogoMask        enums.LogoMaskShape
}

// DefaultStyle is black square modules on white at M correction.
func DefaultStyle(sizePx int) Style {
	return Style{
		SizePx:          sizePx,
		ErrorCorrection: enums.ErrorCorrectionM,
		Foreground:      color.RGBA{A: 0xff},
		Background:      color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		ModuleStyle:     enums.ModuleStyleSquare,
		LogoMask:        enums.LogoMaskSquare,
	}
}

// Validate checks the preconditions of Render.
func (s Style) Validate() error {
	if s.SizePx <= 0 {
		return configErrorf("size must be positive, got %d", s.SizePx)
	}
	if !s.ErrorCorrection.IsValid() {
		return configErrorf("unknown error correction level %q", s.ErrorCorrection)
	}
	if s.LogoMask != "" && !s.LogoMask.IsValid() {
		return configErrorf("unknown logo mask %q", s.LogoMask)
	}
	return nil
}

// StyleSpec is the wire form of Style: hex colors and enum names.
type StyleSpec struct {
	SizePx          int    `json:"size_px,omitempty" validate:"omitempty,min=64,max=4096"`
	ErrorCorrection string `json:"error_correction,omitempty" validate:"omitempty,oneof=L M Q H l m q h"`
	Foreground      string `json:"foreground,omitempty"`
	Background      string `json:"background,omitempty"`
	ModuleStyle     string `json:"module_style,omitempty"`
	LogoMask        string `json:"logo_mask,omitempty"`
}

// Resolve converts the spec into a Style, filling blanks from DefaultStyle(defaultSize).
// Malformed colors and unknown enum names are config errors.
func (s StyleSpec) Resolve(defaultSize int) (Style, error) {
	style := DefaultStyle(defaultSize)
	if s.SizePx != 0 {
		style.SizePx = s.SizePx
	}
	if s.ErrorCorrection != "" {
		level, err := enums.ParseErrorCorrectionLevel(s.ErrorCorrection)
		if err != nil {
			return Style{}, configErrorf("%v", err)
		}
		style.ErrorCorrection = level
	}
	if s.Foreground != "" {
		c, err := ParseHexColor(s.Foreground)
		if err != nil {
			return Style{}, err
		}
		style.Foreground = c
	}
	if s.Background != "" {
		c, err := ParseHexColor(s.Background)
		if err != nil {
			return Style{}, err
		}
		style.Background = c
	}
	if s.ModuleStyle != "" {
		ms, err := enums.ParseModuleStyle(s.ModuleStyle)
		if err != nil {
			return Style{}, configErrorf("%v", err)
		}
		style.ModuleStyle = ms
	}
	if s.LogoMask != "" {
		mask, err := enums.ParseLogoMaskShape(s.LogoMask)
		if err != nil {
			return Style{}, configErrorf("%v", err)
		}
		style.LogoMask = mask
	}
	return style, style.Validate()
}

// SpecFor is the inverse of Resolve, used to persist a style.
func SpecFor(style Style) StyleSpec {
	return StyleSpec{
		SizePx:          style.SizePx,
		ErrorCorrection: style.ErrorCorrection.String(),
		Foreground:      HexColor(style.Foreground),
		Background:      HexColor(style.Background),
		ModuleStyle:     style.ModuleStyle.String(),
		LogoMask:        style.LogoMask.String(),
	}
}

// ParseHexColor parses #RRGGBB (the leading # is optional) into an opaque color.
func ParseHexColor(value string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 {
		return color.RGBA{}, configErrorf("malformed color %q", value)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, configErrorf("malformed color %q", value)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// HexColor formats c as #rrggbb, ignoring alpha.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

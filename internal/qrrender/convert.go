package qrrender

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/qrgenpro/qrgen-backend/pkg/enums"
)

const (
	// WatermarkText is stamped on images exported by plans that require it.
	WatermarkText = "QR Generator Pro"

	jpegQuality      = 90
	watermarkOpacity = 0.5
	watermarkMargin  = 0.02
	watermarkWidth   = 0.35
)

// Convert encodes img in the requested format, stamping the watermark first
// when asked. SVG and PDF are not vectorized: they return the PNG bytes under
// their own MIME type.
func Convert(img image.Image, format enums.ExportFormat, watermark bool) ([]byte, string, error) {
	if img == nil {
		return nil, "", configErrorf("image is required")
	}
	if !format.IsValid() {
		return nil, "", configErrorf("unknown export format %q", format)
	}
	if watermark {
		img = stampWatermark(img)
	}

	encoding := imaging.PNG
	opts := []imaging.EncodeOption{}
	if format == enums.ExportFormatJPG {
		encoding = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(jpegQuality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, encoding, opts...); err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), format.MimeType(), nil
}

// stampWatermark renders the label with the built-in bitmap face, scales it to
// a fraction of the image width and overlays it bottom-right.
func stampWatermark(img image.Image) image.Image {
	bounds := img.Bounds()
	width := float64(bounds.Dx())

	measure := gg.NewContext(1, 1)
	textW, textH := measure.MeasureString(WatermarkText)
	labelW, labelH := int(textW)+2, int(textH)+4

	label := gg.NewContext(labelW, labelH)
	label.SetRGB(0.5, 0.5, 0.5)
	label.DrawStringAnchored(WatermarkText, 1, float64(labelH)/2, 0, 0.5)

	targetW := int(width * watermarkWidth)
	if targetW < labelW {
		targetW = labelW
	}
	scaled := imaging.Resize(label.Image(), targetW, 0, imaging.NearestNeighbor)

	margin := int(width * watermarkMargin)
	pos := image.Pt(
		bounds.Max.X-scaled.Bounds().Dx()-margin,
		bounds.Max.Y-scaled.Bounds().Dy()-margin,
	)
	return imaging.Overlay(img, scaled, pos, watermarkOpacity)
}

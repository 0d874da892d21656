package qrrender

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/qrgenpro/qrgen-backend/internal/qrcontent"
	"github.com/qrgenpro/qrgen-backend/pkg/enums"
	pkgerrors "github.com/qrgenpro/qrgen-backend/pkg/errors"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

func TestRenderProducesExactCanvasForEveryStyle(t *testing.T) {
	for _, size := range []int{64, 257, 512} {
		for _, ms := range enums.ModuleStyles() {
			style := DefaultStyle(size)
			style.ModuleStyle = ms
			img, err := Render("https://example.com", style, false)
			if err != nil {
				t.Fatalf("Render(%s, %d): %v", ms, size, err)
			}
			if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
				t.Fatalf("style %s size %d: got %dx%d", ms, size, b.Dx(), b.Dy())
			}
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	style := DefaultStyle(300)
	style.ModuleStyle = enums.ModuleStyleNeon
	style.Foreground = color.RGBA{R: 0x10, G: 0xc0, B: 0xff, A: 0xff}

	encode := func() []byte {
		img, err := Render("same content", style, false)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		out, _, err := Convert(img, enums.ExportFormatPNG, false)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		return out
	}
	if !bytes.Equal(encode(), encode()) {
		t.Fatal("expected identical bytes for identical input")
	}
}

func TestRenderPaintsForegroundInFirstFinderModule(t *testing.T) {
	style := DefaultStyle(210)
	img, err := Render("finder", style, false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// the top-left finder pattern always starts with a dark module
	if got := img.RGBAAt(1, 1); got != style.Foreground {
		t.Fatalf("expected foreground at origin module, got %v", got)
	}
}

func TestRenderKeepsLogoZoneClear(t *testing.T) {
	style := DefaultStyle(400)
	img, err := Render(strings.Repeat("dense payload ", 20), style, true)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	center := img.RGBAAt(200, 200)
	if center != style.Background {
		t.Fatalf("expected background at canvas center, got %v", center)
	}
}

func TestRenderRejectsInvalidConfig(t *testing.T) {
	_, err := Render("x", Style{SizePx: 0, ErrorCorrection: enums.ErrorCorrectionM}, false)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	_, err = Render("x", Style{SizePx: 10, ErrorCorrection: "Z"}, false)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for bad level, got %v", err)
	}
	apiErr := pkgerrors.As(AsAPIError(err))
	if apiErr == nil || apiErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation api error, got %v", apiErr)
	}
}

func TestRenderRejectsOversizedContent(t *testing.T) {
	style := DefaultStyle(100)
	style.ErrorCorrection = enums.ErrorCorrectionH
	_, err := Render(strings.Repeat("x", 5000), style, false)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if _, err := Render("", style, false); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for empty content, got %v", err)
	}
}

func TestDarkenClamps(t *testing.T) {
	got := darken(color.RGBA{R: 10, G: 200, B: 20, A: 255}, 20)
	want := color.RGBA{R: 0, G: 180, B: 0, A: 255}
	if got != want {
		t.Fatalf("darken = %v, want %v", got, want)
	}
}

func TestStyleSpecResolve(t *testing.T) {
	style, err := StyleSpec{
		SizePx:          256,
		ErrorCorrection: "h",
		Foreground:      "#112233",
		ModuleStyle:     "Diamond",
		LogoMask:        "circle",
	}.Resolve(512)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if style.SizePx != 256 || style.ErrorCorrection != enums.ErrorCorrectionH || style.ModuleStyle != enums.ModuleStyleDiamond {
		t.Fatalf("unexpected style %+v", style)
	}
	if style.Foreground != (color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff}) {
		t.Fatalf("unexpected foreground %v", style.Foreground)
	}
	if SpecFor(style).Foreground != "#112233" {
		t.Fatalf("SpecFor should round trip colors")
	}

	if _, err := (StyleSpec{Background: "#zzzzzz"}).Resolve(512); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for malformed color, got %v", err)
	}
	if _, err := (StyleSpec{ModuleStyle: "hexagon"}).Resolve(512); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for unknown style, got %v", err)
	}
}

func TestCompositeIgnoresUndecodableLogo(t *testing.T) {
	style := DefaultStyle(200)
	base, err := Render("logo test", style, true)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	log := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	out := Composite(context.Background(), log, base, []byte("not an image"), enums.LogoMaskCircle, style.Background)
	if out != base {
		t.Fatal("expected base image to be returned unchanged")
	}
}

func TestCompositeDrawsLogoInCenter(t *testing.T) {
	style := DefaultStyle(200)
	base, err := Render("logo test", style, true)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	red := color.RGBA{R: 0xff, A: 0xff}
	for _, mask := range []enums.LogoMaskShape{enums.LogoMaskSquare, enums.LogoMaskRounded, enums.LogoMaskCircle} {
		out := Composite(context.Background(), nil, base, solidPNG(t, 32, red), mask, style.Background)
		if out == base {
			t.Fatalf("mask %s: expected a new image", mask)
		}
		if got := out.RGBAAt(100, 100); got != red {
			t.Fatalf("mask %s: expected logo color at center, got %v", mask, got)
		}
		if out.Bounds() != base.Bounds() {
			t.Fatalf("mask %s: bounds changed", mask)
		}
	}
}

func TestConvertWatermarkChangesOutput(t *testing.T) {
	img, err := Render("watermark", DefaultStyle(300), false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	plain, mime, err := Convert(img, enums.ExportFormatPNG, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("unexpected mime %q", mime)
	}
	marked, _, err := Convert(img, enums.ExportFormatPNG, true)
	if err != nil {
		t.Fatalf("Convert watermark: %v", err)
	}
	if bytes.Equal(plain, marked) {
		t.Fatal("expected watermark to change the encoded bytes")
	}
}

func TestConvertFormats(t *testing.T) {
	img, err := Render("formats", DefaultStyle(128), false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	pngBytes, _, err := Convert(img, enums.ExportFormatPNG, false)
	if err != nil {
		t.Fatalf("Convert png: %v", err)
	}

	jpg, mime, err := Convert(img, enums.ExportFormatJPG, false)
	if err != nil || mime != "image/jpeg" {
		t.Fatalf("Convert jpg: %v %q", err, mime)
	}
	if !bytes.HasPrefix(jpg, []byte{0xff, 0xd8}) {
		t.Fatal("expected jpeg magic bytes")
	}

	for format, wantMime := range map[enums.ExportFormat]string{
		enums.ExportFormatSVG: "image/svg+xml",
		enums.ExportFormatPDF: "application/pdf",
	} {
		out, mime, err := Convert(img, format, false)
		if err != nil {
			t.Fatalf("Convert %s: %v", format, err)
		}
		if mime != wantMime {
			t.Fatalf("%s mime = %q", format, mime)
		}
		if !bytes.Equal(out, pngBytes) {
			t.Fatalf("%s should pass the PNG bytes through", format)
		}
	}

	if _, _, err := Convert(img, enums.ExportFormat("gif"), false); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for unknown format, got %v", err)
	}
}

func TestGeneratorPipeline(t *testing.T) {
	gen := NewGenerator(nil, nil)
	style := DefaultStyle(256)
	style.ModuleStyle = enums.ModuleStyleRounded
	res, err := gen.Generate(context.Background(), Request{
		Payload: qrcontent.WiFi{SSID: "Home", Password: "pw123", Hidden: true},
		Style:   style,
		Logo:    solidPNG(t, 16, color.RGBA{B: 0xff, A: 0xff}),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Encoded != "WIFI:T:WPA;S:Home;P:pw123;H:true;;" {
		t.Fatalf("unexpected encoded content %q", res.Encoded)
	}
	if res.MimeType != "image/png" {
		t.Fatalf("expected png default, got %q", res.MimeType)
	}
	decoded, err := png.Decode(bytes.NewReader(res.Bytes))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Bounds().Dx() != 256 {
		t.Fatalf("unexpected output width %d", decoded.Bounds().Dx())
	}
}

func solidPNG(t *testing.T, side int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

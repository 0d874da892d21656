package enums

import "strings"

// ExportFormat is an output encoding for rendered QR images.
type ExportFormat string

const (
	ExportFormatPNG ExportFormat = "png"
	ExportFormatJPG ExportFormat = "jpg"
	ExportFormatSVG ExportFormat = "svg"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportFormats = set[ExportFormat]{ExportFormatPNG, ExportFormatJPG, ExportFormatSVG, ExportFormatPDF}

func (f ExportFormat) String() string { return string(f) }
func (f ExportFormat) IsValid() bool  { return exportFormats.has(f) }

// MimeType is the advertised content type. SVG and PDF keep their own types
// even though the bytes are PNG.
func (f ExportFormat) MimeType() string {
	switch f {
	case ExportFormatJPG:
		return "image/jpeg"
	case ExportFormatSVG:
		return "image/svg+xml"
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// ParseExportFormat is case-insensitive and accepts "jpeg" for jpg.
func ParseExportFormat(value string) (ExportFormat, error) {
	return exportFormats.parse("export format", value, func(s string) string {
		s = strings.ToLower(s)
		if s == "jpeg" {
			return string(ExportFormatJPG)
		}
		return s
	})
}

package enums

import "strings"

// ModuleStyle selects how each dark module is painted.
type ModuleStyle string

const (
	ModuleStyleSquare   ModuleStyle = "square"
	ModuleStyleRounded  ModuleStyle = "rounded"
	ModuleStyleCircle   ModuleStyle = "circle"
	ModuleStyleDiamond  ModuleStyle = "diamond"
	ModuleStyleDotted   ModuleStyle = "dotted"
	ModuleStyleGradient ModuleStyle = "gradient"
	ModuleStyleNeon     ModuleStyle = "neon"
	ModuleStyleMinimal  ModuleStyle = "minimal"
)

var moduleStyles = set[ModuleStyle]{
	ModuleStyleSquare, ModuleStyleRounded, ModuleStyleCircle, ModuleStyleDiamond,
	ModuleStyleDotted, ModuleStyleGradient, ModuleStyleNeon, ModuleStyleMinimal,
}

func ModuleStyles() []ModuleStyle { return moduleStyles.values() }

func (s ModuleStyle) String() string { return string(s) }
func (s ModuleStyle) IsValid() bool  { return moduleStyles.has(s) }

func ParseModuleStyle(value string) (ModuleStyle, error) {
	return moduleStyles.parse("module style", value, strings.ToLower)
}

// LogoMaskShape is the background patch drawn behind a logo.
type LogoMaskShape string

const (
	LogoMaskSquare  LogoMaskShape = "square"
	LogoMaskRounded LogoMaskShape = "rounded"
	LogoMaskCircle  LogoMaskShape = "circle"
)

var logoMaskShapes = set[LogoMaskShape]{LogoMaskSquare, LogoMaskRounded, LogoMaskCircle}

func (m LogoMaskShape) String() string { return string(m) }
func (m LogoMaskShape) IsValid() bool  { return logoMaskShapes.has(m) }

func ParseLogoMaskShape(value string) (LogoMaskShape, error) {
	return logoMaskShapes.parse("logo mask shape", value, strings.ToLower)
}

// ErrorCorrectionLevel is the QR redundancy level.
type ErrorCorrectionLevel string

const (
	ErrorCorrectionL ErrorCorrectionLevel = "L"
	ErrorCorrectionM ErrorCorrectionLevel = "M"
	ErrorCorrectionQ ErrorCorrectionLevel = "Q"
	ErrorCorrectionH ErrorCorrectionLevel = "H"
)

var errorCorrectionLevels = set[ErrorCorrectionLevel]{ErrorCorrectionL, ErrorCorrectionM, ErrorCorrectionQ, ErrorCorrectionH}

func (e ErrorCorrectionLevel) String() string { return string(e) }
func (e ErrorCorrectionLevel) IsValid() bool  { return errorCorrectionLevels.has(e) }

func ParseErrorCorrectionLevel(value string) (ErrorCorrectionLevel, error) {
	return errorCorrectionLevels.parse("error correction level", value, strings.ToUpper)
}

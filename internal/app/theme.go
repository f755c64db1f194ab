package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// CurveEditorTheme is the application theme: the default dark theme with
// the highlight colors of the chain overlay.
type CurveEditorTheme struct{}

var _ fyne.Theme = (*CurveEditorTheme)(nil)

func (t *CurveEditorTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF} // selected points
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0x50, G: 0x8C, B: 0xFF, A: 0x80} // fixed points
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *CurveEditorTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *CurveEditorTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *CurveEditorTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeNames_IncludesDefault(t *testing.T) {
	assert.Contains(t, ThemeNames(), DefaultTheme)
	assert.IsNonDecreasing(t, ThemeNames())
}

func TestSetTheme_RebuildsColors(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	p, ok := GetPalette("gruvbox")
	require.True(t, ok)

	SetTheme(p)
	assert.Equal(t, p.Primary, ColorPrimary)
	assert.Equal(t, p.Error, ColorError)
}

func TestColorForString_Deterministic(t *testing.T) {
	assert.Equal(t, ColorForString("Heung-Min Son"), ColorForString("Heung-Min Son"))
}

func TestGlamourStyle_UsesPalette(t *testing.T) {
	cfg := GlamourStyle()
	require.NotNil(t, cfg.Document.Color)
	assert.NotEmpty(t, *cfg.Document.Color)
}

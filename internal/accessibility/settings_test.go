package accessibility

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/models"
)

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestFontSteps(t *testing.T) {
	s := Defaults()
	s = s.IncreaseFont()
	assert.Equal(t, 16, s.FontSize)

	for range 10 {
		s = s.IncreaseFont()
	}
	assert.Equal(t, MaxFontSize, s.FontSize)

	for range 20 {
		s = s.DecreaseFont()
	}
	assert.Equal(t, MinFontSize, s.FontSize)
}

func TestToggleHighContrast(t *testing.T) {
	s := Defaults().ToggleHighContrast()
	assert.True(t, s.HighContrast)
	assert.False(t, s.ToggleHighContrast().HighContrast)
}

func TestValidate_Rejects(t *testing.T) {
	s := Defaults()
	s.FontSize = 30
	var verr *models.ValidationError
	require.ErrorAs(t, s.Validate(), &verr)
	assert.Contains(t, verr.Fields, "fontsize")

	s = Defaults()
	s.ColorBlindMode = "monochrome"
	assert.Error(t, s.Validate())

	s = Defaults()
	s.Theme.Primary = "blue"
	assert.Error(t, s.Validate())
}

func TestLoad_FromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("accessibility.high_contrast", true)
	v.Set("accessibility.font_size", 18)
	v.Set("accessibility.color_blind_mode", "tritanopia")

	s, err := Load(v)
	require.NoError(t, err)
	assert.True(t, s.HighContrast)
	assert.Equal(t, 18, s.FontSize)
	assert.Equal(t, ColorBlindTritanopia, s.ColorBlindMode)
	assert.Equal(t, "#6366f1", s.Theme.Primary, "unset keys keep defaults")
	assert.True(t, s.FocusVisible)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("accessibility.font_size", 4)
	_, err := Load(v)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	v := viper.New()
	want := Defaults().ToggleHighContrast().IncreaseFont()
	want.FontFamily = FontDyslexic
	Save(v, want)

	got, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "font_size")
	assert.Contains(t, keys, "theme.primary")
	assert.True(t, strings.Compare(keys[0], keys[len(keys)-1]) < 0)
}

func TestApply(t *testing.T) {
	s := Defaults()
	s.HighContrast = true
	s.ReducedMotion = true
	s.ColorBlindMode = ColorBlindDeuteranopia
	s.FontFamily = FontSerif
	s.FontSize = 20

	p := Apply(s)
	assert.Equal(t, []string{"high-contrast", "reduce-motion", "focus-visible", "colorblind-deuteranopia"}, p.Classes)
	assert.Equal(t, "20px", p.Properties["--ups-font-size"])
	assert.Equal(t, "Georgia, 'Times New Roman', serif", p.Properties["--ups-font-family"])
	assert.Equal(t, "#ffffff", p.Properties["--ups-background"])

	css := p.CSS()
	assert.True(t, strings.HasPrefix(css, ":root {\n"))
	assert.Contains(t, css, "  --ups-font-size: 20px;\n")
}

func TestApply_DefaultsHaveNoStateClasses(t *testing.T) {
	p := Apply(Defaults())
	assert.Equal(t, []string{"focus-visible"}, p.Classes)
}

func TestController(t *testing.T) {
	var changes []Settings
	c := NewController(Defaults(), func(s Settings) { changes = append(changes, s) })

	s, err := c.Update(Settings.IncreaseFont)
	require.NoError(t, err)
	assert.Equal(t, 16, s.FontSize)
	assert.Equal(t, 16, c.Get().FontSize)

	_, err = c.Update(func(s Settings) Settings {
		s.FontSize = 99
		return s
	})
	assert.Error(t, err)
	assert.Equal(t, 16, c.Get().FontSize, "invalid update is discarded")

	_, err = c.Update(func(s Settings) Settings {
		s.VoiceAnnouncements = true
		return s
	})
	require.NoError(t, err)
	assert.True(t, c.VoiceAnnouncements())

	assert.Equal(t, Defaults(), c.Reset())
	assert.Len(t, changes, 3)
}

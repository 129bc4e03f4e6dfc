package theme

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds precomputed colors derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Today       lipgloss.Color
	Weekend     lipgloss.Color
	Warning     lipgloss.Color

	TextOnAccent  lipgloss.Color
	TextOnToday   lipgloss.Color
	TextOnWarning lipgloss.Color

	priority map[string]lipgloss.Color
	todo     map[string]todoColors
}

type todoColors struct {
	fg     lipgloss.Color
	bg     lipgloss.Color
	pastBg lipgloss.Color
	text   lipgloss.Color
}

// NewPalette derives a Palette from the provided Theme.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultName)
	}
	isLight := isLightTheme(t.Bg)

	p := &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Today:       lipgloss.Color(t.Today),
		Weekend:     lipgloss.Color(t.Weekend),
		Warning:     lipgloss.Color(t.Warning),

		TextOnAccent:  lipgloss.Color(chooseTextColor(t.Accent, t.Bg, t.Fg)),
		TextOnToday:   lipgloss.Color(chooseTextColor(t.Today, t.Bg, t.Fg)),
		TextOnWarning: lipgloss.Color(chooseTextColor(t.Warning, t.Bg, t.Fg)),

		priority: map[string]lipgloss.Color{
			"high":   lipgloss.Color(t.High),
			"medium": lipgloss.Color(t.Medium),
			"low":    lipgloss.Color(t.Low),
		},
		todo: make(map[string]todoColors, len(t.Colors)),
	}

	for name, hex := range t.Colors {
		bg := blockBg(hex, t.Bg, isLight)
		p.todo[name] = todoColors{
			fg:     lipgloss.Color(hex),
			bg:     lipgloss.Color(bg),
			pastBg: lipgloss.Color(pastBg(hex, t.Bg, isLight)),
			text:   lipgloss.Color(chooseTextColor(bg, t.Fg, t.Bg)),
		}
	}
	return p
}

// Priority returns the color for a priority name, or Fg when unknown.
func (p *Palette) Priority(name string) lipgloss.Color {
	if c, ok := p.priority[name]; ok {
		return c
	}
	return p.Fg
}

// TodoFg returns the accent for a todo color name, or Accent when unknown.
func (p *Palette) TodoFg(name string) lipgloss.Color {
	if c, ok := p.todo[name]; ok {
		return c.fg
	}
	return p.Accent
}

// TodoBg returns the block background for a todo color name. Past todos
// get a more muted shade.
func (p *Palette) TodoBg(name string, past bool) lipgloss.Color {
	c, ok := p.todo[name]
	switch {
	case !ok:
		return p.BgHighlight
	case past:
		return c.pastBg
	default:
		return c.bg
	}
}

// TodoText returns a readable foreground on TodoBg.
func (p *Palette) TodoText(name string) lipgloss.Color {
	if c, ok := p.todo[name]; ok {
		return c.text
	}
	return p.Fg
}

func isLightTheme(bg string) bool {
	return relativeLuminance(bg) > 0.55
}

func blockBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.75)
	}
	return scaleColor(accent, 0.50, 40)
}

func pastBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.88)
	}
	return scaleColor(accent, 0.30, 30)
}

// scaleColor multiplies each channel by factor, keeping it at or above floor
// so blocks stay visible on dark themes.
func scaleColor(hex string, factor float64, floor int) string {
	r, g, b, ok := parseRGB(hex)
	if !ok {
		return hex
	}
	scale := func(c int) int { return max(int(float64(c)*factor), floor) }
	return formatRGB(scale(r), scale(g), scale(b))
}

func parseRGB(hex string) (r, g, b int, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

func formatRGB(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func chooseTextColor(bg, lightText, darkText string) string {
	if contrastRatio(bg, lightText) >= contrastRatio(bg, darkText) {
		return lightText
	}
	return darkText
}

func contrastRatio(a, b string) float64 {
	l1, l2 := relativeLuminance(a), relativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func relativeLuminance(hex string) float64 {
	r, g, b, ok := parseRGB(hex)
	if !ok {
		return 0
	}
	return 0.2126*srgbToLinear(r) + 0.7152*srgbToLinear(g) + 0.0722*srgbToLinear(b)
}

func srgbToLinear(c int) float64 {
	v := float64(c) / 255.0
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// blendColors mixes a toward b by ratio in [0, 1].
func blendColors(a, b string, ratio float64) string {
	ar, ag, ab, ok1 := parseRGB(a)
	br, bg, bb, ok2 := parseRGB(b)
	if !ok1 || !ok2 {
		return a
	}
	ratio = min(max(ratio, 0), 1)
	mix := func(x, y int) int { return int(float64(x)*(1-ratio) + float64(y)*ratio) }
	return formatRGB(mix(ar, br), mix(ag, bg), mix(ab, bb))
}

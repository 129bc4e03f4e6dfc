// Package theme provides color themes for the TUI.
package theme

import (
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// DefaultName is used when no theme or an unknown theme is configured.
const DefaultName = "mocha"

// Theme holds all colors for a TUI theme as hex strings.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Day cells, subtle highlight
	BgSelection string `toml:"bg_selection"` // Cursor, selection
	Fg          string `toml:"fg"`           // Primary foreground
	FgMuted     string `toml:"fg_muted"`     // Past todos, days outside the month
	Accent      string `toml:"accent"`       // Title, borders
	Today       string `toml:"today"`        // Today's cell
	Weekend     string `toml:"weekend"`      // Weekend cell background
	Warning     string `toml:"warning"`      // Conflicts, errors

	High   string `toml:"high"`
	Medium string `toml:"medium"`
	Low    string `toml:"low"`

	// Colors maps todo accent names (blue, green, ...) to hex values.
	Colors map[string]string `toml:"colors"`
}

// Load loads a theme by name from embedded files.
// Unknown names fall back to the default theme.
func Load(name string) (*Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}

	data, err := embeddedThemes.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		if name != DefaultName {
			return Load(DefaultName)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	t.applyDefaults()
	return &t, nil
}

func (t *Theme) applyDefaults() {
	t.BgHighlight = coalesce(t.BgHighlight, t.Bg)
	t.BgSelection = coalesce(t.BgSelection, t.BgHighlight, t.Accent)
	t.FgMuted = coalesce(t.FgMuted, t.Fg)
	t.Today = coalesce(t.Today, t.Accent)
	t.Weekend = coalesce(t.Weekend, t.Bg)
	t.Warning = coalesce(t.Warning, t.High, t.Accent)
	t.Medium = coalesce(t.Medium, t.Accent)
	t.High = coalesce(t.High, t.Medium)
	t.Low = coalesce(t.Low, t.Medium)
	if t.Colors == nil {
		t.Colors = map[string]string{}
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte", "light"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	return slices.Contains(Available(), strings.ToLower(name))
}

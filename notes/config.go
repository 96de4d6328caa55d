package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Config is the user-facing state kept in config.json. Fields are declared
// in key order so the file is written with sorted keys.
type Config struct {
	AlwaysOnTop     bool     `json:"always_on_top"`
	AutoHideOnFocus bool     `json:"auto_hide_on_focus"`
	Borderless      bool     `json:"borderless"`
	FontFamily      string   `json:"font_family"`
	FontSize        int      `json:"font_size"`
	MinHeight       int      `json:"min_height"`
	MinWidth        int      `json:"min_width"`
	NoteColors      []string `json:"note_colors"`
	SnapDistance    int      `json:"snap_distance"`
	TextBG          string   `json:"text_bg"`
	TextFG          string   `json:"text_fg"`
	WindowAlpha     float64  `json:"window_alpha"`
}

// DefaultConfig returns a fresh copy of the built-in defaults.
func DefaultConfig() Config {
	return Config{
		AlwaysOnTop:     true,
		AutoHideOnFocus: false,
		Borderless:      false,
		FontFamily:      "Dosis",
		FontSize:        12,
		MinHeight:       220,
		MinWidth:        420,
		NoteColors: []string{
			"#1e1e1e",
			"#222034",
			"#1f2a1f",
			"#2b1f1f",
			"#1f2b2b",
		},
		SnapDistance: 16,
		TextBG:       "#151515",
		TextFG:       "#F2F2F2",
		WindowAlpha:  0.92,
	}
}

// Clone returns a deep copy; the palette slice is not shared.
func (c Config) Clone() Config {
	out := c
	if c.NoteColors != nil {
		out.NoteColors = append([]string(nil), c.NoteColors...)
	}
	return out
}

// fields maps every schema key to a decoder for it. Keys not listed here are
// dropped on load and therefore never written back.
func (c *Config) fields() map[string]func(json.RawMessage) error {
	return map[string]func(json.RawMessage) error{
		"always_on_top":      decodeInto(&c.AlwaysOnTop),
		"auto_hide_on_focus": decodeInto(&c.AutoHideOnFocus),
		"borderless":         decodeInto(&c.Borderless),
		"font_family":        decodeInto(&c.FontFamily),
		"font_size":          decodeInto(&c.FontSize),
		"min_height":         decodeInto(&c.MinHeight),
		"min_width":          decodeInto(&c.MinWidth),
		"note_colors":        decodeInto(&c.NoteColors),
		"snap_distance":      decodeInto(&c.SnapDistance),
		"text_bg":            decodeInto(&c.TextBG),
		"text_fg":            decodeInto(&c.TextFG),
		"window_alpha":       decodeInto(&c.WindowAlpha),
	}
}

// decodeInto only assigns dst when the whole value decodes.
func decodeInto[T any](dst *T) func(json.RawMessage) error {
	return func(msg json.RawMessage) error {
		var v T
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

// ParseConfig overlays the JSON object in data onto the defaults. Broken
// JSON or a non-object yields the defaults and an error. A key whose value
// has the wrong type keeps its default; the error lists those keys but the
// returned Config is still usable.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return DefaultConfig(), err
	}

	var errs []error
	fields := cfg.fields()
	for key, msg := range raw {
		decode, ok := fields[key]
		if !ok || string(bytes.TrimSpace(msg)) == "null" {
			continue
		}
		if err := decode(msg); err != nil {
			errs = append(errs, fmt.Errorf("key %q: %w", key, err))
		}
	}
	return cfg, errors.Join(errs...)
}

// MarshalConfig renders c as pretty-printed JSON.
func MarshalConfig(c Config) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ClampAlpha bounds a window opacity to what the menu allows.
func ClampAlpha(a float64) float64 {
	return min(max(a, MinAlpha), MaxAlpha)
}

// AlphaPresetIndex returns the index of the AlphaPresets entry equal to a,
// or -1 when a is a custom value.
func AlphaPresetIndex(a float64) int {
	for i, p := range AlphaPresets {
		if math.Abs(p.Value-a) < 1e-9 {
			return i
		}
	}
	return -1
}

// NormalizeColor accepts "#rgb" or "#rrggbb" (the '#' is optional) and
// returns the lower-case "#rrggbb" form.
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if (len(s) != 4 && len(s) != 7) || strings.Trim(s[1:], "0123456789abcdefABCDEF") != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return c.Hex(), nil
}

// HexFromRGB converts 0..1 channel values, as color pickers report them, to
// "#rrggbb".
func HexFromRGB(r, g, b float64) string {
	return colorful.Color{R: r, G: g, B: b}.Clamped().Hex()
}

// RGBFromHex is the inverse of HexFromRGB.
func RGBFromHex(s string) (r, g, b float64, err error) {
	hex, err := NormalizeColor(s)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, 0, 0, err
	}
	return c.R, c.G, c.B, nil
}

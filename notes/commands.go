package notes

import (
	"fmt"
	"strconv"
	"strings"
)

// Effect lists what the App has to do after a command changed state.
type Effect uint

const (
	EffectAlpha Effect = 1 << iota
	EffectTopmost
	EffectBorderless
	EffectAutoHide
	EffectColors
	EffectFont
	EffectRecolor
	EffectPersist
	EffectVisibility
	EffectTimestamp
	EffectSave
	EffectQuit
)

func (e Effect) Has(f Effect) bool { return e&f != 0 }

// Command is one user action. Apply mutates cfg (and nothing else) and
// reports the follow-up work. A command that returns an error has left cfg
// untouched.
type Command interface {
	Apply(cfg *Config) (Effect, error)
}

type SetAlpha struct{ Alpha float64 }

func (c SetAlpha) Apply(cfg *Config) (Effect, error) {
	cfg.WindowAlpha = ClampAlpha(c.Alpha)
	return EffectAlpha | EffectPersist, nil
}

type ToggleTopmost struct{}

func (ToggleTopmost) Apply(cfg *Config) (Effect, error) {
	cfg.AlwaysOnTop = !cfg.AlwaysOnTop
	return EffectTopmost | EffectPersist, nil
}

type SetBorderless struct{ Enabled bool }

func (c SetBorderless) Apply(cfg *Config) (Effect, error) {
	cfg.Borderless = c.Enabled
	return EffectBorderless | EffectPersist, nil
}

// ToggleBorderless flips the current value when applied rather than when
// created, so posting it from another thread never acts on a stale read.
type ToggleBorderless struct{}

func (ToggleBorderless) Apply(cfg *Config) (Effect, error) {
	return SetBorderless{Enabled: !cfg.Borderless}.Apply(cfg)
}

type SetAutoHide struct{ Enabled bool }

func (c SetAutoHide) Apply(cfg *Config) (Effect, error) {
	cfg.AutoHideOnFocus = c.Enabled
	return EffectAutoHide | EffectPersist, nil
}

type ToggleAutoHide struct{}

func (ToggleAutoHide) Apply(cfg *Config) (Effect, error) {
	return SetAutoHide{Enabled: !cfg.AutoHideOnFocus}.Apply(cfg)
}

type SetTextColor struct{ Color string }

func (c SetTextColor) Apply(cfg *Config) (Effect, error) {
	hex, err := NormalizeColor(c.Color)
	if err != nil {
		return 0, err
	}
	cfg.TextFG = hex
	return EffectColors | EffectPersist, nil
}

type SetBackgroundColor struct{ Color string }

func (c SetBackgroundColor) Apply(cfg *Config) (Effect, error) {
	hex, err := NormalizeColor(c.Color)
	if err != nil {
		return 0, err
	}
	cfg.TextBG = hex
	return EffectColors | EffectPersist, nil
}

// SetNoteColor replaces one palette entry. The palette length never changes.
type SetNoteColor struct {
	Index int
	Color string
}

func (c SetNoteColor) Apply(cfg *Config) (Effect, error) {
	if c.Index < 0 || c.Index >= len(cfg.NoteColors) {
		return 0, fmt.Errorf("%w: %d of %d", ErrPaletteIndex, c.Index, len(cfg.NoteColors))
	}
	hex, err := NormalizeColor(c.Color)
	if err != nil {
		return 0, err
	}
	colors := append([]string(nil), cfg.NoteColors...)
	colors[c.Index] = hex
	cfg.NoteColors = colors
	return EffectColors | EffectRecolor | EffectPersist, nil
}

type SetFont struct {
	Family string
	Size   int
}

func (c SetFont) Apply(cfg *Config) (Effect, error) {
	family := strings.TrimSpace(c.Family)
	if family == "" || c.Size <= 0 {
		return 0, fmt.Errorf("%w: %q %d", ErrInvalidFont, c.Family, c.Size)
	}
	cfg.FontFamily = family
	cfg.FontSize = c.Size
	return EffectFont | EffectPersist, nil
}

type ToggleVisibility struct{}

func (ToggleVisibility) Apply(*Config) (Effect, error) { return EffectVisibility, nil }

// InsertTimestamp stamps the current time at the cursor.
type InsertTimestamp struct{}

func (InsertTimestamp) Apply(*Config) (Effect, error) { return EffectTimestamp, nil }

// SaveNow writes content, config and geometry immediately.
type SaveNow struct{}

func (SaveNow) Apply(*Config) (Effect, error) { return EffectSave, nil }

type Quit struct{}

func (Quit) Apply(*Config) (Effect, error) { return EffectQuit, nil }

// ParseFontName splits a Pango-style description such as "Dosis Bold 12"
// into family and point size. A missing size keeps fallbackSize.
func ParseFontName(desc string, fallbackSize int) (family string, size int) {
	fields := strings.Fields(desc)
	if len(fields) == 0 {
		return "", fallbackSize
	}
	last := fields[len(fields)-1]
	if n, err := strconv.Atoi(last); err == nil && n > 0 {
		return strings.Join(fields[:len(fields)-1], " "), n
	}
	return strings.Join(fields, " "), fallbackSize
}

package notes

import "time"

const (
	AppName          = "MindPic"
	AppID            = "mindpic"
	ConfigFileName   = "config.json"
	ContentFileName  = "content.txt"
	GeometryFileName = "window_geometry.json"
	LogFileName      = "mindpic.log"
	SettingsFileName = "settings.yaml"
)

// Window fallbacks used when no geometry has been saved yet, and the floor
// for the hand-rolled resize grip in borderless mode.
const (
	DefaultWindowWidth  = 520
	DefaultWindowHeight = 320
	BorderlessMinWidth  = 260
	BorderlessMinHeight = 180
)

const (
	MinAlpha = 0.2
	MaxAlpha = 1.0
)

// TimestampLayout is what InsertTimestamp writes; the matcher accepts it.
const TimestampLayout = "2006-01-02 15:04"

// AlphaPresets populate the transparency menu.
var AlphaPresets = []struct {
	Value float64
	Label string
}{
	{0.50, "50%"},
	{0.70, "70%"},
	{0.85, "85%"},
	{0.95, "95%"},
	{1.00, "100%"},
}

// Task names for the debouncer slots.
const (
	taskRecolor    = "recolor"
	taskConfigSave = "config-save"
	taskAutosave   = "autosave"
	taskAutoHide   = "auto-hide"
)

const (
	defaultAutosaveInterval  = 1500 * time.Millisecond
	defaultAutosaveFreshness = 5 * time.Second
	defaultAutoHideDelay     = 650 * time.Millisecond
	defaultRecolorDelay      = 350 * time.Millisecond
	defaultConfigSaveDelay   = 2 * time.Second
	defaultSnapThrottle      = 100 * time.Millisecond
)

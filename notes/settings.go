package notes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings are process-level knobs: where data lives, hotkeys, timer
// delays. They come from an optional settings.yaml and MINDPIC_* environment
// variables, and are never written back by the application.
type Settings struct {
	DataDir             string        `mapstructure:"data_dir"`
	LogLevel            string        `mapstructure:"log_level"`
	LocalToggleKey      string        `mapstructure:"local_toggle_key"`
	GlobalToggleHotkey  string        `mapstructure:"global_toggle_hotkey"`
	EnableTray          bool          `mapstructure:"enable_tray"`
	EnableGlobalHotkeys bool          `mapstructure:"enable_global_hotkeys"`
	EnableSnap          bool          `mapstructure:"enable_snap"`
	AutosaveInterval    time.Duration `mapstructure:"autosave_interval"`
	AutosaveFreshness   time.Duration `mapstructure:"autosave_freshness"`
	AutoHideDelay       time.Duration `mapstructure:"auto_hide_delay"`
	RecolorDelay        time.Duration `mapstructure:"recolor_delay"`
	ConfigSaveDelay     time.Duration `mapstructure:"config_save_delay"`
	SnapThrottle        time.Duration `mapstructure:"snap_throttle"`
	ManualPath          string        `mapstructure:"manual_path"`
}

func DefaultSettings() Settings {
	return Settings{
		LogLevel:            "info",
		LocalToggleKey:      "F9",
		GlobalToggleHotkey:  "f9",
		EnableTray:          true,
		EnableGlobalHotkeys: true,
		EnableSnap:          true,
		AutosaveInterval:    defaultAutosaveInterval,
		AutosaveFreshness:   defaultAutosaveFreshness,
		AutoHideDelay:       defaultAutoHideDelay,
		RecolorDelay:        defaultRecolorDelay,
		ConfigSaveDelay:     defaultConfigSaveDelay,
		SnapThrottle:        defaultSnapThrottle,
	}
}

// SettingsPath is the default location of settings.yaml.
func SettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppID, SettingsFileName), nil
}

// LoadSettings reads path (which may not exist) and applies MINDPIC_*
// environment overrides. On a broken file the defaults plus environment are
// returned together with the error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MINDPIC")
	v.AutomaticEnv()

	v.SetDefault("data_dir", s.DataDir)
	v.SetDefault("log_level", s.LogLevel)
	v.SetDefault("local_toggle_key", s.LocalToggleKey)
	v.SetDefault("global_toggle_hotkey", s.GlobalToggleHotkey)
	v.SetDefault("enable_tray", s.EnableTray)
	v.SetDefault("enable_global_hotkeys", s.EnableGlobalHotkeys)
	v.SetDefault("enable_snap", s.EnableSnap)
	v.SetDefault("autosave_interval", s.AutosaveInterval)
	v.SetDefault("autosave_freshness", s.AutosaveFreshness)
	v.SetDefault("auto_hide_delay", s.AutoHideDelay)
	v.SetDefault("recolor_delay", s.RecolorDelay)
	v.SetDefault("config_save_delay", s.ConfigSaveDelay)
	v.SetDefault("snap_throttle", s.SnapThrottle)
	v.SetDefault("manual_path", s.ManualPath)

	var readErr error
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			readErr = malformed("load settings", path, err)
		}
	}

	if err := v.Unmarshal(&s); err != nil {
		return DefaultSettings(), malformed("load settings", path, fmt.Errorf("unmarshal: %w", err))
	}
	if err := s.sanitize(); err != nil {
		return s, errors.Join(readErr, malformed("load settings", path, err))
	}
	return s, readErr
}

// sanitize resets unusable timer values to their defaults. A non-positive
// delay would either spin the main loop or never fire, and an autosave
// interval at or above the freshness window would never save.
func (s *Settings) sanitize() error {
	def := DefaultSettings()
	var errs []error
	for _, d := range []struct {
		name     string
		val, def *time.Duration
	}{
		{"autosave_interval", &s.AutosaveInterval, &def.AutosaveInterval},
		{"autosave_freshness", &s.AutosaveFreshness, &def.AutosaveFreshness},
		{"auto_hide_delay", &s.AutoHideDelay, &def.AutoHideDelay},
		{"recolor_delay", &s.RecolorDelay, &def.RecolorDelay},
		{"config_save_delay", &s.ConfigSaveDelay, &def.ConfigSaveDelay},
		{"snap_throttle", &s.SnapThrottle, &def.SnapThrottle},
	} {
		if *d.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", d.name, *d.val))
			*d.val = *d.def
		}
	}
	if s.AutosaveInterval >= s.AutosaveFreshness {
		errs = append(errs, fmt.Errorf("autosave_interval %v must be shorter than autosave_freshness %v",
			s.AutosaveInterval, s.AutosaveFreshness))
		s.AutosaveInterval, s.AutosaveFreshness = def.AutosaveInterval, def.AutosaveFreshness
	}
	return errors.Join(errs...)
}

// ResolveDataDir returns DataDir, or the per-user config directory when it
// is empty, and makes sure it exists.
func (s Settings) ResolveDataDir() (string, error) {
	dir := s.DataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", ioError("resolve data dir", "", err)
		}
		dir = filepath.Join(base, AppID)
	} else if dir[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", ioError("resolve data dir", dir, err)
		}
		dir = filepath.Join(home, dir[1:])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ioError("resolve data dir", dir, err)
	}
	return dir, nil
}

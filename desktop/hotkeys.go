package desktop

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mindpic/notes"

	"github.com/gotk3/gotk3/gdk"
	"golang.design/x/hotkey"
)

const voidSymbol = 0xffffff

var errWaylandHotkey = errors.New("global hotkeys need an X11 session")

// ParseHotkey turns "ctrl+shift+f9" into modifiers and an X keysym.
func ParseHotkey(combo string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(strings.TrimSpace(combo), "+")
	var mods []hotkey.Modifier
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "alt":
			mods = append(mods, hotkey.Mod1)
		case "super", "win", "meta":
			mods = append(mods, hotkey.Mod4)
		default:
			return nil, 0, fmt.Errorf("hotkey %q: unknown modifier %q", combo, p)
		}
	}

	name := strings.TrimSpace(parts[len(parts)-1])
	if name == "" {
		return nil, 0, fmt.Errorf("hotkey %q: missing key", combo)
	}
	for _, candidate := range []string{name, strings.ToUpper(name)} {
		if key, ok := keyFromKeysym(gdk.KeyvalFromName(candidate)); ok {
			return mods, key, nil
		}
	}
	return nil, 0, fmt.Errorf("hotkey %q: unknown key %q", combo, name)
}

// keyFromKeysym converts a GDK keyval to a grabbable key. hotkey.Key is 16
// bits wide on X11, so larger keysyms such as the XF86 media keys cannot be
// grabbed.
func keyFromKeysym(kv uint) (hotkey.Key, bool) {
	if kv == 0 || kv == voidSymbol || kv > 0xffff {
		return 0, false
	}
	return hotkey.Key(kv), true
}

// GlobalHotkey toggles the window from anywhere in the session.
type GlobalHotkey struct {
	hk   *hotkey.Hotkey
	done chan struct{}
	log  *slog.Logger
}

// RegisterGlobalHotkey grabs combo on the X server and posts ToggleVisibility
// on every press. Any failure means the feature is unavailable; the caller
// logs it and carries on.
func RegisterGlobalHotkey(combo string, app *notes.App, log *slog.Logger) (*GlobalHotkey, error) {
	if IsWayland() {
		return nil, notes.Unavailable("global hotkey", errWaylandHotkey)
	}
	mods, key, err := ParseHotkey(combo)
	if err != nil {
		return nil, notes.Unavailable("global hotkey", err)
	}
	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, notes.Unavailable("global hotkey", err)
	}

	g := &GlobalHotkey{hk: hk, done: make(chan struct{}), log: log.With("component", "hotkey")}
	go g.loop(app)
	g.log.Info("registered", "hotkey", combo)
	return g, nil
}

func (g *GlobalHotkey) loop(app *notes.App) {
	for {
		select {
		case <-g.done:
			return
		case _, ok := <-g.hk.Keydown():
			if !ok {
				return
			}
			app.Post(notes.ToggleVisibility{})
		}
	}
}

// Close stops the listener and releases the grab.
func (g *GlobalHotkey) Close() error {
	close(g.done)
	return g.hk.Unregister()
}

package desktop

import (
	"log/slog"
	"path/filepath"
	"strings"

	"mindpic/notes"

	"github.com/dawidd6/go-appindicator"
	"github.com/gotk3/gotk3/gtk"
)

// Tray is the status-area indicator. Its menu mirrors the window toggles.
type Tray struct {
	app       *notes.App
	log       *slog.Logger
	indicator *appindicator.Indicator
	menu      *gtk.Menu
	show      *gtk.MenuItem
	toggles   toggles
}

// NewTray registers the indicator. iconPath points at an icon file; its
// directory becomes the icon theme path.
func NewTray(app *notes.App, iconPath string, manual func(), log *slog.Logger) (*Tray, error) {
	t := &Tray{app: app, log: log.With("component", "tray")}
	if err := t.build(manual); err != nil {
		return nil, notes.Unavailable("tray", err)
	}

	icon := strings.TrimSuffix(filepath.Base(iconPath), filepath.Ext(iconPath))
	t.indicator = appindicator.New(notes.AppID, icon, appindicator.CategoryApplicationStatus)
	t.indicator.SetIconThemePath(filepath.Dir(iconPath))
	t.indicator.SetIcon(icon)
	t.indicator.SetTitle(notes.AppName)
	t.indicator.SetStatus(appindicator.StatusActive)
	t.indicator.SetMenu(t.menu)
	// Middle click on the icon.
	t.indicator.SetSecondaryActivateTarget(t.show)

	app.OnChange(t.toggles.sync)
	return t, nil
}

// Tray actions go through Post so they line up behind whatever the main
// loop is doing.
func (t *Tray) send(cmd notes.Command) { t.app.Post(cmd) }

func (t *Tray) build(manual func()) error {
	var err error
	if t.menu, err = gtk.MenuNew(); err != nil {
		return err
	}
	cfg := t.app.Config()

	if t.show, err = gtk.MenuItemNewWithLabel("Show / Hide"); err != nil {
		return err
	}
	t.show.Connect("activate", func() { t.send(notes.ToggleVisibility{}) })
	t.menu.Append(t.show)

	help, err := gtk.MenuItemNewWithLabel("Open Manual")
	if err != nil {
		return err
	}
	help.Connect("activate", manual)
	t.menu.Append(help)

	sep, err := gtk.SeparatorMenuItemNew()
	if err != nil {
		return err
	}
	t.menu.Append(sep)

	if !IsWayland() {
		if err := t.toggles.add(t.menu, "Always on Top", cfg, isTopmost, notes.ToggleTopmost{}, t.send); err != nil {
			return err
		}
	}
	if err := t.toggles.add(t.menu, "Borderless", cfg, isBorderless, notes.ToggleBorderless{}, t.send); err != nil {
		return err
	}
	if err := t.toggles.add(t.menu, "Auto-hide on Focus Lost", cfg, isAutoHide, notes.ToggleAutoHide{}, t.send); err != nil {
		return err
	}

	if sep, err = gtk.SeparatorMenuItemNew(); err != nil {
		return err
	}
	t.menu.Append(sep)

	quit, err := gtk.MenuItemNewWithLabel("Quit")
	if err != nil {
		return err
	}
	quit.Connect("activate", func() { t.send(notes.Quit{}) })
	t.menu.Append(quit)

	t.menu.ShowAll()
	return nil
}

// Close hides the indicator.
func (t *Tray) Close() error {
	t.indicator.SetStatus(appindicator.StatusPassive)
	return nil
}

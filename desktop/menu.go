package desktop

import (
	"fmt"
	"log/slog"

	"mindpic/notes"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"
)

// toggles keeps check items in step with the config. Setting an item from
// sync fires "toggled" as well, which must not turn into a second command.
type toggles struct {
	syncing bool
	items   []toggle
}

type toggle struct {
	item *gtk.CheckMenuItem
	get  func(notes.Config) bool
}

func (t *toggles) add(menu *gtk.Menu, label string, cfg notes.Config, get func(notes.Config) bool, cmd notes.Command, send func(notes.Command)) error {
	item, err := gtk.CheckMenuItemNewWithLabel(label)
	if err != nil {
		return err
	}
	item.SetActive(get(cfg))
	item.Connect("toggled", func() {
		if !t.syncing {
			send(cmd)
		}
	})
	menu.Append(item)
	t.items = append(t.items, toggle{item: item, get: get})
	return nil
}

func (t *toggles) sync(cfg notes.Config) {
	t.syncing = true
	defer func() { t.syncing = false }()
	for _, it := range t.items {
		if want := it.get(cfg); it.item.GetActive() != want {
			it.item.SetActive(want)
		}
	}
}

func isTopmost(c notes.Config) bool    { return c.AlwaysOnTop }
func isBorderless(c notes.Config) bool { return c.Borderless }
func isAutoHide(c notes.Config) bool   { return c.AutoHideOnFocus }

// contextMenu is the right-click menu of the note window.
type contextMenu struct {
	app    *notes.App
	parent *gtk.Window
	log    *slog.Logger
	manual func()

	menu        *gtk.Menu
	toggles     toggles
	alpha       []*gtk.RadioMenuItem
	customAlpha *gtk.RadioMenuItem
	fontLabel   *gtk.MenuItem
}

func newContextMenu(app *notes.App, parent *gtk.Window, manual func(), log *slog.Logger) (*contextMenu, error) {
	m := &contextMenu{app: app, parent: parent, manual: manual, log: log}
	if err := m.build(); err != nil {
		return nil, fmt.Errorf("build context menu: %w", err)
	}
	app.OnChange(m.sync)
	return m, nil
}

func (m *contextMenu) dispatch(cmd notes.Command) {
	// Rejections are logged by the app.
	_ = m.app.Dispatch(cmd)
}

func (m *contextMenu) item(menu *gtk.Menu, label string, activate func()) error {
	mi, err := gtk.MenuItemNewWithLabel(label)
	if err != nil {
		return err
	}
	mi.Connect("activate", activate)
	menu.Append(mi)
	return nil
}

func (m *contextMenu) separator(menu *gtk.Menu) error {
	sep, err := gtk.SeparatorMenuItemNew()
	if err != nil {
		return err
	}
	menu.Append(sep)
	return nil
}

func (m *contextMenu) submenu(label string) (*gtk.Menu, error) {
	sub, err := gtk.MenuNew()
	if err != nil {
		return nil, err
	}
	mi, err := gtk.MenuItemNewWithLabel(label)
	if err != nil {
		return nil, err
	}
	mi.SetSubmenu(sub)
	m.menu.Append(mi)
	return sub, nil
}

func (m *contextMenu) build() error {
	var err error
	if m.menu, err = gtk.MenuNew(); err != nil {
		return err
	}
	cfg := m.app.Config()

	// Colors
	colors, err := m.submenu("Colors")
	if err != nil {
		return err
	}
	if err := m.item(colors, "Text color…", func() {
		m.pickColor("Text color", m.app.Config().TextFG, func(hex string) notes.Command {
			return notes.SetTextColor{Color: hex}
		})
	}); err != nil {
		return err
	}
	if err := m.item(colors, "Background…", func() {
		m.pickColor("Background color", m.app.Config().TextBG, func(hex string) notes.Command {
			return notes.SetBackgroundColor{Color: hex}
		})
	}); err != nil {
		return err
	}
	for i := range cfg.NoteColors {
		if err := m.item(colors, fmt.Sprintf("Entry color %d…", i+1), func() {
			current := ""
			if c := m.app.Config().NoteColors; i < len(c) {
				current = c[i]
			}
			m.pickColor(fmt.Sprintf("Entry color %d", i+1), current, func(hex string) notes.Command {
				return notes.SetNoteColor{Index: i, Color: hex}
			})
		}); err != nil {
			return err
		}
	}

	// Font
	fonts, err := m.submenu("Font")
	if err != nil {
		return err
	}
	if m.fontLabel, err = gtk.MenuItemNewWithLabel(fontLabel(cfg)); err != nil {
		return err
	}
	m.fontLabel.SetSensitive(false)
	fonts.Append(m.fontLabel)
	if err := m.separator(fonts); err != nil {
		return err
	}
	if err := m.item(fonts, "Choose font…", m.pickFont); err != nil {
		return err
	}

	// Transparency
	alpha, err := m.submenu("Transparency")
	if err != nil {
		return err
	}
	// The group always has one active member; a hidden head item takes that
	// role while the opacity matches no preset.
	if m.customAlpha, err = gtk.RadioMenuItemNewWithLabel(nil, "Custom"); err != nil {
		return err
	}
	m.customAlpha.SetNoShowAll(true)
	alpha.Append(m.customAlpha)
	group, err := m.customAlpha.GetGroup()
	if err != nil {
		return err
	}
	for _, preset := range notes.AlphaPresets {
		ri, err := gtk.RadioMenuItemNewWithLabel(group, preset.Label)
		if err != nil {
			return err
		}
		alpha.Append(ri)
		m.alpha = append(m.alpha, ri)
		if group, err = ri.GetGroup(); err != nil {
			return err
		}
	}
	m.selectAlpha(cfg.WindowAlpha)
	// Connect after selecting so building the menu sends nothing.
	for i, ri := range m.alpha {
		value := notes.AlphaPresets[i].Value
		ri.Connect("toggled", func() {
			if ri.GetActive() && !m.toggles.syncing {
				m.dispatch(notes.SetAlpha{Alpha: value})
			}
		})
	}

	if err := m.separator(m.menu); err != nil {
		return err
	}
	if err := m.toggles.add(m.menu, "Auto-hide on focus lost", cfg, isAutoHide, notes.ToggleAutoHide{}, m.dispatch); err != nil {
		return err
	}
	if err := m.toggles.add(m.menu, "Borderless", cfg, isBorderless, notes.ToggleBorderless{}, m.dispatch); err != nil {
		return err
	}
	// Keep-above is a no-op for Wayland compositors.
	if !IsWayland() {
		if err := m.toggles.add(m.menu, "Always on top", cfg, isTopmost, notes.ToggleTopmost{}, m.dispatch); err != nil {
			return err
		}
	}
	if err := m.item(m.menu, "Show / Hide", func() { m.dispatch(notes.ToggleVisibility{}) }); err != nil {
		return err
	}

	if err := m.separator(m.menu); err != nil {
		return err
	}
	if err := m.item(m.menu, "Insert timestamp", func() { m.dispatch(notes.InsertTimestamp{}) }); err != nil {
		return err
	}
	if err := m.item(m.menu, "Save now", func() { m.dispatch(notes.SaveNow{}) }); err != nil {
		return err
	}
	if err := m.item(m.menu, "Open manual", m.manual); err != nil {
		return err
	}
	if err := m.separator(m.menu); err != nil {
		return err
	}
	if err := m.item(m.menu, "Quit", func() { m.dispatch(notes.Quit{}) }); err != nil {
		return err
	}

	m.menu.ShowAll()
	return nil
}

func fontLabel(c notes.Config) string {
	return fmt.Sprintf("Current: %s %d", c.FontFamily, c.FontSize)
}

func (m *contextMenu) sync(cfg notes.Config) {
	m.toggles.sync(cfg)

	m.toggles.syncing = true
	m.selectAlpha(cfg.WindowAlpha)
	m.toggles.syncing = false

	m.fontLabel.SetLabel(fontLabel(cfg))
}

// selectAlpha checks the preset matching alpha, or the hidden custom item.
func (m *contextMenu) selectAlpha(alpha float64) {
	item := m.customAlpha
	if i := notes.AlphaPresetIndex(alpha); i >= 0 {
		item = m.alpha[i]
	}
	if !item.GetActive() {
		item.SetActive(true)
	}
}

func (m *contextMenu) popup(ev *gdk.Event) {
	m.menu.PopupAtPointer(ev)
}

func (m *contextMenu) pickColor(title, current string, command func(hex string) notes.Command) {
	dlg, err := gtk.ColorChooserDialogNew(title, m.parent)
	if err != nil {
		m.log.Warn("color dialog unavailable", "err", notes.ToolkitError("color dialog", err))
		return
	}
	defer dlg.Destroy()

	if r, g, b, err := notes.RGBFromHex(current); err == nil {
		dlg.SetRGBA(gdk.NewRGBA(r, g, b, 1))
	}
	if dlg.Run() != gtk.RESPONSE_OK {
		return
	}
	c := dlg.GetRGBA()
	m.dispatch(command(notes.HexFromRGB(c.GetRed(), c.GetGreen(), c.GetBlue())))
}

func (m *contextMenu) pickFont() {
	dlg, err := gtk.FontChooserDialogNew("Font", m.parent)
	if err != nil {
		m.log.Warn("font dialog unavailable", "err", notes.ToolkitError("font dialog", err))
		return
	}
	defer dlg.Destroy()

	cfg := m.app.Config()
	dlg.SetFont(fmt.Sprintf("%s %d", cfg.FontFamily, cfg.FontSize))
	if dlg.Run() != gtk.RESPONSE_OK {
		return
	}
	family, size := notes.ParseFontName(dlg.GetFont(), cfg.FontSize)
	m.dispatch(notes.SetFont{Family: family, Size: size})
}

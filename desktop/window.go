package desktop

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mindpic/notes"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
)

// Resources are the assets the window is built from.
type Resources struct {
	UI         string // GtkBuilder XML
	CSS        string // style template with $text_fg, $text_bg, $font_family, $font_size
	IconPath   string
	ManualPath string
}

var errWindowClosed = errors.New("window closed")

// Window is the GTK implementation of notes.Surface: one top-level window
// holding a text view, a drag handle and a resize grip for borderless mode,
// and a Save button.
type Window struct {
	app *notes.App
	res Resources
	wc  *WindowCalls
	log *slog.Logger

	builder *gtk.Builder
	win     *gtk.Window
	view    *gtk.TextView
	buf     *gtk.TextBuffer
	handle  *gtk.EventBox
	grip    *gtk.EventBox
	save    *gtk.Button
	menu    *contextMenu
	css     *gtk.CssProvider

	fg, bg     string
	fontFamily string
	fontSize   int
	tags       int

	toggleKey  uint
	borderless bool
	iconified  bool
	loading    bool
	closed     bool
	pendingPos *[2]int

	drag   notes.Dragger
	resize *notes.Resizer
}

// NewWindow builds the window from res. Failing here is fatal for the
// application.
func NewWindow(app *notes.App, res Resources, wc *WindowCalls, log *slog.Logger) (*Window, error) {
	w := &Window{
		app:    app,
		res:    res,
		wc:     wc,
		log:    log.With("component", "window"),
		resize: notes.NewResizer(),
	}
	if err := w.build(); err != nil {
		return nil, fmt.Errorf("build window: %w", err)
	}
	return w, nil
}

func (w *Window) build() error {
	var err error
	if w.builder, err = gtk.BuilderNewFromString(w.res.UI); err != nil {
		return err
	}
	if w.win, err = getObject[*gtk.Window](w.builder, "MainWindow"); err != nil {
		return err
	}
	if w.view, err = getObject[*gtk.TextView](w.builder, "txtNote"); err != nil {
		return err
	}
	if w.handle, err = getObject[*gtk.EventBox](w.builder, "moveHandle"); err != nil {
		return err
	}
	if w.grip, err = getObject[*gtk.EventBox](w.builder, "resizeGrip"); err != nil {
		return err
	}
	if w.save, err = getObject[*gtk.Button](w.builder, "bSave"); err != nil {
		return err
	}
	if w.buf, err = w.view.GetBuffer(); err != nil {
		return err
	}

	w.win.SetTitle(notes.AppName)
	w.win.SetName("mindpic-window")
	w.view.SetName("txt-note")
	if w.res.IconPath != "" {
		if err := w.win.SetIconFromFile(w.res.IconPath); err != nil {
			w.log.Debug("window icon not set", "path", w.res.IconPath, "err", err)
		}
	}

	if w.css, err = gtk.CssProviderNew(); err != nil {
		return err
	}
	winContext, err := w.win.GetStyleContext()
	if err != nil {
		return err
	}
	txtContext, err := w.view.GetStyleContext()
	if err != nil {
		return err
	}
	winContext.AddProvider(w.css, gtk.STYLE_PROVIDER_PRIORITY_USER)
	txtContext.AddProvider(w.css, gtk.STYLE_PROVIDER_PRIORITY_USER)

	w.toggleKey = gdk.KeyvalFromName(w.app.Settings().LocalToggleKey)

	if w.menu, err = newContextMenu(w.app, w.win, w.OpenManual, w.log); err != nil {
		return err
	}

	motion := int(gdk.BUTTON_PRESS_MASK | gdk.BUTTON_RELEASE_MASK | gdk.POINTER_MOTION_MASK)
	w.handle.AddEvents(motion)
	w.grip.AddEvents(motion)

	w.buf.Connect("changed", w.onChanged)
	w.view.Connect("key-release-event", w.onKeyRelease)
	w.view.Connect("button-press-event", w.onViewButton)
	w.win.Connect("key-press-event", w.onKeyPress)
	w.win.Connect("focus-in-event", w.onFocusIn)
	w.win.Connect("focus-out-event", w.onFocusOut)
	w.win.Connect("configure-event", w.onConfigure)
	w.win.Connect("window-state-event", w.onWindowState)
	w.win.Connect("delete-event", w.onDelete)
	w.handle.Connect("button-press-event", w.onHandlePress)
	w.handle.Connect("motion-notify-event", w.onHandleMotion)
	w.handle.Connect("button-release-event", w.onHandleRelease)
	w.grip.Connect("button-press-event", w.onGripPress)
	w.grip.Connect("motion-notify-event", w.onGripMotion)
	w.grip.Connect("button-release-event", w.onGripRelease)
	w.save.Connect("clicked", func() { w.dispatch(notes.SaveNow{}) })
	return nil
}

// getObject fetches a typed object from a GtkBuilder.
func getObject[T any](builder *gtk.Builder, name string) (T, error) {
	var zero T
	obj, err := builder.GetObject(name)
	if err != nil {
		return zero, err
	}
	v, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("builder object %q has type %T", name, obj)
	}
	return v, nil
}

func (w *Window) dispatch(cmd notes.Command) {
	// Rejections are logged by the app.
	_ = w.app.Dispatch(cmd)
}

// ShowAll maps the window for the first time. The drag handle and grip only
// show in borderless mode.
func (w *Window) ShowAll() {
	w.win.ShowAll()
	w.applyChrome()

	if w.pendingPos != nil && w.wc != nil {
		pos := *w.pendingPos
		w.pendingPos = nil
		// The compositor only lists the window once it is mapped.
		glib.TimeoutAdd(500, func() bool {
			if err := w.Move(pos[0], pos[1]); err != nil {
				w.log.Debug("restore position failed", "err", err)
			}
			return false
		})
	}
}

func (w *Window) applyChrome() {
	w.handle.SetVisible(w.borderless)
	w.grip.SetVisible(w.borderless)
}

// OpenManual opens the user manual with the desktop's default viewer.
func (w *Window) OpenManual() {
	OpenManual(w.res.ManualPath, w.log)
}

// --- notes.Surface ---

func (w *Window) Text() string {
	start, end := w.buf.GetBounds()
	text, err := w.buf.GetText(start, end, true)
	if err != nil {
		w.log.Debug("read buffer failed", "err", err)
		return ""
	}
	return text
}

func (w *Window) SetText(text string) {
	w.loading = true
	defer func() { w.loading = false }()
	w.buf.SetText(text)
}

func (w *Window) InsertAtCursor(text string) {
	w.buf.InsertAtCursor(text)
}

func (w *Window) CursorAtLineStart() bool {
	iter := w.buf.GetIterAtMark(w.buf.GetInsert())
	return iter.GetLineOffset() == 0
}

func (w *Window) PaintBlocks(spans []notes.Span) {
	start, end := w.buf.GetBounds()
	for i := 0; i < w.tags; i++ {
		w.buf.RemoveTagByName(notes.PaletteTag(i), start, end)
	}

	lines := w.buf.GetLineCount()
	for _, s := range spans {
		if s.ColorIndex >= w.tags {
			continue
		}
		from := w.buf.GetIterAtLine(s.Start)
		to := w.buf.GetEndIter()
		if s.End < lines {
			to = w.buf.GetIterAtLine(s.End)
		}
		w.buf.ApplyTagByName(s.Tag(), from, to)
	}
}

// ApplyColors restyles the text view and creates or updates one paragraph
// tag per palette entry.
func (w *Window) ApplyColors(fg, bg string, palette []string) {
	w.fg, w.bg = fg, bg
	w.loadCSS()

	table, err := w.buf.GetTagTable()
	if err != nil {
		w.log.Debug("tag table unavailable", "err", err)
		return
	}
	for i, color := range palette {
		name := notes.PaletteTag(i)
		tag, err := table.Lookup(name)
		if err != nil || tag == nil {
			if tag, err = gtk.TextTagNew(name); err != nil {
				w.log.Debug("create tag failed", "tag", name, "err", err)
				continue
			}
			table.Add(tag)
		}
		if err := tag.SetProperty("paragraph-background", color); err != nil {
			w.log.Debug("set tag color failed", "tag", name, "err", err)
		}
	}
	w.tags = max(w.tags, len(palette))
}

func (w *Window) ApplyFont(family string, size int) {
	w.fontFamily, w.fontSize = family, size
	w.loadCSS()
}

func (w *Window) loadCSS() {
	if w.fg == "" || w.fontFamily == "" {
		return
	}
	css := strings.ReplaceAll(w.res.CSS, "$text_fg", w.fg)
	css = strings.ReplaceAll(css, "$text_bg", w.bg)
	css = strings.ReplaceAll(css, "$font_family", w.fontFamily)
	css = strings.ReplaceAll(css, "$font_size", strconv.Itoa(w.fontSize))
	if err := w.css.LoadFromData(css); err != nil {
		w.log.Warn("stylesheet rejected", "err", err)
		return
	}
	w.win.QueueDraw()
	w.view.QueueDraw()
}

func (w *Window) SetMinSize(width, height int) {
	w.win.SetSizeRequest(width, height)
}

func (w *Window) SetAlpha(alpha float64) error {
	if w.closed {
		return errWindowClosed
	}
	w.win.SetOpacity(alpha)
	return nil
}

func (w *Window) SetKeepAbove(on bool) error {
	if w.closed {
		return errWindowClosed
	}
	w.win.SetKeepAbove(on)
	return nil
}

func (w *Window) SetBorderless(on bool) error {
	if w.closed {
		return errWindowClosed
	}
	w.borderless = on
	w.win.SetDecorated(!on)
	if w.win.GetVisible() {
		w.applyChrome()
	}
	return nil
}

func (w *Window) Show() {
	w.win.Show()
	w.win.Present()
}

func (w *Window) Hide() {
	w.win.Hide()
}

func (w *Window) Iconified() bool { return w.iconified }

// Bounds prefers the compositor's view under Wayland, where GTK reports
// every window at 0,0.
func (w *Window) Bounds() (notes.Rect, error) {
	if w.closed {
		return notes.Rect{}, errWindowClosed
	}
	width, height := w.win.GetSize()
	if w.wc != nil {
		r, err := w.wc.Bounds(width, height)
		if err == nil {
			return r, nil
		}
		w.log.Debug("window-calls bounds failed", "err", err)
	}
	x, y := w.win.GetPosition()
	return notes.Rect{X: x, Y: y, Width: width, Height: height}, nil
}

func (w *Window) ScreenSize() (int, int) {
	screen, err := gdk.ScreenGetDefault()
	if err != nil {
		return 0, 0
	}
	return screen.GetWidth(), screen.GetHeight()
}

func (w *Window) Resize(width, height int) {
	w.win.Resize(width, height)
}

func (w *Window) Move(x, y int) error {
	if w.closed {
		return errWindowClosed
	}
	if w.wc == nil {
		w.win.Move(x, y)
		return nil
	}
	if !w.win.GetVisible() {
		w.pendingPos = &[2]int{x, y}
		return nil
	}
	width, height := w.win.GetSize()
	if err := w.wc.Move(width, height, x, y); err != nil {
		w.win.Move(x, y)
		return err
	}
	return nil
}

// Close destroys the window and ends the main loop.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.win.Destroy()
	gtk.MainQuit()
}

// --- signal handlers ---

func (w *Window) onChanged() {
	if !w.loading {
		w.app.OnTextModified()
	}
}

func (w *Window) onKeyRelease() bool {
	w.app.OnKeyReleased()
	return false
}

func (w *Window) onKeyPress(_ *gtk.Window, ev *gdk.Event) bool {
	key := gdk.EventKeyNewFromEvent(ev)
	kv := key.KeyVal()
	ctrl := gdk.ModifierType(key.State())&gdk.CONTROL_MASK != 0

	switch {
	case !ctrl && kv == w.toggleKey:
		w.dispatch(notes.ToggleVisibility{})
	case ctrl && (kv == gdk.KEY_s || kv == gdk.KEY_S):
		w.dispatch(notes.SaveNow{})
	case ctrl && (kv == gdk.KEY_t || kv == gdk.KEY_T):
		w.dispatch(notes.InsertTimestamp{})
	default:
		return false
	}
	return true
}

func (w *Window) onViewButton(_ *gtk.TextView, ev *gdk.Event) bool {
	btn := gdk.EventButtonNewFromEvent(ev)
	if btn.Button() != gdk.BUTTON_SECONDARY {
		return false
	}
	w.menu.popup(ev)
	return true
}

func (w *Window) onFocusIn() bool {
	w.app.OnFocusIn()
	return false
}

func (w *Window) onFocusOut() bool {
	w.app.OnFocusOut()
	return false
}

func (w *Window) onConfigure() bool {
	w.app.OnConfigure()
	return false
}

func (w *Window) onWindowState(_ *gtk.Window, ev *gdk.Event) bool {
	st := gdk.EventWindowStateNewFromEvent(ev)
	w.iconified = st.NewWindowState()&gdk.WINDOW_STATE_ICONIFIED != 0
	return false
}

func (w *Window) onDelete() bool {
	w.app.OnClose()
	// The app closes the window itself once everything is saved.
	return true
}

// Borderless move. Wayland does not let clients place themselves, so the
// compositor runs the drag there.
func (w *Window) onHandlePress(_ *gtk.EventBox, ev *gdk.Event) bool {
	btn := gdk.EventButtonNewFromEvent(ev)
	if btn.Button() != gdk.BUTTON_PRIMARY {
		return false
	}
	if IsWayland() {
		w.win.BeginMoveDrag(btn.Button(), int(btn.XRoot()), int(btn.YRoot()), btn.Time())
		return true
	}
	x, y := w.win.GetPosition()
	w.drag.Start(int(btn.XRoot())-x, int(btn.YRoot())-y)
	return true
}

func (w *Window) onHandleMotion(_ *gtk.EventBox, ev *gdk.Event) bool {
	rx, ry := gdk.EventMotionNewFromEvent(ev).MotionValRoot()
	if x, y, ok := w.drag.Move(int(rx), int(ry)); ok {
		w.win.Move(x, y)
	}
	return true
}

func (w *Window) onHandleRelease() bool {
	w.drag.End()
	return true
}

func (w *Window) onGripPress(_ *gtk.EventBox, ev *gdk.Event) bool {
	btn := gdk.EventButtonNewFromEvent(ev)
	if btn.Button() != gdk.BUTTON_PRIMARY {
		return false
	}
	if IsWayland() {
		w.win.BeginResizeDrag(gdk.WINDOW_EDGE_SOUTH_EAST, btn.Button(), int(btn.XRoot()), int(btn.YRoot()), btn.Time())
		return true
	}
	width, height := w.win.GetSize()
	w.resize.Start(int(btn.XRoot()), int(btn.YRoot()), width, height)
	return true
}

func (w *Window) onGripMotion(_ *gtk.EventBox, ev *gdk.Event) bool {
	rx, ry := gdk.EventMotionNewFromEvent(ev).MotionValRoot()
	if width, height, ok := w.resize.Move(int(rx), int(ry)); ok {
		w.win.Resize(width, height)
	}
	return true
}

func (w *Window) onGripRelease() bool {
	w.resize.End()
	return true
}

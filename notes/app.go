package notes

import (
	"errors"
	"log/slog"
)

// Surface is the window the App drives: a text widget inside a top-level
// window. Implementations are called on the host thread only.
type Surface interface {
	Text() string
	SetText(text string)
	InsertAtCursor(text string)
	CursorAtLineStart() bool
	PaintBlocks(spans []Span)

	ApplyColors(fg, bg string, palette []string)
	ApplyFont(family string, size int)
	SetMinSize(width, height int)
	SetAlpha(alpha float64) error
	SetKeepAbove(on bool) error
	SetBorderless(on bool) error

	Show()
	Hide()
	Iconified() bool
	Bounds() (Rect, error)
	ScreenSize() (width, height int)
	Resize(width, height int)
	Move(x, y int) error
	Close()
}

type closer struct {
	name string
	fn   func() error
}

// App owns the configuration and buffer lifecycle. Every user action goes
// through Dispatch; window events come in through the On* methods. All
// methods except Post must run on the host thread.
type App struct {
	host     Host
	store    *Store
	settings Settings
	log      *slog.Logger

	surface  Surface
	cfg      Config
	timers   *Debouncer
	autosave AutosavePolicy
	throttle SnapThrottle

	visible   bool
	quitting  bool
	closers   []closer
	observers []func(Config)
}

// NewApp loads config.json right away so the window can be built from it.
func NewApp(host Host, store *Store, settings Settings, log *slog.Logger) *App {
	a := &App{
		host:     host,
		store:    store,
		settings: settings,
		log:      log,
		timers:   NewDebouncer(host),
		autosave: AutosavePolicy{
			Interval:  settings.AutosaveInterval,
			Freshness: settings.AutosaveFreshness,
		},
		throttle: SnapThrottle{Interval: settings.SnapThrottle},
		visible:  true,
	}

	cfg, err := store.LoadConfig()
	if err != nil {
		log.Warn("config unusable, using defaults", "path", store.ConfigPath(), "err", err)
	}
	a.cfg = cfg
	return a
}

// Config returns a snapshot of the current configuration.
func (a *App) Config() Config { return a.cfg.Clone() }

func (a *App) Settings() Settings { return a.settings }

func (a *App) Visible() bool { return a.visible }

// OnChange registers fn to be called with a snapshot after every persisted
// configuration change.
func (a *App) OnChange(fn func(Config)) {
	a.observers = append(a.observers, fn)
}

// AddCloser registers a resource to release on Quit, after all timers are
// cancelled. Closers run in reverse order of registration.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Start attaches the window, restores content, style and placement, and
// arms the autosave tick.
func (a *App) Start(s Surface) {
	a.surface = s

	s.SetMinSize(a.cfg.MinWidth, a.cfg.MinHeight)
	s.ApplyColors(a.cfg.TextFG, a.cfg.TextBG, a.cfg.NoteColors)
	s.ApplyFont(a.cfg.FontFamily, a.cfg.FontSize)
	a.logToolkit("set alpha", s.SetAlpha(ClampAlpha(a.cfg.WindowAlpha)))
	a.logToolkit("set keep above", s.SetKeepAbove(a.cfg.AlwaysOnTop))
	a.restoreGeometry()
	a.logToolkit("set borderless", s.SetBorderless(a.cfg.Borderless))

	text, err := a.store.LoadContent()
	if err != nil {
		a.log.Warn("content unreadable, starting empty", "path", a.store.ContentPath(), "err", err)
	}
	s.SetText(text)
	a.Recolorize()

	a.scheduleAutosave()
	a.log.Info("started", "data_dir", a.store.Dir())
}

func (a *App) restoreGeometry() {
	g, err := a.store.LoadGeometry()
	if err != nil {
		a.log.Warn("geometry unusable", "path", a.store.GeometryPath(), "err", err)
	}
	if !g.HasSize() {
		a.surface.Resize(DefaultWindowWidth, DefaultWindowHeight)
		return
	}
	a.surface.Resize(*g.Width, *g.Height)
	if g.HasPosition() {
		a.logToolkit("move", a.surface.Move(*g.X, *g.Y))
	}
}

// Dispatch applies cmd and carries out its effects. Rejected commands are
// logged and returned; the configuration is unchanged in that case.
func (a *App) Dispatch(cmd Command) error {
	if a.surface == nil {
		return ErrNotStarted
	}
	if a.quitting {
		return ErrShuttingDown
	}
	eff, err := cmd.Apply(&a.cfg)
	if err != nil {
		a.log.Warn("command rejected", "cmd", cmdName(cmd), "err", err)
		return err
	}
	a.apply(eff)
	return nil
}

// Post queues cmd onto the host thread. It is the entry point for the tray
// and the global hotkey, which run on their own goroutines.
func (a *App) Post(cmd Command) {
	a.host.Post(func() {
		if err := a.Dispatch(cmd); err != nil && !errors.Is(err, ErrShuttingDown) {
			a.log.Debug("posted command failed", "cmd", cmdName(cmd), "err", err)
		}
	})
}

func (a *App) apply(eff Effect) {
	s := a.surface
	if eff.Has(EffectAlpha) {
		a.logToolkit("set alpha", s.SetAlpha(ClampAlpha(a.cfg.WindowAlpha)))
	}
	if eff.Has(EffectTopmost) {
		a.logToolkit("set keep above", s.SetKeepAbove(a.cfg.AlwaysOnTop))
	}
	if eff.Has(EffectBorderless) {
		a.logToolkit("set borderless", s.SetBorderless(a.cfg.Borderless))
	}
	if eff.Has(EffectAutoHide) && !a.cfg.AutoHideOnFocus {
		a.timers.Cancel(taskAutoHide)
	}
	if eff.Has(EffectColors) {
		s.ApplyColors(a.cfg.TextFG, a.cfg.TextBG, a.cfg.NoteColors)
	}
	if eff.Has(EffectFont) {
		s.ApplyFont(a.cfg.FontFamily, a.cfg.FontSize)
	}
	if eff.Has(EffectRecolor) {
		a.Recolorize()
	}
	if eff.Has(EffectTimestamp) {
		a.insertTimestamp()
	}
	if eff.Has(EffectVisibility) {
		a.toggleVisibility()
	}
	if eff.Has(EffectPersist) {
		a.scheduleConfigSave()
		a.notify()
	}
	if eff.Has(EffectSave) {
		a.saveAll()
	}
	if eff.Has(EffectQuit) {
		a.quit()
	}
}

func (a *App) notify() {
	snap := a.cfg.Clone()
	for _, fn := range a.observers {
		fn(snap)
	}
}

// Recolorize repaints block backgrounds from the current buffer.
func (a *App) Recolorize() {
	a.surface.PaintBlocks(Colorize(a.surface.Text(), len(a.cfg.NoteColors)))
}

func (a *App) insertTimestamp() {
	stamp := FormatTimestamp(a.host.Now())
	if a.surface.CursorAtLineStart() {
		a.surface.InsertAtCursor(stamp + " ")
	} else {
		a.surface.InsertAtCursor("\n" + stamp + " ")
	}
	a.Recolorize()
}

func (a *App) toggleVisibility() {
	if a.visible {
		a.surface.Hide()
		a.visible = false
		return
	}
	a.surface.Show()
	a.visible = true
}

// OnTextModified records an edit for the autosave freshness check and
// schedules a repaint once typing pauses.
func (a *App) OnTextModified() {
	a.autosave.MarkEdit(a.host.Now())
	a.scheduleRecolor()
}

// OnKeyReleased schedules a repaint once typing pauses.
func (a *App) OnKeyReleased() {
	a.scheduleRecolor()
}

func (a *App) scheduleRecolor() {
	if a.quitting {
		return
	}
	a.timers.Schedule(taskRecolor, a.settings.RecolorDelay, a.Recolorize)
}

// OnFocusOut hides the window after a short delay when auto-hide is on.
func (a *App) OnFocusOut() {
	if !a.cfg.AutoHideOnFocus || a.quitting {
		return
	}
	a.timers.Schedule(taskAutoHide, a.settings.AutoHideDelay, func() {
		if a.visible {
			a.toggleVisibility()
		}
	})
}

func (a *App) OnFocusIn() {
	a.timers.Cancel(taskAutoHide)
}

// OnConfigure runs the edge snap for window move/resize events, at most
// once per throttle interval and only while the window is shown.
func (a *App) OnConfigure() {
	if !a.settings.EnableSnap || !a.visible || a.quitting || a.surface.Iconified() {
		return
	}
	if !a.throttle.Allow(a.host.Now()) {
		return
	}
	a.snapToEdges()
}

func (a *App) snapToEdges() {
	dist := a.cfg.SnapDistance
	if dist <= 0 {
		return
	}
	r, err := a.surface.Bounds()
	if err != nil {
		a.logToolkit("bounds", err)
		return
	}
	sw, sh := a.surface.ScreenSize()
	nx, ny := Snap(r.X, r.Y, r.Width, r.Height, sw, sh, dist)
	if nx != r.X || ny != r.Y {
		a.logToolkit("snap move", a.surface.Move(nx, ny))
	}
}

// OnClose handles the window manager's close request.
func (a *App) OnClose() {
	if err := a.Dispatch(Quit{}); err != nil && !errors.Is(err, ErrShuttingDown) {
		a.log.Warn("close failed", "err", err)
	}
}

func (a *App) scheduleConfigSave() {
	a.timers.Schedule(taskConfigSave, a.settings.ConfigSaveDelay, func() {
		if err := a.store.SaveConfig(a.cfg); err != nil {
			a.log.Error("save config failed", "err", err)
		}
	})
}

func (a *App) scheduleAutosave() {
	a.timers.Schedule(taskAutosave, a.autosave.Interval, a.autosaveTick)
}

func (a *App) autosaveTick() {
	if a.autosave.Due(a.host.Now()) {
		a.saveAll()
	}
	if !a.quitting {
		a.scheduleAutosave()
	}
}

// SaveAll writes content, config and geometry now and repaints.
func (a *App) SaveAll() error {
	if a.surface == nil {
		return ErrNotStarted
	}
	return a.saveAll()
}

func (a *App) saveAll() error {
	var errs []error
	if err := a.store.SaveContent(a.surface.Text()); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.SaveConfig(a.cfg); err != nil {
		errs = append(errs, err)
	}
	if r, err := a.surface.Bounds(); err != nil {
		a.logToolkit("bounds", err)
	} else if err := a.store.SaveGeometry(GeometryOf(r)); err != nil {
		errs = append(errs, err)
	}
	a.Recolorize()

	err := errors.Join(errs...)
	if err != nil {
		a.log.Error("save failed", "err", err)
	}
	return err
}

// quit cancels every timer, saves synchronously, releases registered
// resources and closes the window. Later calls do nothing.
func (a *App) quit() {
	if a.quitting {
		return
	}
	a.quitting = true
	a.log.Info("shutting down")

	a.timers.CancelAll()
	a.saveAll()

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("release failed", "resource", c.name, "err", err)
		}
	}
	a.surface.Close()
}

func (a *App) logToolkit(op string, err error) {
	if err != nil {
		a.log.Debug("window call failed", "err", ToolkitError(op, err))
	}
}

func cmdName(cmd Command) string {
	switch cmd.(type) {
	case SetAlpha:
		return "set-alpha"
	case ToggleTopmost:
		return "toggle-topmost"
	case SetBorderless, ToggleBorderless:
		return "borderless"
	case SetAutoHide, ToggleAutoHide:
		return "auto-hide"
	case SetTextColor:
		return "text-color"
	case SetBackgroundColor:
		return "background-color"
	case SetNoteColor:
		return "note-color"
	case SetFont:
		return "font"
	case ToggleVisibility:
		return "toggle-visibility"
	case InsertTimestamp:
		return "insert-timestamp"
	case SaveNow:
		return "save"
	case Quit:
		return "quit"
	}
	return "unknown"
}

package notes

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type testApp struct {
	*App
	host    *fakeHost
	surface *fakeSurface
	store   *Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := NewStore(t.TempDir())
	return newTestAppWithStore(t, store)
}

func newTestAppWithStore(t *testing.T, store *Store) *testApp {
	t.Helper()
	host := newFakeHost()
	app := NewApp(host, store, testSettings(), discardLogger())
	s := newFakeSurface()
	app.Start(s)
	return &testApp{App: app, host: host, surface: s, store: store}
}

func (ta *testApp) savedConfig(t *testing.T) (Config, bool) {
	t.Helper()
	data, err := os.ReadFile(ta.store.ConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, false
	}
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	return cfg, true
}

func (ta *testApp) savedContent(t *testing.T) string {
	t.Helper()
	text, err := ta.store.LoadContent()
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func TestStartFresh(t *testing.T) {
	ta := newTestApp(t)
	s := ta.surface

	if diff := cmp.Diff([][2]int{{DefaultWindowWidth, DefaultWindowHeight}}, s.resizes); diff != "" {
		t.Errorf("resizes (-want +got):\n%s", diff)
	}
	if len(s.moves) != 0 {
		t.Errorf("moved without saved position: %v", s.moves)
	}
	def := DefaultConfig()
	if s.minW != def.MinWidth || s.minH != def.MinHeight {
		t.Errorf("min size = %dx%d", s.minW, s.minH)
	}
	if s.alpha != def.WindowAlpha || !s.keepAbove || s.borderless {
		t.Errorf("window state alpha=%v above=%v borderless=%v", s.alpha, s.keepAbove, s.borderless)
	}
	if s.fg != def.TextFG || s.bg != def.TextBG || len(s.palette) != len(def.NoteColors) {
		t.Errorf("colors fg=%q bg=%q palette=%v", s.fg, s.bg, s.palette)
	}
	if s.fontFamily != "Dosis" || s.fontSize != 12 {
		t.Errorf("font = %q %d", s.fontFamily, s.fontSize)
	}
	if s.text != "" || len(s.paints) != 1 {
		t.Errorf("text=%q paints=%d", s.text, len(s.paints))
	}
	if !ta.Visible() {
		t.Error("not visible after start")
	}
	if _, ok := ta.savedConfig(t); ok {
		t.Error("config written on start")
	}
}

func TestStartRestoresState(t *testing.T) {
	store := NewStore(t.TempDir())
	content := "09:00 standup\nnotes\n10:00 review\n"
	if err := store.SaveContent(content); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.GeometryPath(), []byte(`{"width": 600, "height": "400", "x": 50, "y": 60}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Borderless = true
	cfg.WindowAlpha = 0.05
	if err := store.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}

	ta := newTestAppWithStore(t, store)
	s := ta.surface

	if s.text != content {
		t.Errorf("text = %q", s.text)
	}
	if diff := cmp.Diff([][2]int{{600, 400}}, s.resizes); diff != "" {
		t.Errorf("resizes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][2]int{{50, 60}}, s.moves); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}
	if !s.borderless {
		t.Error("borderless not restored")
	}
	if s.alpha != MinAlpha {
		t.Errorf("alpha = %v, want clamped %v", s.alpha, MinAlpha)
	}
	want := []Span{
		{Block: Block{0, 2}, ColorIndex: 0},
		{Block: Block{2, 3}, ColorIndex: 1},
	}
	if diff := cmp.Diff(want, s.paints[len(s.paints)-1]); diff != "" {
		t.Errorf("paint (-want +got):\n%s", diff)
	}
}

func TestStartIgnoresPositionWithoutSize(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := os.WriteFile(store.GeometryPath(), []byte(`{"width": 0, "height": 300, "x": 50, "y": 60}`), 0o644); err != nil {
		t.Fatal(err)
	}
	ta := newTestAppWithStore(t, store)
	if diff := cmp.Diff([][2]int{{DefaultWindowWidth, DefaultWindowHeight}}, ta.surface.resizes); diff != "" {
		t.Errorf("resizes (-want +got):\n%s", diff)
	}
	if len(ta.surface.moves) != 0 {
		t.Errorf("moved: %v", ta.surface.moves)
	}
}

func TestDispatchBeforeStart(t *testing.T) {
	app := NewApp(newFakeHost(), NewStore(t.TempDir()), testSettings(), discardLogger())
	if err := app.Dispatch(ToggleTopmost{}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
	if err := app.SaveAll(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("SaveAll err = %v, want ErrNotStarted", err)
	}
}

func TestConfigSaveIsDebounced(t *testing.T) {
	ta := newTestApp(t)

	if err := ta.Dispatch(SetAlpha{Alpha: 0.1}); err != nil {
		t.Fatal(err)
	}
	if ta.surface.alpha != MinAlpha || ta.Config().WindowAlpha != MinAlpha {
		t.Fatalf("alpha surface=%v config=%v", ta.surface.alpha, ta.Config().WindowAlpha)
	}

	ta.host.Advance(1900 * time.Millisecond)
	if err := ta.Dispatch(ToggleTopmost{}); err != nil {
		t.Fatal(err)
	}
	ta.host.Advance(1800 * time.Millisecond)
	if _, ok := ta.savedConfig(t); ok {
		t.Fatal("config written before the burst settled")
	}

	ta.host.Advance(300 * time.Millisecond)
	cfg, ok := ta.savedConfig(t)
	if !ok {
		t.Fatal("config not written")
	}
	if cfg.WindowAlpha != MinAlpha || cfg.AlwaysOnTop {
		t.Fatalf("saved alpha=%v topmost=%v", cfg.WindowAlpha, cfg.AlwaysOnTop)
	}
	if ta.surface.keepAbove {
		t.Error("keep-above not cleared on surface")
	}
}

func TestRejectedCommandLeavesConfig(t *testing.T) {
	ta := newTestApp(t)
	before := ta.Config()

	if err := ta.Dispatch(SetTextColor{Color: "not-a-color"}); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("err = %v, want ErrInvalidColor", err)
	}
	if err := ta.Dispatch(SetNoteColor{Index: 9, Color: "#000000"}); !errors.Is(err, ErrPaletteIndex) {
		t.Fatalf("err = %v, want ErrPaletteIndex", err)
	}
	if diff := cmp.Diff(before, ta.Config()); diff != "" {
		t.Fatalf("config changed (-want +got):\n%s", diff)
	}
	if ta.timers.Pending(taskConfigSave) {
		t.Fatal("config save scheduled for a rejected command")
	}
}

func TestNoteColorRepaints(t *testing.T) {
	ta := newTestApp(t)
	var seen []Config
	ta.OnChange(func(c Config) { seen = append(seen, c) })

	paints := len(ta.surface.paints)
	if err := ta.Dispatch(SetNoteColor{Index: 1, Color: "#ABCDEF"}); err != nil {
		t.Fatal(err)
	}
	if ta.surface.palette[1] != "#abcdef" {
		t.Errorf("palette = %v", ta.surface.palette)
	}
	if len(ta.surface.paints) != paints+1 {
		t.Errorf("paints = %d, want %d", len(ta.surface.paints), paints+1)
	}
	if len(seen) != 1 || seen[0].NoteColors[1] != "#abcdef" {
		t.Fatalf("observer saw %v", seen)
	}

	seen[0].NoteColors[1] = "#000000"
	if ta.Config().NoteColors[1] != "#abcdef" {
		t.Fatal("observer snapshot aliases app config")
	}
}

func TestTypingRecolorsAfterPause(t *testing.T) {
	ta := newTestApp(t)
	start := len(ta.surface.paints)

	for i := 0; i < 4; i++ {
		ta.surface.text += "08:00 x\n"
		ta.OnTextModified()
		ta.OnKeyReleased()
		ta.host.Advance(100 * time.Millisecond)
	}
	if len(ta.surface.paints) != start {
		t.Fatalf("repainted while typing: %d paints", len(ta.surface.paints)-start)
	}

	ta.host.Advance(300 * time.Millisecond)
	if got := len(ta.surface.paints) - start; got != 1 {
		t.Fatalf("%d repaints after pause, want 1", got)
	}
	if n := len(ta.surface.paints[len(ta.surface.paints)-1]); n != 4 {
		t.Fatalf("painted %d spans, want 4", n)
	}
}

func TestAutosaveOnlyWhileFresh(t *testing.T) {
	ta := newTestApp(t)

	ta.host.Advance(1600 * time.Millisecond)
	if _, err := os.Stat(ta.store.ContentPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("saved without any edit: %v", err)
	}

	ta.surface.text = "09:00 first\n"
	ta.OnTextModified()
	ta.host.Advance(1500 * time.Millisecond)
	if got := ta.savedContent(t); got != "09:00 first\n" {
		t.Fatalf("content = %q", got)
	}

	ta.host.Advance(6 * time.Second)
	ta.surface.text = "09:00 changed without edit event\n"
	ta.host.Advance(3 * time.Second)
	if got := ta.savedContent(t); got != "09:00 first\n" {
		t.Fatalf("stale buffer saved: %q", got)
	}
	if !ta.timers.Pending(taskAutosave) {
		t.Fatal("autosave tick not re-armed")
	}
}

func TestInsertTimestamp(t *testing.T) {
	ta := newTestApp(t)

	if err := ta.Dispatch(InsertTimestamp{}); err != nil {
		t.Fatal(err)
	}
	if want := "2025-01-02 08:30 "; ta.surface.text != want {
		t.Fatalf("text = %q, want %q", ta.surface.text, want)
	}

	ta.surface.text += "coffee"
	ta.surface.atLineStart = false
	ta.host.Advance(15 * time.Minute)
	if err := ta.Dispatch(InsertTimestamp{}); err != nil {
		t.Fatal(err)
	}
	if want := "2025-01-02 08:30 coffee\n2025-01-02 08:45 "; ta.surface.text != want {
		t.Fatalf("text = %q, want %q", ta.surface.text, want)
	}
	if n := len(ta.surface.paints[len(ta.surface.paints)-1]); n != 2 {
		t.Fatalf("painted %d spans, want 2", n)
	}
}

func TestToggleVisibility(t *testing.T) {
	ta := newTestApp(t)

	ta.Dispatch(ToggleVisibility{})
	if ta.Visible() || ta.surface.hidden != 1 {
		t.Fatalf("visible=%v hidden=%d", ta.Visible(), ta.surface.hidden)
	}
	ta.Dispatch(ToggleVisibility{})
	if !ta.Visible() || ta.surface.shown != 1 {
		t.Fatalf("visible=%v shown=%d", ta.Visible(), ta.surface.shown)
	}
}

func TestPostFromOtherGoroutine(t *testing.T) {
	ta := newTestApp(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ta.Post(ToggleVisibility{})
	}()
	wg.Wait()

	if !ta.Visible() {
		t.Fatal("posted command ran before the host drained it")
	}
	ta.host.Drain()
	if ta.Visible() {
		t.Fatal("posted toggle did not run")
	}
}

func TestAutoHide(t *testing.T) {
	ta := newTestApp(t)

	ta.OnFocusOut()
	ta.host.Advance(time.Second)
	if !ta.Visible() {
		t.Fatal("hidden with auto-hide off")
	}

	ta.Dispatch(SetAutoHide{Enabled: true})
	ta.OnFocusOut()
	ta.host.Advance(600 * time.Millisecond)
	if !ta.Visible() {
		t.Fatal("hidden before the delay")
	}
	ta.host.Advance(50 * time.Millisecond)
	if ta.Visible() {
		t.Fatal("not hidden after the delay")
	}

	ta.Dispatch(ToggleVisibility{})
	ta.OnFocusOut()
	ta.host.Advance(300 * time.Millisecond)
	ta.OnFocusIn()
	ta.host.Advance(time.Second)
	if !ta.Visible() {
		t.Fatal("focus-in did not cancel the pending hide")
	}

	ta.OnFocusOut()
	ta.Dispatch(SetAutoHide{Enabled: false})
	ta.host.Advance(time.Second)
	if !ta.Visible() {
		t.Fatal("disabling auto-hide did not cancel the pending hide")
	}
}

func TestOnConfigureSnaps(t *testing.T) {
	ta := newTestApp(t)
	s := ta.surface
	s.bounds = Rect{X: 5, Y: 10, Width: 400, Height: 300}

	ta.OnConfigure()
	if diff := cmp.Diff([][2]int{{0, 0}}, s.moves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}

	s.bounds = Rect{X: 1517, Y: 200, Width: 400, Height: 300}
	ta.OnConfigure()
	if len(s.moves) != 1 {
		t.Fatal("snap ran inside the throttle interval")
	}

	ta.host.Advance(100 * time.Millisecond)
	ta.OnConfigure()
	if got := s.moves[len(s.moves)-1]; got != [2]int{1520, 200} {
		t.Fatalf("last move = %v", got)
	}

	s.bounds = Rect{X: 5, Y: 10, Width: 400, Height: 300}
	s.iconified = true
	ta.host.Advance(time.Second)
	ta.OnConfigure()
	s.iconified = false
	ta.Dispatch(ToggleVisibility{})
	ta.host.Advance(time.Second)
	ta.OnConfigure()
	if len(s.moves) != 2 {
		t.Fatalf("snapped while iconified or hidden: %v", s.moves)
	}
}

func TestSaveNow(t *testing.T) {
	ta := newTestApp(t)
	ta.surface.text = "10:00 saved on demand\n"

	if err := ta.Dispatch(SaveNow{}); err != nil {
		t.Fatal(err)
	}
	if got := ta.savedContent(t); got != ta.surface.text {
		t.Fatalf("content = %q", got)
	}
	if _, ok := ta.savedConfig(t); !ok {
		t.Fatal("config not saved")
	}
	g, err := ta.store.LoadGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(GeometryOf(ta.surface.bounds), g); diff != "" {
		t.Fatalf("geometry (-want +got):\n%s", diff)
	}
}

func TestQuit(t *testing.T) {
	ta := newTestApp(t)
	ta.surface.text = "11:00 last words\n"
	ta.surface.bounds = Rect{X: 300, Y: 200, Width: 700, Height: 500}
	ta.Dispatch(SetFont{Family: "Fira Sans", Size: 13})
	ta.OnTextModified()

	var order []string
	ta.AddCloser("tray", func() error { order = append(order, "tray"); return nil })
	ta.AddCloser("hotkey", func() error { order = append(order, "hotkey"); return errors.New("busy") })

	if err := ta.Dispatch(Quit{}); err != nil {
		t.Fatal(err)
	}

	if got := ta.savedContent(t); got != "11:00 last words\n" {
		t.Errorf("content = %q", got)
	}
	cfg, ok := ta.savedConfig(t)
	if !ok || cfg.FontFamily != "Fira Sans" || cfg.FontSize != 13 {
		t.Errorf("config = %+v, saved %v", cfg, ok)
	}
	g, err := ta.store.LoadGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(GeometryOf(ta.surface.bounds), g); diff != "" {
		t.Errorf("geometry (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"hotkey", "tray"}, order); diff != "" {
		t.Errorf("closer order (-want +got):\n%s", diff)
	}
	if ta.surface.closed != 1 {
		t.Errorf("closed %d times", ta.surface.closed)
	}
	if n := ta.host.pendingTimers(); n != 0 {
		t.Errorf("%d timers armed after quit", n)
	}

	if err := ta.Dispatch(ToggleTopmost{}); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("dispatch after quit err = %v", err)
	}
	ta.OnClose()
	ta.OnTextModified()
	ta.OnFocusOut()
	ta.host.Advance(time.Minute)
	if ta.surface.closed != 1 || len(order) != 2 {
		t.Errorf("second shutdown ran: closed=%d closers=%v", ta.surface.closed, order)
	}
}

func TestBrokenConfigFallsBackToDefaults(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := os.WriteFile(store.ConfigPath(), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	ta := newTestAppWithStore(t, store)
	if diff := cmp.Diff(DefaultConfig(), ta.Config()); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
	data, _ := os.ReadFile(store.ConfigPath())
	if string(data) != "{oops" {
		t.Fatal("broken config rewritten on load")
	}
}

func TestAutosaveFlushesWithMisconfiguredInterval(t *testing.T) {
	t.Setenv("MINDPIC_AUTOSAVE_INTERVAL", "6s")
	settings, err := LoadSettings("")
	if !IsKind(err, KindMalformed) {
		t.Fatalf("err = %v, want malformed kind", err)
	}
	settings.EnableTray = false
	settings.EnableGlobalHotkeys = false

	store := NewStore(t.TempDir())
	host := newFakeHost()
	app := NewApp(host, store, settings, discardLogger())
	s := newFakeSurface()
	app.Start(s)

	host.Advance(500 * time.Millisecond)
	s.text = "09:00 flushed"
	app.OnTextModified()
	host.Advance(settings.AutosaveInterval + settings.AutosaveFreshness)

	data, err := os.ReadFile(store.ContentPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "09:00 flushed" {
		t.Fatalf("content on disk = %q, want the edit", data)
	}
}

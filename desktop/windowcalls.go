package desktop

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"mindpic/notes"

	"github.com/godbus/dbus/v5"
)

const (
	windowCallsDest  = "org.gnome.Shell"
	windowCallsPath  = dbus.ObjectPath("/org/gnome/Shell/Extensions/Windows")
	windowCallsIface = "org.gnome.Shell.Extensions.Windows"
)

// windowInfo is one entry of the window-calls List reply.
type windowInfo struct {
	ID      uint32 `json:"id"` // D-Bus type 'u'
	PID     int    `json:"pid"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	WMClass string `json:"wm_class"`
	Title   string `json:"title,omitempty"`
}

var errWindowNotFound = errors.New("own window not listed by window-calls")

// IsWayland reports whether the session runs on Wayland, where GTK can
// neither read nor set window positions.
func IsWayland() bool {
	if os.Getenv("XDG_SESSION_TYPE") == "wayland" {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// WindowCalls talks to the GNOME "window-calls" shell extension over the
// session bus. It is the only way to read and set the position of our own
// window under Wayland.
type WindowCalls struct {
	conn *dbus.Conn
	pid  int
	id   uint32
	log  *slog.Logger
}

// ConnectWindowCalls opens a session bus connection and checks that the
// extension answers. Any failure is reported as notes.KindUnavailable.
func ConnectWindowCalls(log *slog.Logger) (*WindowCalls, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, notes.Unavailable("connect session bus", err)
	}
	wc := &WindowCalls{
		conn: conn,
		pid:  os.Getpid(),
		log:  log.With("component", "windowcalls"),
	}
	if _, err := wc.list(); err != nil {
		conn.Close()
		return nil, notes.Unavailable("window-calls", err)
	}
	wc.log.Info("extension is available")
	return wc, nil
}

func (wc *WindowCalls) object() dbus.BusObject {
	return wc.conn.Object(windowCallsDest, windowCallsPath)
}

func (wc *WindowCalls) list() ([]windowInfo, error) {
	var out string
	if err := wc.object().Call(windowCallsIface+".List", 0).Store(&out); err != nil {
		return nil, fmt.Errorf("call List: %w", err)
	}
	var windows []windowInfo
	if err := json.Unmarshal([]byte(out), &windows); err != nil {
		return nil, fmt.Errorf("parse window list: %w (output: %s)", err, out[:min(100, len(out))])
	}
	return windows, nil
}

func (wc *WindowCalls) details(id uint32) (*windowInfo, error) {
	var out string
	if err := wc.object().Call(windowCallsIface+".Details", 0, id).Store(&out); err != nil {
		var dbusErr dbus.Error
		if errors.As(err, &dbusErr) && dbusErr.Name == "org.gnome.gjs.JSError.Error" {
			// The window is gone; forget the id and look it up again.
			wc.id = 0
		}
		return nil, fmt.Errorf("call Details: %w", err)
	}
	var details windowInfo
	if err := json.Unmarshal([]byte(out), &details); err != nil {
		return nil, fmt.Errorf("parse window details: %w (output: %s)", err, out[:min(100, len(out))])
	}
	return &details, nil
}

// locate finds the id of our window. With several windows of this process
// the one closest in size to width x height wins.
func (wc *WindowCalls) locate(width, height int) (uint32, error) {
	if wc.id != 0 {
		return wc.id, nil
	}
	windows, err := wc.list()
	if err != nil {
		return 0, err
	}

	best, bestScore := uint32(0), -1
	for _, win := range windows {
		if win.PID != wc.pid {
			continue
		}
		if win.Width == 0 && win.Height == 0 {
			// List often omits geometry.
			if d, err := wc.details(win.ID); err == nil {
				win = *d
			}
		}
		score := 0
		if absInt(win.Width-width) < 10 && absInt(win.Height-height) < 10 {
			score += 10
		}
		if win.Title == notes.AppName {
			score += 5
		}
		if score > bestScore {
			best, bestScore = win.ID, score
		}
	}
	if best == 0 {
		return 0, errWindowNotFound
	}
	wc.id = best
	wc.log.Debug("matched window", "id", best)
	return best, nil
}

// Bounds returns the window rectangle as the compositor sees it.
func (wc *WindowCalls) Bounds(width, height int) (notes.Rect, error) {
	id, err := wc.locate(width, height)
	if err != nil {
		return notes.Rect{}, err
	}
	d, err := wc.details(id)
	if err != nil {
		return notes.Rect{}, err
	}
	return notes.Rect{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}, nil
}

// Move places the window's top-left corner at x, y.
func (wc *WindowCalls) Move(width, height, x, y int) error {
	id, err := wc.locate(width, height)
	if err != nil {
		return err
	}
	// Move(winid: u, x: i, y: i)
	if err := wc.object().Call(windowCallsIface+".Move", 0, id, int32(x), int32(y)).Err; err != nil {
		return fmt.Errorf("call Move: %w", err)
	}
	return nil
}

func (wc *WindowCalls) Close() error {
	return wc.conn.Close()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

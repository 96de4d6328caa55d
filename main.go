package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"mindpic/desktop"
	"mindpic/notes"

	"github.com/gotk3/gotk3/gtk"
)

func main() {
	gtk.Init(nil)

	settingsPath, err := notes.SettingsPath()
	if err != nil {
		settingsPath = ""
	}
	settings, settingsErr := notes.LoadSettings(settingsPath)

	dataDir, dirErr, fallbackErr := chooseDataDir(settings, os.TempDir())
	store := notes.NewStore(dataDir)

	log, logFile, logErr := notes.OpenLogger(store.LogPath(), settings.LogLevel)
	defer logFile.Close()
	if logErr != nil {
		log.Warn("log file unavailable, logging to stderr only", "err", logErr)
	}
	if settingsErr != nil {
		log.Warn("settings unusable, using defaults", "err", settingsErr)
	}
	if dirErr != nil {
		log.Warn("data dir unavailable, using temp dir", "dir", dataDir, "err", dirErr)
	}
	if fallbackErr != nil {
		log.Warn("temp data dir unavailable", "dir", dataDir, "err", fallbackErr)
	}

	res, err := loadResources(settings.ManualPath)
	if err != nil {
		log.Error("load resources failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := res.cleanup(); err != nil {
			log.Warn("cleanup resources failed", "err", err)
		}
	}()

	app := notes.NewApp(desktop.NewHost(), store, settings, log)

	var wc *desktop.WindowCalls
	if desktop.IsWayland() {
		if wc, err = desktop.ConnectWindowCalls(log); err != nil {
			log.Info("window positions unavailable on this Wayland session", "err", err)
		} else {
			app.AddCloser("window-calls", wc.Close)
		}
	}

	win, err := desktop.NewWindow(app, res.Resources, wc, log)
	if err != nil {
		log.Error("create window failed", "err", err)
		res.cleanup()
		os.Exit(1)
	}
	app.Start(win)
	win.ShowAll()

	if settings.EnableTray {
		startTray(app, res, win, log)
	}
	if settings.EnableGlobalHotkeys {
		startHotkey(app, settings.GlobalToggleHotkey, log)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("signal received", "signal", sig.String())
		app.Post(notes.Quit{})
	}()

	gtk.Main()
	log.Info("bye")
}

// chooseDataDir resolves the configured data directory, falling back to a
// directory under tmp. Both errors are returned for logging once the logger
// exists.
func chooseDataDir(settings notes.Settings, tmp string) (dir string, dirErr, fallbackErr error) {
	dir, dirErr = settings.ResolveDataDir()
	if dirErr == nil {
		return dir, nil, nil
	}
	dir = filepath.Join(tmp, notes.AppID)
	return dir, dirErr, os.MkdirAll(dir, 0o755)
}

func startTray(app *notes.App, res *resources, win *desktop.Window, log *slog.Logger) {
	tray, err := desktop.NewTray(app, res.IconPath, win.OpenManual, log)
	if err != nil {
		log.Warn("tray disabled", "err", err)
		return
	}
	app.AddCloser("tray", tray.Close)
}

func startHotkey(app *notes.App, combo string, log *slog.Logger) {
	hk, err := desktop.RegisterGlobalHotkey(combo, app, log)
	if err != nil {
		log.Warn("global hotkey disabled", "hotkey", combo, "err", err)
		return
	}
	app.AddCloser("hotkey", hk.Close)
}

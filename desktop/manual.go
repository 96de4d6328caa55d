package desktop

import (
	"log/slog"
	"os"
	"os/exec"
)

// OpenManual hands path to the desktop's default viewer. A missing manual is
// logged and otherwise ignored.
func OpenManual(path string, log *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		log.Warn("manual not found", "path", path, "err", err)
		return
	}
	cmd := exec.Command("xdg-open", path)
	if err := cmd.Start(); err != nil {
		log.Warn("open manual failed", "path", path, "err", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("manual viewer exited", "err", err)
		}
	}()
}

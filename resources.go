package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"mindpic/desktop"
)

//go:embed assets/MindPic.ui assets/style.css
var uiFiles embed.FS

//go:embed assets/icons/mindpic.svg assets/manual.md
var extractFiles embed.FS

// resources holds the embedded window assets plus the files that other
// programs (the indicator, xdg-open) need to see on disk.
type resources struct {
	desktop.Resources
	dir string
}

// loadResources reads the UI and stylesheet and extracts the icon and manual
// into a fresh temp directory. manualPath overrides the embedded manual.
func loadResources(manualPath string) (*resources, error) {
	ui, err := uiFiles.ReadFile("assets/MindPic.ui")
	if err != nil {
		return nil, fmt.Errorf("read embedded UI: %w", err)
	}
	css, err := uiFiles.ReadFile("assets/style.css")
	if err != nil {
		return nil, fmt.Errorf("read embedded CSS: %w", err)
	}

	dir, err := os.MkdirTemp("", "mindpic-")
	if err != nil {
		return nil, fmt.Errorf("create resource dir: %w", err)
	}
	r := &resources{dir: dir}
	r.UI, r.CSS = string(ui), string(css)

	if r.IconPath, err = extract(dir, "assets/icons/mindpic.svg"); err != nil {
		r.cleanup()
		return nil, err
	}
	r.ManualPath = manualPath
	if r.ManualPath == "" {
		if r.ManualPath, err = extract(dir, "assets/manual.md"); err != nil {
			r.cleanup()
			return nil, err
		}
	}
	return r, nil
}

func extract(dir, name string) (string, error) {
	data, err := extractFiles.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read embedded %s: %w", name, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	return path, nil
}

// cleanup removes the extracted files.
func (r *resources) cleanup() error {
	if r == nil || r.dir == "" {
		return nil
	}
	return os.RemoveAll(r.dir)
}

package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Store owns the three files that make up the persisted state: the buffer
// text, config.json and the window geometry.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string          { return s.dir }
func (s *Store) ConfigPath() string   { return filepath.Join(s.dir, ConfigFileName) }
func (s *Store) ContentPath() string  { return filepath.Join(s.dir, ContentFileName) }
func (s *Store) GeometryPath() string { return filepath.Join(s.dir, GeometryFileName) }
func (s *Store) LogPath() string      { return filepath.Join(s.dir, LogFileName) }

// readOptional returns nil data and no error for a missing file.
func readOptional(op, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioError(op, path, err)
	}
	return data, nil
}

// writeFileAtomic writes to a uniquely named sibling and renames it over
// path, so a crash mid-write never leaves a truncated file behind.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// LoadContent returns the saved buffer text, or "" if there is none.
func (s *Store) LoadContent() (string, error) {
	data, err := readOptional("load content", s.ContentPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveContent overwrites the content file with text.
func (s *Store) SaveContent(text string) error {
	path := s.ContentPath()
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return ioError("save content", path, err)
	}
	return nil
}

// LoadConfig always returns a usable Config. A missing file gives the
// defaults silently; an unreadable or broken one gives the defaults (or the
// salvageable keys) plus an error to log. The file itself is left untouched.
func (s *Store) LoadConfig() (Config, error) {
	path := s.ConfigPath()
	data, err := readOptional("load config", path)
	if err != nil {
		return DefaultConfig(), err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return cfg, malformed("load config", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the schema keys of c.
func (s *Store) SaveConfig(c Config) error {
	path := s.ConfigPath()
	data, err := MarshalConfig(c)
	if err != nil {
		return malformed("save config", path, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return ioError("save config", path, err)
	}
	return nil
}

// Geometry is the saved window placement. Each field is optional; nil means
// the value was missing or not an integer.
type Geometry struct {
	Height *int `json:"height"`
	Width  *int `json:"width"`
	X      *int `json:"x"`
	Y      *int `json:"y"`
}

// GeometryOf captures r with every field present.
func GeometryOf(r Rect) Geometry {
	return Geometry{Width: intPtr(r.Width), Height: intPtr(r.Height), X: intPtr(r.X), Y: intPtr(r.Y)}
}

// HasSize reports whether both dimensions are present and non-zero.
func (g Geometry) HasSize() bool {
	return g.Width != nil && g.Height != nil && *g.Width != 0 && *g.Height != 0
}

func (g Geometry) HasPosition() bool {
	return g.X != nil && g.Y != nil
}

func intPtr(v int) *int { return &v }

// toIntOrNil accepts anything that reads as an integer (numbers, decimal
// strings, booleans) and maps everything else to nil.
func toIntOrNil(v any) *int {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		// cast reads "010" as octal.
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &n
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &n
}

// ParseGeometry decodes a geometry record leniently.
func ParseGeometry(data []byte) (Geometry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Geometry{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Geometry{}, err
	}
	return Geometry{
		Width:  toIntOrNil(raw["width"]),
		Height: toIntOrNil(raw["height"]),
		X:      toIntOrNil(raw["x"]),
		Y:      toIntOrNil(raw["y"]),
	}, nil
}

// LoadGeometry returns the saved placement, an empty Geometry if none.
func (s *Store) LoadGeometry() (Geometry, error) {
	path := s.GeometryPath()
	data, err := readOptional("load geometry", path)
	if err != nil {
		return Geometry{}, err
	}
	g, err := ParseGeometry(data)
	if err != nil {
		return Geometry{}, malformed("load geometry", path, err)
	}
	return g, nil
}

func (s *Store) SaveGeometry(g Geometry) error {
	path := s.GeometryPath()
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return malformed("save geometry", path, err)
	}
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return ioError("save geometry", path, err)
	}
	return nil
}

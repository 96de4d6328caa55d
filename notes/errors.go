package notes

import (
	"errors"
	"fmt"
)

// Kind classifies failures by how the application recovers from them.
type Kind int

const (
	// KindIO covers missing files, permission problems and full disks.
	KindIO Kind = iota
	// KindMalformed means a persisted file was readable but not usable.
	KindMalformed
	// KindUnavailable marks an optional capability (tray, global hotkey,
	// window-calls) that is absent on this system.
	KindUnavailable
	// KindToolkit wraps transient window-system failures.
	KindToolkit
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindMalformed:
		return "malformed"
	case KindUnavailable:
		return "unavailable"
	case KindToolkit:
		return "toolkit"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every fallible operation in this package.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func ioError(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

func malformed(op, path string, err error) error {
	return &Error{Kind: KindMalformed, Op: op, Path: path, Err: err}
}

// ToolkitError wraps a window-system failure so callers can log and drop it.
func ToolkitError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindToolkit, Op: op, Err: err}
}

// Unavailable builds the error returned when an optional capability is
// missing.
func Unavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

var (
	ErrInvalidColor = errors.New("invalid hex color")
	ErrPaletteIndex = errors.New("palette index out of range")
	ErrInvalidFont  = errors.New("invalid font")
	ErrNotStarted   = errors.New("app has no surface attached")
	ErrShuttingDown = errors.New("app is shutting down")
)

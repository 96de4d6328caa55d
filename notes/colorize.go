package notes

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Lines starting a new entry look like "2025-12-12 18:44", "12.12.2025 18:44"
// or just "18:44", each with optional seconds. Field ranges are not checked.
// WS and D stand for Unicode whitespace and decimal digits; RE2's \s and \d
// are ASCII only.
var timestampPatterns = []string{
	`^WS*D{4}-D{2}-D{2}WS+D{2}:D{2}(:D{2})?`,
	`^WS*D{2}\.D{2}\.D{4}WS+D{2}:D{2}(:D{2})?`,
	`^WS*D{2}:D{2}(:D{2})?`,
}

var patternClasses = strings.NewReplacer(
	"WS", `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`,
	"D", `\p{Nd}`,
)

var timestampRE = regexp.MustCompile(joinAlternatives(timestampPatterns))

func joinAlternatives(patterns []string) string {
	parts := make([]string, len(patterns))
	for i, p := range patterns {
		parts[i] = "(?:" + patternClasses.Replace(p) + ")"
	}
	return strings.Join(parts, "|")
}

// IsTimestampLine reports whether line opens a new note block.
func IsTimestampLine(line string) bool {
	if line == "" {
		return false
	}
	return timestampRE.MatchString(line)
}

// Block is the half-open line range [Start, End) of one note entry.
type Block struct {
	Start int
	End   int
}

// IterBlocks partitions lines into blocks, each starting at a timestamp line
// and running up to the next one. Without any timestamp line the whole
// buffer is one block. Lines before the first timestamp belong to no block.
func IterBlocks(lines []string) []Block {
	var starts []int
	for i, ln := range lines {
		if IsTimestampLine(ln) {
			starts = append(starts, i)
		}
	}

	if len(starts) == 0 {
		if len(lines) == 0 {
			return nil
		}
		return []Block{{Start: 0, End: len(lines)}}
	}

	blocks := make([]Block, 0, len(starts))
	for i, s := range starts {
		end := len(lines)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		blocks = append(blocks, Block{Start: s, End: end})
	}
	return blocks
}

// PickColorIndex cycles through a palette of colorCount entries.
func PickColorIndex(blockIndex, colorCount int) int {
	if colorCount <= 0 {
		return 0
	}
	return blockIndex % colorCount
}

// SplitLines splits text after every '\n', keeping the line endings. A
// trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Span is a block together with the palette slot it is painted with.
type Span struct {
	Block
	ColorIndex int
}

// Tag is the text-tag name the widget registers for this palette slot.
func (s Span) Tag() string { return PaletteTag(s.ColorIndex) }

// PaletteTag names the text tag for palette slot i.
func PaletteTag(i int) string { return fmt.Sprintf("note%d", i) }

// Colorize runs segmentation and color assignment over a buffer snapshot.
// An empty palette yields no spans.
func Colorize(text string, paletteLen int) []Span {
	if paletteLen <= 0 {
		return nil
	}
	blocks := IterBlocks(SplitLines(text))
	spans := make([]Span, len(blocks))
	for i, b := range blocks {
		spans[i] = Span{Block: b, ColorIndex: PickColorIndex(i, paletteLen)}
	}
	return spans
}

// FormatTimestamp renders t the way new entries are stamped.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

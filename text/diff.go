package text

import (
	"strings"
	"time"

	"griddiff/logger"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// splitLines splits text by newline and removes trailing empty element if present
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// SplitLines splits text into lines. A trailing newline does not produce an
// extra empty line, and the empty string has no lines.
func SplitLines(text string) []string {
	return splitLines(text)
}

// DiffType classifies a diff unit
type DiffType int

const (
	DiffSame DiffType = iota
	DiffOld
	DiffNew
)

// String returns the string representation of DiffType for Lua integration
func (dt DiffType) String() string {
	switch dt {
	case DiffSame:
		return "same"
	case DiffOld:
		return "old"
	case DiffNew:
		return "new"
	default:
		return "unknown"
	}
}

// DiffUnit is the fate of one line: kept, removed from old, or added in new.
// The order of units in a sequence is significant.
type DiffUnit struct {
	Type DiffType
	Line string
}

// ToLuaFormat converts a DiffUnit to a Lua-friendly map format
func (u DiffUnit) ToLuaFormat() map[string]any {
	return map[string]any{
		"type": u.Type.String(),
		"line": u.Line,
	}
}

// DiffOptions tunes the underlying sequence alignment
type DiffOptions struct {
	// Timeout bounds the time spent searching for a minimal edit script.
	// Zero means no deadline. When the deadline is hit the result is still
	// a valid, possibly non-minimal, diff.
	Timeout time.Duration
}

// DefaultDiffOptions matches diffmatchpatch's own defaults
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{Timeout: time.Second}
}

func (o DiffOptions) newDMP() *diffmatchpatch.DiffMatchPatch {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = o.Timeout
	return dmp
}

// DiffLines computes a line diff between two complete texts
func DiffLines(oldText, newText string) []DiffUnit {
	return DiffLinesWithOptions(oldText, newText, DefaultDiffOptions())
}

// DiffLinesWithOptions is DiffLines with explicit alignment options.
//
// Each Insert/Delete/Equal run is expanded to one unit per line. Two cleanup
// passes follow: adjacent (old, new) pairs that are equal after trimming are
// merged into a single same unit carrying the old text, then trailing empty
// old units are dropped.
func DiffLinesWithOptions(oldText, newText string, opts DiffOptions) []DiffUnit {
	defer logger.Trace("text.DiffLines")()

	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	// Terminate every line so a missing newline at EOF never makes the last
	// line differ from an otherwise identical one.
	dmp := opts.newDMP()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(joinTerminated(oldLines), joinTerminated(newLines))
	diffs := dmp.DiffMain(chars1, chars2, false)
	lineDiffs := dmp.DiffCharsToLines(diffs, lineArray)

	units := make([]DiffUnit, 0, max(len(oldLines), len(newLines)))
	for _, d := range lineDiffs {
		typ := fromDMPOperation(d.Type)
		for _, line := range splitLines(d.Text) {
			units = append(units, DiffUnit{Type: typ, Line: line})
		}
	}

	units = mergeTrimEqualPairs(units)
	units = trimTrailingEmptyOld(units)
	return units
}

func fromDMPOperation(op diffmatchpatch.Operation) DiffType {
	switch op {
	case diffmatchpatch.DiffInsert:
		return DiffNew
	case diffmatchpatch.DiffDelete:
		return DiffOld
	default:
		return DiffSame
	}
}

func joinTerminated(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// mergeTrimEqualPairs replaces each adjacent (old, new) pair whose trimmed text
// matches with one same unit carrying the old line. Single left-to-right scan.
func mergeTrimEqualPairs(units []DiffUnit) []DiffUnit {
	out := units[:0]
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u.Type == DiffOld && i+1 < len(units) && units[i+1].Type == DiffNew &&
			strings.TrimSpace(u.Line) == strings.TrimSpace(units[i+1].Line) {
			out = append(out, DiffUnit{Type: DiffSame, Line: u.Line})
			i++
			continue
		}
		out = append(out, u)
	}
	return out
}

// trimTrailingEmptyOld drops trailing old units whose line is empty.
// Trailing empty new units are kept.
func trimTrailingEmptyOld(units []DiffUnit) []DiffUnit {
	for len(units) > 0 {
		last := units[len(units)-1]
		if last.Type != DiffOld || last.Line != "" {
			break
		}
		units = units[:len(units)-1]
	}
	return units
}

// AccumulateUnits rebuilds the new text from a unit sequence: same and new
// lines joined by newlines, old lines discarded.
func AccumulateUnits(units []DiffUnit) string {
	var sb strings.Builder
	first := true
	for _, u := range units {
		if u.Type == DiffOld {
			continue
		}
		if !first {
			sb.WriteByte('\n')
		}
		sb.WriteString(u.Line)
		first = false
	}
	return sb.String()
}

// FindFirstChangedLine returns the 1-indexed line number of the first unit that
// is not same, or 0 when the sequence has no changes. Line numbers count
// positions in the new text; an old unit reports the line where it would sit.
func FindFirstChangedLine(units []DiffUnit) int {
	line := 1
	for _, u := range units {
		if u.Type != DiffSame {
			return line
		}
		line++
	}
	return 0
}

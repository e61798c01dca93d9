package text

import (
	"strings"

	"griddiff/logger"

	"github.com/clipperhouse/uax29/v2/graphemes"
)

// DiffCharUnit is one character (grapheme cluster) of a character diff.
// Position fields are nil on the side a unit does not belong to: same units
// carry both sides, old units only the old side, new units only the new side.
// Indices and columns count grapheme clusters, lines are 0-indexed.
type DiffCharUnit struct {
	Type            DiffType
	Char            string
	OldIndex        *int
	NewIndex        *int
	OldLineIndex    *int
	NewLineIndex    *int
	OldColumnInLine *int
	NewColumnInLine *int
}

// ToLuaFormat converts a DiffCharUnit to a Lua-friendly map, omitting unset positions
func (u DiffCharUnit) ToLuaFormat() map[string]any {
	m := map[string]any{
		"type": u.Type.String(),
		"char": u.Char,
	}
	set := func(key string, v *int) {
		if v != nil {
			m[key] = *v
		}
	}
	set("oldIndex", u.OldIndex)
	set("newIndex", u.NewIndex)
	set("oldLineIndex", u.OldLineIndex)
	set("newLineIndex", u.NewLineIndex)
	set("oldColumnInLine", u.OldColumnInLine)
	set("newColumnInLine", u.NewColumnInLine)
	return m
}

// charCursor tracks index/line/column on one side of a character diff
type charCursor struct {
	index  int
	line   int
	column int
}

// stamp returns pointers to the current position and then advances past char
func (c *charCursor) stamp(char string) (index, line, column *int) {
	index, line, column = intPtr(c.index), intPtr(c.line), intPtr(c.column)
	c.index++
	if strings.Contains(char, "\n") {
		c.line++
		c.column = 0
	} else {
		c.column++
	}
	return index, line, column
}

func intPtr(v int) *int {
	return &v
}

// DiffChars computes a character diff between two complete texts
func DiffChars(oldText, newText string) []DiffCharUnit {
	return DiffCharsWithOptions(oldText, newText, DefaultDiffOptions())
}

// DiffCharsWithOptions is DiffChars with explicit alignment options.
// Newlines are emitted as their own units.
func DiffCharsWithOptions(oldText, newText string, opts DiffOptions) []DiffCharUnit {
	defer logger.Trace("text.DiffChars")()

	enc := newClusterEncoder()
	oldRunes := enc.encode(oldText)
	newRunes := enc.encode(newText)

	dmp := opts.newDMP()
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)

	var oldPos, newPos charCursor
	var units []DiffCharUnit
	for _, d := range diffs {
		typ := fromDMPOperation(d.Type)
		for _, r := range d.Text {
			char := enc.decode(r)
			u := DiffCharUnit{Type: typ, Char: char}
			switch typ {
			case DiffSame:
				u.OldIndex, u.OldLineIndex, u.OldColumnInLine = oldPos.stamp(char)
				u.NewIndex, u.NewLineIndex, u.NewColumnInLine = newPos.stamp(char)
			case DiffOld:
				u.OldIndex, u.OldLineIndex, u.OldColumnInLine = oldPos.stamp(char)
			case DiffNew:
				u.NewIndex, u.NewLineIndex, u.NewColumnInLine = newPos.stamp(char)
			}
			units = append(units, u)
		}
	}
	return units
}

// clusterEncoder maps each distinct grapheme cluster to a single rune so the
// rune-level aligner never splits a cluster.
type clusterEncoder struct {
	clusters []string
	index    map[string]rune
}

func newClusterEncoder() *clusterEncoder {
	return &clusterEncoder{index: make(map[string]rune)}
}

func (e *clusterEncoder) encode(text string) []rune {
	var runes []rune
	iter := graphemes.FromString(text)
	for iter.Next() {
		cluster := iter.Value()
		r, ok := e.index[cluster]
		if !ok {
			r = codeRune(len(e.clusters))
			e.index[cluster] = r
			e.clusters = append(e.clusters, cluster)
		}
		runes = append(runes, r)
	}
	return runes
}

func (e *clusterEncoder) decode(r rune) string {
	return e.clusters[runeCode(r)]
}

// Surrogate code points do not survive a rune->string round trip, so the
// encoding skips over them.
const (
	surrogateMin = 0xD800
	surrogateLen = 0x800
)

func codeRune(i int) rune {
	if i >= surrogateMin {
		i += surrogateLen
	}
	return rune(i)
}

func runeCode(r rune) int {
	i := int(r)
	if i >= surrogateMin+surrogateLen {
		i -= surrogateLen
	}
	return i
}

package text

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func same(line string) DiffUnit { return DiffUnit{Type: DiffSame, Line: line} }
func old(line string) DiffUnit  { return DiffUnit{Type: DiffOld, Line: line} }
func added(line string) DiffUnit {
	return DiffUnit{Type: DiffNew, Line: line}
}

func countTypes(units []DiffUnit) (sameCount, oldCount, newCount int) {
	for _, u := range units {
		switch u.Type {
		case DiffSame:
			sameCount++
		case DiffOld:
			oldCount++
		case DiffNew:
			newCount++
		}
	}
	return
}

func TestSplitLines(t *testing.T) {
	assert.Empty(t, SplitLines(""))
	assert.Equal(t, []string{"a"}, SplitLines("a"))
	assert.Equal(t, []string{"a"}, SplitLines("a\n"))
	assert.Equal(t, []string{"a", ""}, SplitLines("a\n\n"))
	assert.Equal(t, []string{"", "b"}, SplitLines("\nb"))
}

func TestDiffLinesReplacement(t *testing.T) {
	actual := DiffLines("a\nb\nc", "a\nx\nc")
	assert.Equal(t, []DiffUnit{same("a"), old("b"), added("x"), same("c")}, actual)
}

func TestDiffLinesNoChanges(t *testing.T) {
	actual := DiffLines("line 1\nline 2", "line 1\nline 2")
	assert.Equal(t, []DiffUnit{same("line 1"), same("line 2")}, actual)
}

func TestDiffLinesIgnoresNewlineAtEOF(t *testing.T) {
	assert.Equal(t, []DiffUnit{same("a"), same("b")}, DiffLines("a\nb\n", "a\nb"))
	assert.Equal(t, []DiffUnit{same("a"), same("b")}, DiffLines("a\nb", "a\nb\n"))
}

func TestDiffLinesEmptyInputs(t *testing.T) {
	assert.Empty(t, DiffLines("", ""))
	assert.Equal(t, []DiffUnit{added("a"), added("b")}, DiffLines("", "a\nb"))
	assert.Equal(t, []DiffUnit{old("a"), old("b")}, DiffLines("a\nb", ""))
}

func TestDiffLinesDeletion(t *testing.T) {
	actual := DiffLines("line 1\nline 2\nline 3\nline 4", "line 1\nline 3\nline 4")
	assert.Equal(t, []DiffUnit{same("line 1"), old("line 2"), same("line 3"), same("line 4")}, actual)
}

func TestDiffLinesAddition(t *testing.T) {
	actual := DiffLines("line 1\nline 3", "line 1\nline 2\nline 3")
	assert.Equal(t, []DiffUnit{same("line 1"), added("line 2"), same("line 3")}, actual)
}

func TestDiffLinesMergesWhitespaceOnlyChange(t *testing.T) {
	actual := DiffLines("func f() {\n    return 1\n}", "func f() {\n\treturn 1\n}")
	assert.Equal(t, []DiffUnit{same("func f() {"), same("    return 1"), same("}")}, actual)
}

func TestDiffLinesMergeOnlyTouchesAdjacentPairs(t *testing.T) {
	// Two deletions followed by two insertions: only the middle pair is adjacent.
	units := []DiffUnit{old(" a"), old(" b"), added("b"), added("a")}
	merged := mergeTrimEqualPairs(units)
	assert.Equal(t, []DiffUnit{old(" a"), same(" b"), added("a")}, merged)
}

func TestDiffLinesMergeKeepsRealChanges(t *testing.T) {
	merged := mergeTrimEqualPairs([]DiffUnit{old("a"), added("b")})
	assert.Equal(t, []DiffUnit{old("a"), added("b")}, merged)
}

func TestDiffLinesTrimsTrailingEmptyOld(t *testing.T) {
	assert.Equal(t, []DiffUnit{same("a")}, DiffLines("a\n\n", "a"))
	assert.Equal(t, []DiffUnit{same("a"), old("b")}, trimTrailingEmptyOld([]DiffUnit{same("a"), old("b"), old(""), old("")}))
}

func TestDiffLinesKeepsTrailingEmptyNew(t *testing.T) {
	assert.Equal(t, []DiffUnit{same("a"), added("")}, DiffLines("a", "a\n\n"))
}

func TestDiffLinesCountInvariant(t *testing.T) {
	cases := []struct{ old, new string }{
		{"", "a\nb"},
		{"a\nb", ""},
		{"x\ny\nz", "y\nz\nw"},
		{"a\nb\nc\nd", "d\nc\nb\na"},
		{"a\nb\nc\n", "a\nB\nc\nd\n"},
		{"  one\ntwo\nthree", "one\n2\nthree\nfour"},
		{"a\n\nb", "a\nb\n\nc"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q->%q", tc.old, tc.new), func(t *testing.T) {
			units := DiffLines(tc.old, tc.new)
			sameCount, oldCount, newCount := countTypes(units)
			assert.Equal(t, len(SplitLines(tc.old)), oldCount+sameCount, "old side")
			assert.Equal(t, len(SplitLines(tc.new)), newCount+sameCount, "new side")
		})
	}
}

func TestDiffLinesRoundTrip(t *testing.T) {
	cases := []struct{ old, new string }{
		{"a\nb\nc", "a\nx\nc"},
		{"", "hello\nworld\n"},
		{"one\ntwo\nthree", ""},
		{"func a() {\n\treturn 1\n}\n", "func a() {\n\tx := 2\n\treturn x\n}\n"},
	}
	for _, tc := range cases {
		units := DiffLines(tc.old, tc.new)
		assert.Equal(t, strings.TrimSuffix(tc.new, "\n"), AccumulateUnits(units), "round trip of %q", tc.new)
	}
}

func TestDiffLinesWithoutTimeout(t *testing.T) {
	var oldB, newB strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&oldB, "line %d\n", i)
		if i%7 != 0 {
			fmt.Fprintf(&newB, "line %d\n", i)
		}
	}
	units := DiffLinesWithOptions(oldB.String(), newB.String(), DiffOptions{})
	sameCount, oldCount, newCount := countTypes(units)
	assert.Equal(t, 0, newCount)
	assert.Equal(t, 29, oldCount)
	assert.Equal(t, 171, sameCount)
}

func TestDiffTypeString(t *testing.T) {
	assert.Equal(t, "same", DiffSame.String())
	assert.Equal(t, "old", DiffOld.String())
	assert.Equal(t, "new", DiffNew.String())
	assert.Equal(t, "unknown", DiffType(42).String())
}

func TestDiffUnitToLuaFormat(t *testing.T) {
	assert.Equal(t, map[string]any{"type": "old", "line": "x"}, old("x").ToLuaFormat())
}

func TestFindFirstChangedLine(t *testing.T) {
	assert.Equal(t, 0, FindFirstChangedLine(DiffLines("a\nb", "a\nb")))
	assert.Equal(t, 2, FindFirstChangedLine(DiffLines("a\nb\nc", "a\nx\nc")))
	assert.Equal(t, 1, FindFirstChangedLine(DiffLines("", "a")))
}

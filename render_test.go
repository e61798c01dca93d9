package main

import (
	"bytes"
	"errors"
	"testing"

	"griddiff/text"

	"github.com/stretchr/testify/assert"
)

func TestRendererUnitsPlain(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, false)
	r.units([]text.DiffUnit{
		{Type: text.DiffSame, Line: "a"},
		{Type: text.DiffOld, Line: "b"},
		{Type: text.DiffNew, Line: "c"},
	})
	assert.Equal(t, "  a\n- b\n+ c\n", buf.String())
}

func TestRendererCharsGroupsRuns(t *testing.T) {
	var buf bytes.Buffer
	newRenderer(&buf, false).chars(text.DiffChars("cat", "cut"))
	assert.Equal(t, "c[-a-]{+u+}t\n", buf.String())
}

func TestRendererStats(t *testing.T) {
	var buf bytes.Buffer
	newRenderer(&buf, false).stats(text.DiffStats{LinesAdded: 1, LinesRemoved: 2, LinesChanged: 1, CharChanges: 7})
	assert.Equal(t, "1 added, 2 removed, 1 changed, 7 chars\n", buf.String())
}

func TestRenderErrorKeepsMessage(t *testing.T) {
	assert.Contains(t, renderError(errors.New("boom")), "boom")
}

package text

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src LineSource) []string {
	t.Helper()
	var lines []string
	for {
		line, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestLineSplitterBuffersPartialLines(t *testing.T) {
	var l LineSplitter
	assert.Empty(t, l.Push("fo"))
	assert.Equal(t, []string{"foo()"}, l.Push("o()\nba"))
	assert.Empty(t, l.Push("r("))
	assert.Equal(t, []string{"bar()", "", "baz"}, l.Push(")\n\nbaz\nq"))

	rest, ok := l.Flush()
	assert.True(t, ok)
	assert.Equal(t, "q", rest)

	_, ok = l.Flush()
	assert.False(t, ok, "flush resets the buffer")
}

func TestLineSplitterTrailingNewline(t *testing.T) {
	var l LineSplitter
	assert.Equal(t, []string{"a"}, l.Push("a\n"))
	_, ok := l.Flush()
	assert.False(t, ok)
}

func TestSliceAndStringSources(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, drain(t, SliceSource([]string{"a", "b"})))
	assert.Equal(t, []string{"a", "", "b"}, drain(t, StringSource("a\n\nb\n")))
	assert.Empty(t, drain(t, StringSource("")))
}

func TestSliceSourceRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SliceSource([]string{"a"}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChanSource(t *testing.T) {
	lines := make(chan string, 3)
	lines <- "one"
	lines <- "two"
	close(lines)
	assert.Equal(t, []string{"one", "two"}, drain(t, ChanSource(lines)))
}

func TestChunkSource(t *testing.T) {
	chunks := make(chan string, 4)
	chunks <- "func "
	chunks <- "f() {\n\tre"
	chunks <- "turn\n}"
	close(chunks)
	assert.Equal(t, []string{"func f() {", "\treturn", "}"}, drain(t, ChunkSource(chunks)))
}

func TestChunkSourceCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ChunkSource(make(chan string)).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReaderSource(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, drain(t, ReaderSource(strings.NewReader("a\nb\n"))))
	assert.Equal(t, []string{"a", "b"}, drain(t, ReaderSource(strings.NewReader("a\nb"))))
	assert.Equal(t, []string{"", ""}, drain(t, ReaderSource(strings.NewReader("\n\n"))))
	assert.Empty(t, drain(t, ReaderSource(strings.NewReader(""))))
}

func TestAccumulateRebuildsNewText(t *testing.T) {
	oldLines := []string{"a", "b", "c"}
	newText := "a\nx\nc\nd"
	got, err := Accumulate(context.Background(), StreamDiff(oldLines, StringSource(newText)))
	require.NoError(t, err)
	assert.Equal(t, newText, got)
}

func TestAccumulateUnitsDropsOld(t *testing.T) {
	assert.Equal(t, "a\nx", AccumulateUnits([]DiffUnit{same("a"), old("b"), added("x")}))
	assert.Equal(t, "", AccumulateUnits(nil))
	assert.Equal(t, "", AccumulateUnits([]DiffUnit{old("a")}))
}

func TestStreamFromChunksEndToEnd(t *testing.T) {
	chunks := make(chan string)
	go func() {
		defer close(chunks)
		for _, c := range []string{"foo", "()\nnew", "()\nbar()", "\n"} {
			chunks <- c
		}
	}()

	units, err := Collect(context.Background(), StreamDiff([]string{"foo()", "bar()", "baz()"}, ChunkSource(chunks)))
	require.NoError(t, err)
	assert.Equal(t, []DiffUnit{same("foo()"), added("new()"), same("bar()"), old("baz()")}, units)
}

package text

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// LineSource delivers new lines one at a time, in order. Next blocks until a
// line is available and returns io.EOF once the source is exhausted.
type LineSource interface {
	Next(ctx context.Context) (string, error)
}

type sliceSource struct {
	lines []string
	idx   int
}

// SliceSource returns a LineSource over a fixed slice of lines
func SliceSource(lines []string) LineSource {
	return &sliceSource{lines: lines}
}

// StringSource returns a LineSource over the lines of text
func StringSource(text string) LineSource {
	return &sliceSource{lines: splitLines(text)}
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.idx >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.idx]
	s.idx++
	return line, nil
}

type chanSource struct {
	lines <-chan string
}

// ChanSource adapts a channel of complete lines. Closing the channel ends the source.
func ChanSource(lines <-chan string) LineSource {
	return &chanSource{lines: lines}
}

func (s *chanSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// LineSplitter turns arbitrary text chunks into complete lines. The trailing
// fragment after the last newline is held back until more text or Flush.
type LineSplitter struct {
	partial string
}

// Push appends chunk and returns the lines it completed
func (l *LineSplitter) Push(chunk string) []string {
	if !strings.Contains(chunk, "\n") {
		l.partial += chunk
		return nil
	}
	parts := strings.Split(l.partial+chunk, "\n")
	l.partial = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// Flush returns the buffered fragment, if any, and resets the splitter
func (l *LineSplitter) Flush() (string, bool) {
	if l.partial == "" {
		return "", false
	}
	p := l.partial
	l.partial = ""
	return p, true
}

type chunkSource struct {
	chunks   <-chan string
	splitter LineSplitter
	ready    []string
	done     bool
}

// ChunkSource adapts a channel of raw text chunks (e.g. completion tokens)
// into a line source. Closing the channel ends the source; a final
// unterminated fragment is delivered as the last line.
func ChunkSource(chunks <-chan string) LineSource {
	return &chunkSource{chunks: chunks}
}

func (s *chunkSource) Next(ctx context.Context) (string, error) {
	for len(s.ready) == 0 {
		if s.done {
			return "", io.EOF
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-s.chunks:
			if !ok {
				s.done = true
				if rest, ok := s.splitter.Flush(); ok {
					s.ready = append(s.ready, rest)
				}
				continue
			}
			s.ready = s.splitter.Push(chunk)
		}
	}
	line := s.ready[0]
	s.ready = s.ready[1:]
	return line, nil
}

type readerSource struct {
	r    *bufio.Reader
	done bool
}

// ReaderSource reads newline-separated lines from r
func ReaderSource(r io.Reader) LineSource {
	return &readerSource{r: bufio.NewReader(r)}
}

func (s *readerSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.done {
		return "", io.EOF
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		s.done = true
		if line == "" {
			return "", io.EOF
		}
		return line, nil
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Collect drains d into a slice
func Collect(ctx context.Context, d *OnlineDiffer) ([]DiffUnit, error) {
	var units []DiffUnit
	for {
		u, err := d.Next(ctx)
		if errors.Is(err, io.EOF) {
			return units, nil
		}
		if err != nil {
			return units, err
		}
		units = append(units, u)
	}
}

// Accumulate drains d and rebuilds the new text from its same and new units
func Accumulate(ctx context.Context, d *OnlineDiffer) (string, error) {
	var sb strings.Builder
	first := true
	for {
		u, err := d.Next(ctx)
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		if u.Type == DiffOld {
			continue
		}
		if !first {
			sb.WriteByte('\n')
		}
		sb.WriteString(u.Line)
		first = false
	}
}

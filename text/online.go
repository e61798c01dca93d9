package text

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"griddiff/logger"
)

// ErrNoSource is returned by Next on a differ created without a line source
var ErrNoSource = errors.New("text: online differ has no line source")

// OnlineDiffer diffs a fully known set of old lines against new lines that
// arrive one at a time. Each decision is made as soon as its new line is
// seen; nothing after it is looked at.
//
// A differ belongs to one run and is not safe for concurrent use.
type OnlineDiffer struct {
	oldLines []string // never mutated
	oldIdx   int      // old lines before oldIdx have been emitted

	// lenient is set once a line has been seen that only matched an old line
	// after trimming whitespace. It is never cleared.
	lenient bool

	src     LineSource
	pending []DiffUnit
	srcDone bool
	err     error

	newCount int
}

// NewOnlineDiffer creates a push-style differ: feed it with Step and Finish
func NewOnlineDiffer(oldLines []string) *OnlineDiffer {
	return &OnlineDiffer{oldLines: oldLines}
}

// StreamDiff creates a pull-style differ that reads new lines from src as
// units are requested with Next.
func StreamDiff(oldLines []string, src LineSource) *OnlineDiffer {
	return &OnlineDiffer{oldLines: oldLines, src: src}
}

// Next returns the next diff unit, reading from the source only when no
// decided unit is pending. It returns io.EOF once both sides are exhausted.
// Any other source error is returned as is and every later call returns it
// again; units already returned remain valid.
func (d *OnlineDiffer) Next(ctx context.Context) (DiffUnit, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return DiffUnit{}, d.err
		}
		if d.srcDone {
			return DiffUnit{}, io.EOF
		}
		if d.src == nil {
			d.err = ErrNoSource
			continue
		}

		line, err := d.src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			d.srcDone = true
			d.pending = d.Finish()
		case err != nil:
			d.err = err
		default:
			d.pending = d.Step(line)
		}
	}

	u := d.pending[0]
	d.pending = d.pending[1:]
	return u, nil
}

// All returns an iterator over the remaining units. Iteration stops at the
// end of the diff or after yielding the first error.
func (d *OnlineDiffer) All(ctx context.Context) iter.Seq2[DiffUnit, error] {
	return func(yield func(DiffUnit, error) bool) {
		for {
			u, err := d.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(DiffUnit{}, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

// Step decides the fate of one new line and returns the units it settles:
//   - an exact match with a remaining old line emits the old lines skipped
//     over as old, then the match as same
//   - once lenient, a match after trimming whitespace does the same, keeping
//     the old line's text
//   - otherwise the line is new and the old lines are left untouched
func (d *OnlineDiffer) Step(line string) []DiffUnit {
	d.newCount++

	if d.oldIdx >= len(d.oldLines) {
		return []DiffUnit{{Type: DiffNew, Line: line}}
	}

	k := d.findExact(line)
	if k < 0 && d.lenient {
		k = d.findTrimmed(line)
	}
	if k < 0 {
		if !d.lenient && d.findTrimmed(line) >= 0 {
			d.lenient = true
			logger.Debug("online diff: indentation drift at new line %d, switching to trimmed matching", d.newCount)
		}
		return []DiffUnit{{Type: DiffNew, Line: line}}
	}

	units := make([]DiffUnit, 0, k+1)
	for ; k > 0; k-- {
		units = append(units, DiffUnit{Type: DiffOld, Line: d.oldLines[d.oldIdx]})
		d.oldIdx++
	}
	units = append(units, DiffUnit{Type: DiffSame, Line: d.oldLines[d.oldIdx]})
	d.oldIdx++
	return units
}

// Finish ends the new side and returns every old line not yet consumed as old
func (d *OnlineDiffer) Finish() []DiffUnit {
	rest := d.oldLines[d.oldIdx:]
	units := make([]DiffUnit, 0, len(rest))
	for _, line := range rest {
		units = append(units, DiffUnit{Type: DiffOld, Line: line})
	}
	d.oldIdx = len(d.oldLines)
	logger.Debug("online diff: finished after %d new lines, %d old lines flushed, lenient=%v", d.newCount, len(rest), d.lenient)
	return units
}

// Remaining returns a copy of the old lines not yet consumed
func (d *OnlineDiffer) Remaining() []string {
	return append([]string(nil), d.oldLines[d.oldIdx:]...)
}

// Lenient reports whether trimmed matching has been switched on
func (d *OnlineDiffer) Lenient() bool {
	return d.lenient
}

// findExact returns the offset from the queue front of the first old line
// equal to line, or -1
func (d *OnlineDiffer) findExact(line string) int {
	for i := d.oldIdx; i < len(d.oldLines); i++ {
		if d.oldLines[i] == line {
			return i - d.oldIdx
		}
	}
	return -1
}

// findTrimmed is findExact comparing whitespace-trimmed text
func (d *OnlineDiffer) findTrimmed(line string) int {
	trimmed := strings.TrimSpace(line)
	for i := d.oldIdx; i < len(d.oldLines); i++ {
		if strings.TrimSpace(d.oldLines[i]) == trimmed {
			return i - d.oldIdx
		}
	}
	return -1
}

// Package source turns OpenAI-compatible completion streams into line sources
// for the online differ.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"griddiff/logger"
	"griddiff/text"
)

// StreamChunk represents a single SSE chunk from a streaming completion response
type StreamChunk struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// EventStream decodes the text chunks of a `text/event-stream` completion body.
// Comments, blank lines and undecodable events are skipped.
type EventStream struct {
	scanner      *bufio.Scanner
	finishReason string
	done         bool
}

// NewEventStream reads events from body
func NewEventStream(body io.Reader) *EventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &EventStream{scanner: scanner}
}

// NextChunk returns the next non-empty text chunk, or io.EOF after
// `data: [DONE]` or the end of the body.
func (s *EventStream) NextChunk() (string, error) {
	for !s.done && s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if line == "data: [DONE]" {
			s.done = true
			break
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
			logger.Debug("event stream: failed to parse chunk: %v", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if chunk.Choices[0].FinishReason != "" {
			s.finishReason = chunk.Choices[0].FinishReason
		}
		if chunk.Choices[0].Text != "" {
			return chunk.Choices[0].Text, nil
		}
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// FinishReason is the last finish_reason seen on the stream
func (s *EventStream) FinishReason() string {
	return s.finishReason
}

// LineStream is a text.LineSource over an event stream, with optional
// early stop after a number of lines.
type LineStream struct {
	events       *EventStream
	body         io.Closer
	splitter     text.LineSplitter
	ready        []string
	maxLines     int
	lineCount    int
	stoppedEarly bool
	ended        bool
}

var _ text.LineSource = (*LineStream)(nil)

// Lines returns a line source over an event stream body. maxLines stops the
// stream after that many lines (0 = no limit).
func Lines(body io.Reader, maxLines int) *LineStream {
	ls := &LineStream{events: NewEventStream(body), maxLines: maxLines}
	if c, ok := body.(io.Closer); ok {
		ls.body = c
	}
	return ls
}

// Next implements text.LineSource
func (ls *LineStream) Next(ctx context.Context) (string, error) {
	if ls.maxLines > 0 && ls.lineCount >= ls.maxLines && (len(ls.ready) > 0 || !ls.ended) {
		logger.Debug("event stream: stopping early at %d lines", ls.lineCount)
		ls.stoppedEarly = true
		ls.ended = true
		ls.ready = nil
	}

	for len(ls.ready) == 0 {
		if ls.ended {
			return "", io.EOF
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		chunk, err := ls.events.NextChunk()
		if errors.Is(err, io.EOF) {
			ls.ended = true
			if rest, ok := ls.splitter.Flush(); ok {
				ls.ready = append(ls.ready, rest)
			}
			continue
		}
		if err != nil {
			return "", err
		}
		ls.ready = ls.splitter.Push(chunk)
	}

	line := ls.ready[0]
	ls.ready = ls.ready[1:]
	ls.lineCount++
	return line, nil
}

// StoppedEarly reports whether the line limit cut the stream short
func (ls *LineStream) StoppedEarly() bool {
	return ls.stoppedEarly
}

// FinishReason is the finish_reason reported by the server, if any
func (ls *LineStream) FinishReason() string {
	return ls.events.FinishReason()
}

// Close releases the underlying body when it is closable
func (ls *LineStream) Close() error {
	if ls.body == nil {
		return nil
	}
	return ls.body.Close()
}

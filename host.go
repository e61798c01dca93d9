package main

import (
	"fmt"
	"sync"

	"griddiff/logger"
	"griddiff/text"

	"github.com/neovim/go-client/nvim"
)

// streamSession is one in-flight online diff driven by an editor pushing
// completion text as it arrives.
type streamSession struct {
	differ   *text.OnlineDiffer
	splitter text.LineSplitter
	units    []text.DiffUnit
}

// Host serves diff requests over msgpack-RPC. Sessions are shared across
// connections so a stream can outlive the request that started it.
type Host struct {
	opts text.DiffOptions

	mu       sync.Mutex
	nextID   int
	sessions map[int]*streamSession
}

func NewHost(opts text.DiffOptions) *Host {
	return &Host{
		opts:     opts,
		nextID:   1,
		sessions: make(map[int]*streamSession),
	}
}

// Register installs the griddiff_* handlers on n
func (h *Host) Register(n *nvim.Nvim) error {
	handlers := map[string]any{
		"griddiff_lines": func(_ *nvim.Nvim, oldText, newText string) ([]map[string]any, error) {
			return h.Lines(oldText, newText), nil
		},
		"griddiff_chars": func(_ *nvim.Nvim, oldText, newText string) ([]map[string]any, error) {
			return h.Chars(oldText, newText), nil
		},
		"griddiff_stats": func(_ *nvim.Nvim, oldText, newText string) (map[string]any, error) {
			return h.Stats(oldText, newText), nil
		},
		"griddiff_stream_start": func(_ *nvim.Nvim, oldLines []string) (int, error) {
			return h.StreamStart(oldLines), nil
		},
		"griddiff_stream_push": func(_ *nvim.Nvim, id int, chunk string) ([]map[string]any, error) {
			return h.StreamPush(id, chunk)
		},
		"griddiff_stream_finish": func(_ *nvim.Nvim, id int) (map[string]any, error) {
			return h.StreamFinish(id)
		},
	}
	for name, fn := range handlers {
		if err := n.RegisterHandler(name, fn); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}
	return nil
}

func (h *Host) Lines(oldText, newText string) []map[string]any {
	return unitsToLua(text.DiffLinesWithOptions(oldText, newText, h.opts))
}

func (h *Host) Chars(oldText, newText string) []map[string]any {
	units := text.DiffCharsWithOptions(oldText, newText, h.opts)
	out := make([]map[string]any, len(units))
	for i, u := range units {
		out[i] = u.ToLuaFormat()
	}
	return out
}

func (h *Host) Stats(oldText, newText string) map[string]any {
	return text.ComputeStats(text.DiffLinesWithOptions(oldText, newText, h.opts)).ToLuaFormat()
}

// StreamStart opens a session against oldLines and returns its id
func (h *Host) StreamStart(oldLines []string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.sessions[id] = &streamSession{differ: text.NewOnlineDiffer(oldLines)}
	logger.Debug("host: stream %d started with %d old lines", id, len(oldLines))
	return id
}

// StreamPush feeds a chunk of new text to a session and returns the units
// settled by the lines it completed. A trailing fragment waits for the next
// push or the finish.
func (h *Host) StreamPush(id int, chunk string) ([]map[string]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown stream %d", id)
	}

	var settled []text.DiffUnit
	for _, line := range s.splitter.Push(chunk) {
		settled = append(settled, s.differ.Step(line)...)
	}
	s.units = append(s.units, settled...)
	return unitsToLua(settled), nil
}

// StreamFinish closes a session. The result holds the units settled by the
// finish ("units") and the stats of the whole stream ("stats").
func (h *Host) StreamFinish(id int) (map[string]any, error) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown stream %d", id)
	}

	var settled []text.DiffUnit
	if rest, ok := s.splitter.Flush(); ok {
		settled = append(settled, s.differ.Step(rest)...)
	}
	settled = append(settled, s.differ.Finish()...)
	s.units = append(s.units, settled...)

	logger.Debug("host: stream %d finished, %d units", id, len(s.units))
	return map[string]any{
		"units": unitsToLua(settled),
		"stats": text.ComputeStats(s.units).ToLuaFormat(),
	}, nil
}

// activeStreams returns the number of open sessions
func (h *Host) activeStreams() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func unitsToLua(units []text.DiffUnit) []map[string]any {
	out := make([]map[string]any, len(units))
	for i, u := range units {
		out[i] = u.ToLuaFormat()
	}
	return out
}

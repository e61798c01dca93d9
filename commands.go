package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"griddiff/logger"
	"griddiff/source"
	"griddiff/text"

	"github.com/urfave/cli/v2"
)

func twoInputs(c *cli.Context) (string, string, error) {
	if c.NArg() != 2 {
		return "", "", fmt.Errorf("%s expects OLD and NEW, got %d arguments", c.Command.Name, c.NArg())
	}
	oldText, err := readInput(c.Args().Get(0))
	if err != nil {
		return "", "", err
	}
	newText, err := readInput(c.Args().Get(1))
	if err != nil {
		return "", "", err
	}
	return oldText, newText, nil
}

func diffCmd(state *appState) *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Diff two files line by line, or by character with --chars",
		ArgsUsage: "OLD NEW",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "chars", Usage: "diff grapheme clusters instead of lines"},
			&cli.BoolFlag{Name: "stats", Usage: "print change stats after the diff"},
		},
		Action: func(c *cli.Context) error {
			oldText, newText, err := twoInputs(c)
			if err != nil {
				return err
			}
			r := newRenderer(c.App.Writer, state.config.Color)
			opts := state.config.DiffOptions()

			if c.Bool("chars") {
				r.chars(text.DiffCharsWithOptions(oldText, newText, opts))
				return nil
			}

			units := text.DiffLinesWithOptions(oldText, newText, opts)
			r.units(units)
			if c.Bool("stats") {
				r.stats(text.ComputeStats(units))
			}
			return nil
		},
	}
}

func statsCmd(state *appState) *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Summarize the line diff between two files",
		ArgsUsage: "OLD NEW",
		Action: func(c *cli.Context) error {
			oldText, newText, err := twoInputs(c)
			if err != nil {
				return err
			}
			units := text.DiffLinesWithOptions(oldText, newText, state.config.DiffOptions())
			newRenderer(c.App.Writer, state.config.Color).stats(text.ComputeStats(units))
			return nil
		},
	}
}

func streamCmd(state *appState) *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "Diff OLD against new text as it arrives, printing each line once decided",
		ArgsUsage: "OLD [NEW|-]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "sse", Usage: "NEW is a completion event stream (text/event-stream)"},
			&cli.StringFlag{Name: "url", Usage: "request a streaming completion from this server instead of reading NEW"},
			&cli.StringFlag{Name: "model", Usage: "model for --url"},
			&cli.StringFlag{Name: "prompt", Usage: "prompt for --url (defaults to OLD)"},
			&cli.IntFlag{Name: "max-lines", Usage: "stop after this many new lines (0 = no limit)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 || c.NArg() > 2 {
				return fmt.Errorf("stream expects OLD and optionally NEW, got %d arguments", c.NArg())
			}
			oldText, err := readInput(c.Args().Get(0))
			if err != nil {
				return err
			}

			maxLines := state.config.MaxLines
			if c.IsSet("max-lines") {
				maxLines = c.Int("max-lines")
			}

			src, closeSrc, err := openStreamSource(c, state.config, oldText, maxLines)
			if err != nil {
				return err
			}
			defer closeSrc()

			r := newRenderer(c.App.Writer, state.config.Color)
			d := text.StreamDiff(text.SplitLines(oldText), src)
			var units []text.DiffUnit
			for u, err := range d.All(c.Context) {
				if err != nil {
					return err
				}
				r.unit(u)
				units = append(units, u)
			}
			r.stats(text.ComputeStats(units))
			return nil
		},
	}
}

// openStreamSource picks where new lines come from: a completion server, an
// event stream file, or plain text.
func openStreamSource(c *cli.Context, config Config, oldText string, maxLines int) (text.LineSource, func(), error) {
	url := c.String("url")
	if url == "" {
		url = config.ProviderURL
	}
	if c.IsSet("url") || (c.NArg() == 1 && url != "") {
		model := c.String("model")
		if model == "" {
			model = config.ProviderModel
		}
		prompt := c.String("prompt")
		if prompt == "" {
			prompt = oldText
		}
		client := source.NewClient(strings.TrimSuffix(url, "/"), config.APIKey)
		ls, err := client.StreamCompletion(c.Context, &source.CompletionRequest{
			Model:     model,
			Prompt:    prompt,
			MaxTokens: 2048,
		}, maxLines)
		if err != nil {
			return nil, nil, err
		}
		return ls, func() {
			if ls.StoppedEarly() {
				logger.Info("stream stopped early after %d lines", maxLines)
			}
			ls.Close()
		}, nil
	}

	path := "-"
	if c.NArg() == 2 {
		path = c.Args().Get(1)
	}
	rc, err := openInput(path)
	if err != nil {
		return nil, nil, err
	}
	if c.Bool("sse") {
		ls := source.Lines(rc, maxLines)
		return ls, func() { rc.Close() }, nil
	}
	var src text.LineSource = text.ReaderSource(rc)
	if maxLines > 0 {
		src = &limitedSource{src: src, max: maxLines}
	}
	return src, func() { rc.Close() }, nil
}

// limitedSource ends a line source after max lines
type limitedSource struct {
	src   text.LineSource
	max   int
	count int
}

func (l *limitedSource) Next(ctx context.Context) (string, error) {
	if l.count >= l.max {
		return "", io.EOF
	}
	line, err := l.src.Next(ctx)
	if err == nil {
		l.count++
	}
	return line, err
}

func nvimCmd(state *appState) *cli.Command {
	return &cli.Command{
		Name:  "nvim",
		Usage: "Serve diff handlers to Neovim over stdio (jobstart with rpc = true)",
		Action: func(c *cli.Context) error {
			host := NewHost(state.config.DiffOptions())
			return serveRPC(host, os.Stdin, os.Stdout, os.Stdout)
		},
	}
}

func daemonCmd(state *appState) *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Serve diff handlers on a Unix socket shared by several editors",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "socket", Usage: "socket path", Value: defaultSocketPath()},
			&cli.DurationFlag{Name: "idle-timeout", Usage: "exit after this long without clients (0 = never)", Value: 30 * time.Second},
		},
		Action: func(c *cli.Context) error {
			host := NewHost(state.config.DiffOptions())
			return NewDaemon(host, c.String("socket"), c.Duration("idle-timeout")).Start()
		},
	}
}

func connectCmd(state *appState) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Relay stdio to the daemon, starting it if needed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "socket", Usage: "socket path", Value: defaultSocketPath()},
		},
		Action: func(c *cli.Context) error {
			socket := c.String("socket")
			daemonArgs := []string{"daemon", "--socket", socket}
			if c.IsSet("config") {
				daemonArgs = append([]string{"--config", c.String("config")}, daemonArgs...)
			}
			relay := NewRelay(socket, daemonArgs)
			if err := relay.EnsureDaemonRunning(); err != nil {
				return fmt.Errorf("ensuring daemon is running: %w", err)
			}
			return relay.Connect()
		},
	}
}

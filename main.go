package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"griddiff/logger"

	"github.com/urfave/cli/v2"
)

// appState is filled in by the Before hook and shared by every command
type appState struct {
	config Config
	log    *logger.LimitedLogger
}

func newApp(stdout, stderr io.Writer) *cli.App {
	state := &appState{}

	return &cli.App{
		Name:      "griddiff",
		Usage:     "line and character diffs, batch or streamed",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "TOML config file",
				EnvVars: []string{"GRIDDIFF_CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to this file instead of stderr",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			config, err := loadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("log-level") {
				config.LogLevel = c.String("log-level")
			}
			if c.IsSet("log-file") {
				config.LogFile = c.String("log-file")
			}
			if c.Bool("no-color") {
				config.Color = false
			}

			ll, err := logger.Open(config.LogFile, logger.ParseLogLevel(config.LogLevel))
			if err != nil {
				return err
			}
			log.SetOutput(ll)
			logger.Debug("config: %+v", config)

			state.config = config
			state.log = ll
			return nil
		},
		After: func(c *cli.Context) error {
			if state.log == nil {
				return nil
			}
			logger.SetGlobal(nil)
			return state.log.Close()
		},
		Commands: []*cli.Command{
			diffCmd(state),
			statsCmd(state),
			streamCmd(state),
			nvimCmd(state),
			daemonCmd(state),
			connectCmd(state),
		},
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

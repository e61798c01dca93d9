package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"griddiff/logger"
)

// Relay connects an editor's stdio to the daemon socket, starting the
// daemon first when it is not running.
type Relay struct {
	socketPath string
	daemonArgs []string
}

func NewRelay(socketPath string, daemonArgs []string) *Relay {
	return &Relay{
		socketPath: socketPath,
		daemonArgs: daemonArgs,
	}
}

// Connect relays stdin/stdout to the socket until the daemon closes it
func (r *Relay) Connect() error {
	conn, err := net.Dial("unix", r.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		io.Copy(conn, os.Stdin)
		conn.Close()
	}()

	io.Copy(os.Stdout, conn)
	return nil
}

func (r *Relay) EnsureDaemonRunning() error {
	running, pid := isDaemonRunning(pidPathFor(r.socketPath))
	if running {
		logger.Debug("daemon already running with PID %d", pid)
		return nil
	}
	return r.startDaemon()
}

func (r *Relay) startDaemon() error {
	logger.Debug("starting daemon: %v", r.daemonArgs)

	_, err := os.StartProcess(os.Args[0], append([]string{os.Args[0]}, r.daemonArgs...), &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{nil, nil, nil},
	})
	if err != nil {
		return err
	}
	return r.waitForDaemon()
}

func (r *Relay) waitForDaemon() error {
	for range 50 { // Wait up to 5 seconds
		if _, err := os.Stat(r.socketPath); err == nil {
			if running, _ := isDaemonRunning(pidPathFor(r.socketPath)); running {
				logger.Debug("daemon started successfully")
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon failed to start within timeout")
}

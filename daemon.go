package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/neovim/go-client/nvim"
)

// Daemon serves a shared Host to editors connecting over a Unix socket
type Daemon struct {
	host        *Host
	listener    net.Listener
	socketPath  string
	pidPath     string
	idleTimeout time.Duration
	clientCount int64
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewDaemon(host *Host, socketPath string, idleTimeout time.Duration) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		host:        host,
		socketPath:  socketPath,
		pidPath:     pidPathFor(socketPath),
		idleTimeout: idleTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start listens and blocks until Stop, a signal, or the idle timeout
func (d *Daemon) Start() error {
	d.writePidFile()
	defer d.removePidFile()

	if err := d.setupSocket(); err != nil {
		return err
	}
	defer d.cleanup()

	log.Printf("daemon listening on socket: %s", d.socketPath)

	d.setupShutdownHandling()
	go d.acceptConnections()
	if d.idleTimeout > 0 {
		go d.monitorIdleShutdown()
	}

	<-d.ctx.Done()
	log.Printf("daemon shutting down...")
	return nil
}

func (d *Daemon) setupSocket() error {
	os.Remove(d.socketPath)

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return err
	}
	d.listener = listener
	return nil
}

func (d *Daemon) setupShutdownHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Printf("received shutdown signal")
			d.Stop()
		case <-d.ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}

func (d *Daemon) acceptConnections() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.ctx.Done():
				return
			default:
				log.Printf("error accepting connection: %v", err)
				continue
			}
		}

		atomic.AddInt64(&d.clientCount, 1)
		log.Printf("new client connected, total clients: %d", atomic.LoadInt64(&d.clientCount))
		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		atomic.AddInt64(&d.clientCount, -1)
		log.Printf("client disconnected, remaining clients: %d", atomic.LoadInt64(&d.clientCount))
	}()

	if err := serveRPC(d.host, conn, conn, conn); err != nil {
		log.Printf("error serving connection: %v", err)
	}
}

// monitorIdleShutdown stops the daemon once no client has been connected
// for idleTimeout.
func (d *Daemon) monitorIdleShutdown() {
	idleTimer := time.NewTimer(d.idleTimeout)
	defer idleTimer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-idleTimer.C:
			if atomic.LoadInt64(&d.clientCount) == 0 {
				log.Printf("no clients connected for %s, shutting down daemon", d.idleTimeout)
				d.Stop()
				return
			}
			idleTimer.Reset(d.idleTimeout)
		}
	}
}

func (d *Daemon) Stop() {
	if d.listener != nil {
		d.listener.Close()
	}
	d.cancel()
}

func (d *Daemon) cleanup() {
	os.Remove(d.socketPath)
}

func (d *Daemon) writePidFile() {
	pid := os.Getpid()
	if err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(pid)), 0644); err != nil {
		log.Printf("warning: could not write PID file: %v", err)
	}
	log.Printf("server started with PID %d", pid)
}

func (d *Daemon) removePidFile() {
	if err := os.Remove(d.pidPath); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not remove PID file: %v", err)
	}
}

// serveRPC runs a msgpack-RPC session with the host's handlers until the
// peer hangs up.
func serveRPC(host *Host, r io.Reader, w io.Writer, c io.Closer) error {
	n, err := nvim.New(r, w, c, log.Printf)
	if err != nil {
		return err
	}
	if err := host.Register(n); err != nil {
		n.Close()
		return err
	}
	if err := n.Serve(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// defaultSocketPath places the socket next to the executable
func defaultSocketPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return filepath.Join(os.TempDir(), "griddiff.sock")
	}
	return filepath.Join(filepath.Dir(execPath), "griddiff.sock")
}

func pidPathFor(socketPath string) string {
	return socketPath + ".pid"
}

func isDaemonRunning(pidPath string) (bool, int) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// On Unix, Signal(0) checks if process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil, pid
}

package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

// Marker variable handed to the child during a zero-downtime restart. Its
// presence tells the new process to adopt the listener on inheritedFD
// instead of binding the address again.
const (
	inheritEnvKey = "PORTFOLIO_INHERIT_LISTENER"
	inheritedFD   = 3
)

const (
	drainTimeout      = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	readTimeout       = time.Minute
	writeTimeout      = time.Minute
	idleTimeout       = 2 * time.Minute
)

// gracefulServer serves HTTP and reacts to signals: SIGINT and SIGTERM drain
// in-flight requests and stop, SIGUSR2 forks a replacement process that
// inherits the listening socket before this one drains.
type gracefulServer struct {
	http  *http.Server
	ln    net.Listener
	done  chan struct{}
	hooks []func()
}

// GraceServer blocks serving handler on addr until the process is told to
// stop. Shutdown hooks run once, after in-flight requests have drained.
func GraceServer(addr string, handler http.Handler, hooks ...func()) error {
	srv := &gracefulServer{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		done:  make(chan struct{}),
		hooks: hooks,
	}

	ln, err := srv.listen(addr)
	if err != nil {
		return err
	}
	srv.ln = ln

	go srv.watchSignals()

	err = srv.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		// Shutdown owns the tail of the lifecycle.
		<-srv.done
		return nil
	}
	return err
}

// listen binds addr, or adopts the inherited listener when this process was
// forked by a SIGUSR2 restart.
func (s *gracefulServer) listen(addr string) (net.Listener, error) {
	if os.Getenv(inheritEnvKey) == "" {
		return net.Listen("tcp", addr)
	}
	f := os.NewFile(inheritedFD, "listener")
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("adopt inherited listener: %w", err)
	}
	return ln, nil
}

func (s *gracefulServer) watchSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range ch {
		if sig == syscall.SIGUSR2 {
			pid, err := s.forkChild()
			if err != nil {
				Sugar.Errorf("restart failed, keeping current process: %v", err)
				continue
			}
			Sugar.Infof("restart: child pid %d adopted the listener", pid)
		} else {
			Sugar.Infof("received %s, draining connections", sig)
		}
		s.drain()
		return
	}
}

// drain stops accepting, waits out in-flight requests, then runs the hooks.
func (s *gracefulServer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		Sugar.Warnf("shutdown incomplete after %s: %v", drainTimeout, err)
	}
	for _, hook := range s.hooks {
		hook()
	}
	close(s.done)
}

// forkChild re-execs the binary with the listening socket passed as fd 3.
func (s *gracefulServer) forkChild() (int, error) {
	tcp, ok := s.ln.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener %T does not expose a file descriptor", s.ln)
	}
	f, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer f.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, inheritEnvKey+"=") {
			env = append(env, kv)
		}
	}
	env = append(env, inheritEnvKey+"=1")

	attr := &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), f.Fd()},
	}
	pid, err := syscall.ForkExec(os.Args[0], os.Args, attr)
	if err != nil {
		return 0, fmt.Errorf("fork: %w", err)
	}
	return pid, nil
}

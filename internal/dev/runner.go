package dev

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/at3-stack/at3/internal/pm"
)

// killGrace is how long a stopped dev server gets to exit on SIGTERM
// before it is killed.
const killGrace = 5 * time.Second

// Runner keeps `<pm> run dev` alive and restarts it when a watched
// config file changes.
type Runner struct {
	dir      string
	manager  *pm.Manager
	logger   *zap.Logger
	out      io.Writer
	debounce time.Duration
	grace    time.Duration

	mu    sync.Mutex
	child *child
}

// child is one dev server process. done closes after Wait returns, so
// err may only be read once done is closed.
type child struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Option configures a Runner.
type Option func(*Runner)

// WithManager pins the package manager instead of detecting it.
func WithManager(m *pm.Manager) Option {
	return func(r *Runner) { r.manager = m }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithOutput redirects status lines and the dev server's output.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithDebounce overrides the restart debounce, for tests.
func WithDebounce(d time.Duration) Option {
	return func(r *Runner) { r.debounce = d }
}

// WithGrace overrides the SIGTERM grace period, for tests.
func WithGrace(d time.Duration) Option {
	return func(r *Runner) { r.grace = d }
}

// NewRunner builds a runner for the project directory.
func NewRunner(dir string, opts ...Option) *Runner {
	r := &Runner{
		dir:      dir,
		logger:   zap.NewNop(),
		out:      os.Stdout,
		debounce: DefaultDebounce,
		grace:    killGrace,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.manager == nil {
		r.manager = pm.Detect(dir)
	}
	return r
}

// Run starts the dev server and blocks until ctx is canceled or the
// server exits on its own. Config changes restart it with a status
// line.
func (r *Runner) Run(ctx context.Context) error {
	restarts := make(chan []string, 1)
	watcher, err := NewConfigWatcher(r.dir, r.debounce, func(files []string) {
		select {
		case restarts <- files:
		default:
		}
	}, r.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Fprintf(r.out, "Starting dev server with %s...\n", r.manager.Name)
	if err := r.startChild(); err != nil {
		return err
	}
	defer r.stopChild()
	fmt.Fprintln(r.out, "Watching next.config.*, tailwind.config.*, postcss.config.*, tsconfig.json and .env files.")

	for {
		r.mu.Lock()
		c := r.child
		r.mu.Unlock()
		var exited <-chan struct{}
		if c != nil {
			exited = c.done
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out, "Shutting down dev server...")
			return nil

		case <-exited:
			r.mu.Lock()
			if r.child == c {
				r.child = nil
			}
			r.mu.Unlock()
			if c.err != nil {
				return fmt.Errorf("dev server exited: %w", c.err)
			}
			fmt.Fprintln(r.out, "Dev server exited.")
			return nil

		case files := <-restarts:
			fmt.Fprintf(r.out, "⟳ %s changed, restarting dev server...\n", strings.Join(files, ", "))
			if err := r.restart(); err != nil {
				return fmt.Errorf("failed to restart dev server: %w", err)
			}
		}
	}
}

func (r *Runner) startChild() error {
	cmd := r.manager.Command(context.Background(), r.dir, "run", "dev")
	cmd.Stdout = r.out
	cmd.Stderr = r.out
	// Own process group, so the stop signal reaches the framework
	// process the package manager forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start dev server: %w", err)
	}

	c := &child{cmd: cmd, done: make(chan struct{})}
	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()

	r.mu.Lock()
	r.child = c
	r.mu.Unlock()
	r.logger.Debug("dev server started", zap.Int("pid", cmd.Process.Pid))
	return nil
}

// stopChild signals the process group and waits, killing after the
// grace period. Safe to call when no child is running.
func (r *Runner) stopChild() {
	r.mu.Lock()
	c := r.child
	r.child = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}

	pid := c.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		// Already gone.
		return
	}
	select {
	case <-c.done:
	case <-time.After(r.grace):
		r.logger.Warn("dev server ignored SIGTERM, killing", zap.Int("pid", pid))
		syscall.Kill(-pid, syscall.SIGKILL)
		<-c.done
	}
}

func (r *Runner) restart() error {
	r.stopChild()
	// Give the port a moment to be released.
	time.Sleep(100 * time.Millisecond)
	return r.startChild()
}

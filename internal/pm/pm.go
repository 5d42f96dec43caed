// Package pm runs the project's package manager: npm, pnpm, yarn, or bun.
// Which one is decided by lockfile, the same precedence the detector uses.
package pm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/at3-stack/at3/internal/detect"
)

// InstallTimeout bounds a full dependency install. Callers wrap their
// context with it before calling Install.
const InstallTimeout = 5 * time.Minute

// Manager invokes one package manager binary.
type Manager struct {
	Name string
}

var known = map[string]*Manager{
	string(detect.NPM):  {Name: "npm"},
	string(detect.PNPM): {Name: "pnpm"},
	string(detect.Yarn): {Name: "yarn"},
	string(detect.Bun):  {Name: "bun"},
}

// Detect picks the manager for a project directory by lockfile, defaulting
// to npm.
func Detect(dir string) *Manager {
	for _, lf := range detect.LockfilePrecedence {
		if _, err := os.Stat(filepath.Join(dir, lf.File)); err == nil {
			return known[string(lf.Manager)]
		}
	}
	return known[string(detect.NPM)]
}

// ByName returns the manager with that name, or npm for anything
// unrecognized.
func ByName(name string) *Manager {
	if m, ok := known[name]; ok {
		return m
	}
	return known["npm"]
}

// Names lists the supported manager names in prompt order.
func Names() []string {
	return []string{"npm", "pnpm", "yarn", "bun"}
}

// Command builds an exec.Cmd for this manager rooted at dir.
func (m *Manager) Command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, m.Name, args...)
	cmd.Dir = dir
	return cmd
}

// Install runs a full dependency install, streaming output to out.
func (m *Manager) Install(ctx context.Context, dir string, out io.Writer) error {
	return m.run(ctx, dir, out, "install")
}

// Add installs specific packages, as dev dependencies when dev is set.
func (m *Manager) Add(ctx context.Context, dir string, out io.Writer, pkgs []string, dev bool) error {
	if len(pkgs) == 0 {
		return nil
	}
	return m.run(ctx, dir, out, m.addArgs(pkgs, dev)...)
}

// RunScript runs a package.json script to completion.
func (m *Manager) RunScript(ctx context.Context, dir string, out io.Writer, script string) error {
	return m.run(ctx, dir, out, "run", script)
}

func (m *Manager) run(ctx context.Context, dir string, out io.Writer, args ...string) error {
	cmd := m.Command(ctx, dir, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s %s timed out: %w", m.Name, args[0], ctx.Err())
		}
		return fmt.Errorf("%s %s: %w", m.Name, args[0], err)
	}
	return nil
}

func (m *Manager) addArgs(pkgs []string, dev bool) []string {
	var args []string
	switch m.Name {
	case "npm":
		args = append([]string{"install"}, pkgs...)
		if dev {
			args = append(args, "--save-dev")
		}
	case "bun":
		args = append([]string{"add"}, pkgs...)
		if dev {
			args = append(args, "-d")
		}
	default: // pnpm, yarn
		args = append([]string{"add"}, pkgs...)
		if dev {
			args = append(args, "-D")
		}
	}
	return args
}

// RunCommand is the shell line users type to run a script, for messages
// like "next: run `pnpm dev`".
func (m *Manager) RunCommand(script string) string {
	if m.Name == "npm" {
		return "npm run " + script
	}
	return m.Name + " " + script
}

// LockFile is the lockfile this manager writes.
func (m *Manager) LockFile() string {
	for _, lf := range detect.LockfilePrecedence {
		if string(lf.Manager) == m.Name {
			return lf.File
		}
	}
	return "package-lock.json"
}

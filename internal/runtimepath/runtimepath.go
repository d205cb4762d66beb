// Package runtimepath locates the per-user runtime files shared by the
// daemon and its clients.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvDir overrides the runtime directory, mainly for running a second
// daemon side by side.
const EnvDir = "SCREENHOP_RUNTIME_DIR"

const (
	socketName = "screenhop.sock"
	pidName    = "screenhop.pid"
)

// Dir returns the runtime directory. Priority:
// 1) $SCREENHOP_RUNTIME_DIR (created)
// 2) $XDG_RUNTIME_DIR
// 3) /run/user/<uid> (if present)
// 4) /tmp/screenhop-runtime-<uid> (created)
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return ensure(dir)
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	runUser := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUser); err == nil && info.IsDir() {
		return runUser, nil
	}
	return ensure(fmt.Sprintf("/tmp/screenhop-runtime-%d", uid))
}

func ensure(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

func file(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// SocketPath returns the daemon control socket path.
func SocketPath() (string, error) { return file(socketName) }

// PIDPath returns the daemon pid file path.
func PIDPath() (string, error) { return file(pidName) }

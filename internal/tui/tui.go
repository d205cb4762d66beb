// Package tui implements `screenhop watch`, a live view of the daemon's
// screen layout and tracked pointers.
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/ipc"
)

// DefaultInterval is the daemon polling interval.
const DefaultInterval = 250 * time.Millisecond

// Source is the daemon surface the view polls; *ipc.Client satisfies it.
type Source interface {
	GetTopology() (*engine.View, error)
	GetStatus() (*ipc.StatusData, error)
	Reload() (*ipc.ReloadData, error)
	Suspend() error
	Resume() error
	SwitchScreen(device string) error
}

// Run starts the watch view and blocks until the user quits.
func Run(src Source, interval time.Duration) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	p := tea.NewProgram(newModel(src, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Package x11 connects screenhop to an X server: RandR monitors become
// screens, and translated positions can drive the real pointer.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection wraps one X client connection and its root window.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	randrOnce sync.Once
	randrErr  error
}

// NewConnection connects to the X server named by $DISPLAY.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// initRandR loads the RandR extension once per connection.
func (c *Connection) initRandR() error {
	c.randrOnce.Do(func() {
		if err := randr.Init(c.XUtil.Conn()); err != nil {
			c.randrErr = fmt.Errorf("randr init failed: %w", err)
		}
	})
	return c.randrErr
}

func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

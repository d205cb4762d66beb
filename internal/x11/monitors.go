package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/screenhop/internal/config"
)

// DefaultUnitsPerPixel converts pixels to topology units. Topology
// coordinates are much finer than pixels so that sensitivities below
// BaseSensitivity still move the pointer.
const DefaultUnitsPerPixel = 10000

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := c.initRandR(); err != nil {
		return nil, err
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// ScreensFromMonitors converts monitors into topology screens ordered top
// to bottom, then left to right. Mirrored CRTCs collapse into one screen.
func ScreensFromMonitors(monitors []Monitor, unitsPerPixel int64, sensitivity uint32) []config.Screen {
	if unitsPerPixel <= 0 {
		unitsPerPixel = DefaultUnitsPerPixel
	}
	if sensitivity == 0 {
		sensitivity = config.BaseSensitivity
	}

	sorted := append([]Monitor(nil), monitors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	screens := make([]config.Screen, 0, len(sorted))
	seen := make(map[[4]int]bool)
	for _, m := range sorted {
		key := [4]int{m.X, m.Y, m.Width, m.Height}
		if seen[key] {
			continue
		}
		seen[key] = true
		screens = append(screens, config.Screen{
			X:           int64(m.X) * unitsPerPixel,
			Y:           int64(m.Y) * unitsPerPixel,
			W:           int64(m.Width) * unitsPerPixel,
			H:           int64(m.Height) * unitsPerPixel,
			Sensitivity: sensitivity,
			ScrollUnit:  config.DefaultScrollUnit,
		})
	}
	return screens
}

// Detect connects to the X server and returns its monitors as screens.
func Detect(unitsPerPixel int64, sensitivity uint32) ([]Monitor, []config.Screen, error) {
	conn, err := NewConnection()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer conn.Close()

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, nil, err
	}
	if len(monitors) == 0 {
		return nil, nil, fmt.Errorf("no monitors found")
	}
	return monitors, ScreensFromMonitors(monitors, unitsPerPixel, sensitivity), nil
}

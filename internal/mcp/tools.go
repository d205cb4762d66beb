package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/geometry"
)

func (s *Server) pathOr(path string) string {
	if path != "" {
		return path
	}
	return s.configPath
}

// loadTopology loads path into a private engine.
func (s *Server) loadTopology(path string) (*engine.Topology, error) {
	res, err := config.LoadFromPath(s.pathOr(path))
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Options{Logger: s.logger}).Load(res.Config)
}

func (s *Server) handleGetTopology(_ context.Context, _ *mcpsdk.CallToolRequest, args GetTopologyInput) (*mcpsdk.CallToolResult, GetTopologyOutput, error) {
	if args.Live {
		if s.live == nil {
			return nil, GetTopologyOutput{}, fmt.Errorf("live topology unavailable")
		}
		view, err := s.live.GetTopology()
		if err != nil {
			return nil, GetTopologyOutput{}, err
		}
		return nil, topologyOutput("daemon", *view), nil
	}

	t, err := s.loadTopology(args.ConfigPath)
	if err != nil {
		return nil, GetTopologyOutput{}, err
	}
	return nil, topologyOutput(s.pathOr(args.ConfigPath), t.Describe()), nil
}

func topologyOutput(source string, v engine.View) GetTopologyOutput {
	out := GetTopologyOutput{
		Source:              source,
		Generation:          v.Generation,
		ConstraintMode:      v.ConstraintMode.String(),
		UnmappedPassthrough: v.UnmappedPassthrough,
		Screens:             make([]ScreenInfo, 0, len(v.Screens)),
		Mappings:            make([]MappingInfo, 0, len(v.Mappings)),
	}
	for _, sv := range v.Screens {
		info := ScreenInfo{
			Index:       sv.Index,
			X:           sv.Rect.X,
			Y:           sv.Rect.Y,
			W:           sv.Rect.W,
			H:           sv.Rect.H,
			Sensitivity: sv.Sensitivity,
			ScrollUnit:  sv.ScrollUnit,
			Neighbors:   []NeighborInfo{},
		}
		// Fixed edge order for deterministic output.
		for _, e := range geometry.Edges {
			for _, n := range sv.Neighbors[e.String()] {
				info.Neighbors = append(info.Neighbors, NeighborInfo{Edge: e.String(), Screen: n.Screen, Shared: n.Shared})
			}
		}
		out.Screens = append(out.Screens, info)
	}
	for i, m := range v.Mappings {
		out.Mappings = append(out.Mappings, MappingInfo{
			Index:       i,
			FromScreen:  m.FromScreen,
			FromEdge:    m.FromEdge.String(),
			ToScreen:    m.ToScreen,
			EntryOffset: m.EntryOffset,
			SpanOffset:  m.SpanOffset,
			SpanLength:  m.SpanLength,
		})
	}
	return out
}

func (s *Server) handleResolveCrossing(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolveCrossingInput) (*mcpsdk.CallToolResult, ResolveCrossingOutput, error) {
	edge, err := geometry.ParseEdge(args.Edge)
	if err != nil || !edge.Side() {
		return nil, ResolveCrossingOutput{}, fmt.Errorf("edge must be one of left, right, top, bottom")
	}
	t, err := s.loadTopology(args.ConfigPath)
	if err != nil {
		return nil, ResolveCrossingOutput{}, err
	}
	if args.Screen < 0 || args.Screen >= t.Len() {
		return nil, ResolveCrossingOutput{}, fmt.Errorf("screen %d out of range (0..%d)", args.Screen, t.Len()-1)
	}

	c, ok := t.ResolveEdge(args.Screen, edge, args.Coord)
	if !ok {
		return nil, ResolveCrossingOutput{Resolved: false, To: engine.Untracked, Rule: -1}, nil
	}
	return nil, ResolveCrossingOutput{
		Resolved: true,
		To:       c.To,
		Via:      string(c.Via),
		Rule:     c.Rule,
		EntryX:   c.Entry.X,
		EntryY:   c.Entry.Y,
	}, nil
}

func (s *Server) handleSimulateMotion(_ context.Context, _ *mcpsdk.CallToolRequest, args SimulateMotionInput) (*mcpsdk.CallToolResult, SimulateMotionOutput, error) {
	if len(args.Steps) == 0 {
		return nil, SimulateMotionOutput{}, fmt.Errorf("steps must not be empty")
	}
	if (args.StartX == nil) != (args.StartY == nil) {
		return nil, SimulateMotionOutput{}, fmt.Errorf("start_x and start_y must be given together")
	}
	res, err := config.LoadFromPath(s.pathOr(args.ConfigPath))
	if err != nil {
		return nil, SimulateMotionOutput{}, err
	}

	const device = "simulated"
	events := make([]engine.RawEvent, 0, len(args.Steps)+1)
	var now uint64
	if args.StartX != nil {
		now++
		events = append(events, engine.RawEvent{Kind: engine.RawAbsolute, Time: now, X: *args.StartX, Y: *args.StartY})
	}
	for _, step := range args.Steps {
		now++
		events = append(events, engine.RawEvent{Kind: engine.RawMotion, Time: now, DX: step.DX, DY: step.DY})
	}

	out, st, err := engine.Simulate(res.Config, device, events, s.logger)
	if err != nil {
		return nil, SimulateMotionOutput{}, err
	}

	result := SimulateMotionOutput{
		Events:      make([]SimulatedEvent, 0, len(out)),
		FinalScreen: st.Screen,
		FinalX:      st.Position.X,
		FinalY:      st.Position.Y,
	}
	for _, ev := range out {
		se := SimulatedEvent{
			Kind:    string(ev.Kind),
			Screen:  ev.Screen,
			X:       ev.X,
			Y:       ev.Y,
			Message: ev.Message,
		}
		if ev.Transition != nil {
			from := ev.Transition.From
			se.From = &from
			se.Via = string(ev.Transition.Via)
			result.Transitions++
		}
		result.Events = append(result.Events, se)
	}
	return nil, result, nil
}

func (s *Server) handleValidateConfig(_ context.Context, _ *mcpsdk.CallToolRequest, args ValidateConfigInput) (*mcpsdk.CallToolResult, ValidateConfigOutput, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.Content != "" {
		format, ferr := config.ParseFormat(args.Format)
		if ferr != nil {
			return nil, ValidateConfigOutput{}, ferr
		}
		cfg, err = config.Parse([]byte(args.Content), format)
	} else {
		path := s.pathOr(args.Path)
		if _, serr := os.Stat(path); serr != nil {
			return nil, ValidateConfigOutput{}, fmt.Errorf("cannot read %s: %w", path, serr)
		}
		var res *config.LoadResult
		if res, err = config.LoadFromPath(path); err == nil {
			cfg = res.Config
		}
	}

	if err != nil {
		out := ValidateConfigOutput{Valid: false, Error: err.Error()}
		var cerr *config.ConfigError
		if errors.As(err, &cerr) {
			out.Field = cerr.Path
			out.Line = cerr.Source.Line
		}
		return nil, out, nil
	}
	return nil, ValidateConfigOutput{
		Valid:    true,
		Screens:  len(cfg.Screens),
		Mappings: len(cfg.Mappings),
		Warnings: cfg.Warnings(),
	}, nil
}

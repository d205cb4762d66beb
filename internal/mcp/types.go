package mcp

// GetTopologyInput is the input for the get_topology tool.
type GetTopologyInput struct {
	ConfigPath string `json:"config_path,omitempty" jsonschema:"Configuration file to describe (default: the server's configuration file)"`
	Live       bool   `json:"live,omitempty" jsonschema:"When true, ask the running daemon for its active topology instead of reading a file"`
}

// NeighborInfo is one adjacency of a screen edge.
type NeighborInfo struct {
	Edge   string `json:"edge"`
	Screen int    `json:"screen"`
	Shared int64  `json:"shared"`
}

// ScreenInfo describes one screen.
type ScreenInfo struct {
	Index       int            `json:"index"`
	X           int64          `json:"x"`
	Y           int64          `json:"y"`
	W           int64          `json:"w"`
	H           int64          `json:"h"`
	Sensitivity uint32         `json:"sensitivity"`
	ScrollUnit  int64          `json:"scroll_unit"`
	Neighbors   []NeighborInfo `json:"neighbors"`
}

// MappingInfo describes one explicit edge mapping.
type MappingInfo struct {
	Index       int    `json:"index"`
	FromScreen  int    `json:"from_screen"`
	FromEdge    string `json:"from_edge"`
	ToScreen    int    `json:"to_screen"`
	EntryOffset int64  `json:"entry_offset"`
	SpanOffset  int64  `json:"span_offset"`
	SpanLength  int64  `json:"span_length"`
}

// GetTopologyOutput is the output for the get_topology tool.
type GetTopologyOutput struct {
	Source              string        `json:"source"`
	Generation          uint64        `json:"generation"`
	ConstraintMode      string        `json:"constraint_mode"`
	UnmappedPassthrough bool          `json:"unmapped_passthrough"`
	Screens             []ScreenInfo  `json:"screens"`
	Mappings            []MappingInfo `json:"mappings"`
}

// ResolveCrossingInput is the input for the resolve_crossing tool.
type ResolveCrossingInput struct {
	ConfigPath string `json:"config_path,omitempty" jsonschema:"Configuration file (default: the server's configuration file)"`
	Screen     int    `json:"screen" jsonschema:"Index of the screen being left"`
	Edge       string `json:"edge" jsonschema:"Edge being crossed: left, right, top or bottom"`
	Coord      int64  `json:"coord" jsonschema:"Global coordinate along the edge (y for left/right, x for top/bottom)"`
}

// ResolveCrossingOutput is the output for the resolve_crossing tool.
type ResolveCrossingOutput struct {
	Resolved bool   `json:"resolved"`
	To       int    `json:"to"`
	Via      string `json:"via,omitempty"`
	Rule     int    `json:"rule"`
	EntryX   int64  `json:"entry_x"`
	EntryY   int64  `json:"entry_y"`
}

// MotionStep is one relative motion in device units.
type MotionStep struct {
	DX int64 `json:"dx"`
	DY int64 `json:"dy"`
}

// SimulateMotionInput is the input for the simulate_motion tool.
type SimulateMotionInput struct {
	ConfigPath string       `json:"config_path,omitempty" jsonschema:"Configuration file (default: the server's configuration file)"`
	StartX     *int64       `json:"start_x,omitempty" jsonschema:"Optional global start position; default is the centre of screen 0"`
	StartY     *int64       `json:"start_y,omitempty" jsonschema:"Optional global start position; default is the centre of screen 0"`
	Steps      []MotionStep `json:"steps" jsonschema:"Relative motions to replay in order"`
}

// SimulatedEvent is a compact form of one engine output event.
type SimulatedEvent struct {
	Kind    string `json:"kind"`
	Screen  int    `json:"screen"`
	X       int64  `json:"x"`
	Y       int64  `json:"y"`
	Via     string `json:"via,omitempty"`
	From    *int   `json:"from,omitempty"`
	Message string `json:"message,omitempty"`
}

// SimulateMotionOutput is the output for the simulate_motion tool.
type SimulateMotionOutput struct {
	Events      []SimulatedEvent `json:"events"`
	FinalScreen int              `json:"final_screen"`
	FinalX      int64            `json:"final_x"`
	FinalY      int64            `json:"final_y"`
	Transitions int              `json:"transitions"`
}

// ValidateConfigInput is the input for the validate_config tool.
type ValidateConfigInput struct {
	Path    string `json:"path,omitempty" jsonschema:"Configuration file to validate (default: the server's configuration file)"`
	Content string `json:"content,omitempty" jsonschema:"Inline configuration to validate instead of a file"`
	Format  string `json:"format,omitempty" jsonschema:"Format of inline content: yaml, json or toml (default: yaml)"`
}

// ValidateConfigOutput is the output for the validate_config tool.
type ValidateConfigOutput struct {
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	Field    string   `json:"field,omitempty"`
	Line     int      `json:"line,omitempty"`
	Screens  int      `json:"screens"`
	Mappings int      `json:"mappings"`
	Warnings []string `json:"warnings,omitempty"`
}

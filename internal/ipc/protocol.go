package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/screenhop/internal/engine"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandGetTopology  CommandType = "GET_TOPOLOGY"
	CommandSuspend      CommandType = "SUSPEND"
	CommandResume       CommandType = "RESUME"
	CommandSwitchScreen CommandType = "SWITCH_SCREEN"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	ConfigPath    string                `json:"config_path"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	DaemonRunning bool                  `json:"daemon_running"`
	Stats         engine.Stats          `json:"stats"`
	Devices       []engine.DeviceStatus `json:"devices"`
}

// ReloadData is returned by a successful RELOAD.
type ReloadData struct {
	Generation uint64 `json:"generation"`
	Screens    int    `json:"screens"`
	Mappings   int    `json:"mappings"`
}

type SwitchScreenPayload struct {
	Device string `json:"device,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID    string                 `json:"tool_id" binding:"required"`
	Params    map[string]interface{} `json:"params" binding:"required"`
	ProcessID *uint32                `json:"process_id,omitempty"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type   string                 `json:"type"`
	Stream string                 `json:"stream,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

package ipc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/aurora-os/nucleus/internal/kernel/capability"
	"github.com/aurora-os/nucleus/internal/kernel/ipc"
	"github.com/aurora-os/nucleus/internal/monitoring"
	"github.com/aurora-os/nucleus/internal/shared/types"
)

// Provider implements IPC operations against the in-process channel table
type Provider struct {
	channels *ipc.Manager
	metrics  *monitoring.Metrics
	msgID    atomic.Uint64
}

// NewProvider creates a new IPC provider
func NewProvider(channels *ipc.Manager) *Provider {
	return &Provider{channels: channels}
}

// WithMetrics attaches a metrics collector
func (p *Provider) WithMetrics(m *monitoring.Metrics) *Provider {
	p.metrics = m
	return p
}

// Definition returns the service definition
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "ipc",
		Name:        "Inter-Process Communication",
		Description: "Zero-copy message channels: fixed-capacity rings carrying a header plus inline payload",
		Category:    types.CategoryIPC,
		Capabilities: []string{
			"create_channel",
			"send",
			"recv",
			"poll",
			"stats",
		},
		Tools: []types.Tool{
			{
				ID:          "ipc.create_channel",
				Name:        "Create Channel",
				Description: "Allocate the next sequential channel id with a fresh, empty ring",
				Parameters:  []types.Parameter{},
				Returns:     "Channel ID (number)",
			},
			{
				ID:          "ipc.send",
				Name:        "Send Message",
				Description: "Admit a message to a channel; the sender must hold the ipc_send permission",
				Parameters: []types.Parameter{
					{
						Name:        "channel_id",
						Type:        "number",
						Description: "Channel to send on",
						Required:    true,
					},
					{
						Name:        "sender",
						Type:        "number",
						Description: "Sending process ID",
						Required:    true,
					},
					{
						Name:        "receiver",
						Type:        "number",
						Description: "Receiving process ID",
						Required:    true,
					},
					{
						Name:        "data",
						Type:        "string",
						Description: "Payload bytes (max 4096)",
						Required:    true,
					},
					{
						Name:        "msg_type",
						Type:        "number",
						Description: "Message type tag",
						Required:    false,
					},
				},
				Returns: "Success confirmation with the assigned message id",
			},
			{
				ID:          "ipc.recv",
				Name:        "Receive Message",
				Description: "Consume the oldest message on a channel (non-blocking)",
				Parameters: []types.Parameter{
					{
						Name:        "channel_id",
						Type:        "number",
						Description: "Channel to receive from",
						Required:    true,
					},
				},
				Returns: "Message header and payload",
			},
			{
				ID:          "ipc.poll",
				Name:        "Poll Channel",
				Description: "Check whether a message is available without consuming it",
				Parameters: []types.Parameter{
					{
						Name:        "channel_id",
						Type:        "number",
						Description: "Channel to poll",
						Required:    true,
					},
				},
				Returns: "Availability (boolean)",
			},
			{
				ID:          "ipc.stats",
				Name:        "Channel Table Stats",
				Description: "Snapshot of channel table counters",
				Parameters:  []types.Parameter{},
				Returns:     "Counters: channels, sends, receives, denials",
			},
		},
	}
}

// Execute handles IPC tool execution
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, procCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "ipc.create_channel":
		return p.createChannel()
	case "ipc.send":
		return p.send(params, procCtx)
	case "ipc.recv":
		return p.recv(params)
	case "ipc.poll":
		return p.poll(params)
	case "ipc.stats":
		return p.stats()
	default:
		return errorResult(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (p *Provider) createChannel() (*types.Result, error) {
	id, err := p.channels.Create()
	if err != nil {
		return errorResult(err.Error())
	}
	if p.metrics != nil {
		p.metrics.ChannelsActive.Inc()
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"channel_id": id,
		},
	}, nil
}

func (p *Provider) send(params map[string]interface{}, procCtx *types.Context) (*types.Result, error) {
	channelID, ok := params["channel_id"].(float64)
	if !ok {
		return errorResult("channel_id is required")
	}

	sender, ok := params["sender"].(float64)
	if !ok {
		// Fall back to the calling process when the context carries one.
		if procCtx == nil || procCtx.ProcessID == nil {
			return errorResult("sender is required")
		}
		sender = float64(*procCtx.ProcessID)
	}

	receiver, ok := params["receiver"].(float64)
	if !ok {
		return errorResult("receiver is required")
	}

	data, ok := params["data"].(string)
	if !ok {
		return errorResult("data is required")
	}

	var msgType uint32
	if mt, ok := params["msg_type"].(float64); ok {
		msgType = uint32(mt)
	}

	header := ipc.Header{
		ID:       p.msgID.Add(1),
		Sender:   uint32(sender),
		Receiver: uint32(receiver),
		Type:     msgType,
	}

	if err := p.channels.Send(uint64(channelID), header, []byte(data)); err != nil {
		if p.metrics != nil && errors.Is(err, capability.ErrPermissionDenied) {
			p.metrics.PermissionDenials.Inc()
			p.metrics.AuditEntries.Inc()
		}
		return errorResult(err.Error())
	}
	if p.metrics != nil {
		p.metrics.MessagesSent.Inc()
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"channel_id": uint64(channelID),
			"message_id": header.ID,
			"bytes":      len(data),
		},
	}, nil
}

func (p *Provider) recv(params map[string]interface{}) (*types.Result, error) {
	channelID, ok := params["channel_id"].(float64)
	if !ok {
		return errorResult("channel_id is required")
	}

	header, payload, err := p.channels.Recv(uint64(channelID))
	if err != nil {
		return errorResult(err.Error())
	}
	if p.metrics != nil {
		p.metrics.MessagesReceived.Inc()
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"message_id": header.ID,
			"sender":     header.Sender,
			"receiver":   header.Receiver,
			"msg_type":   header.Type,
			"data":       string(payload),
			"bytes":      len(payload),
		},
	}, nil
}

func (p *Provider) poll(params map[string]interface{}) (*types.Result, error) {
	channelID, ok := params["channel_id"].(float64)
	if !ok {
		return errorResult("channel_id is required")
	}

	ready, err := p.channels.Poll(uint64(channelID))
	if err != nil {
		return errorResult(err.Error())
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"channel_id": uint64(channelID),
			"ready":      ready,
		},
	}, nil
}

func (p *Provider) stats() (*types.Result, error) {
	stats := p.channels.Stats()
	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"channels":         stats.Channels,
			"sends":            stats.Sends,
			"receives":         stats.Receives,
			"denials":          stats.Denials,
			"ring_size":        stats.RingSize,
			"max_channels":     stats.MaxChannels,
			"max_message_size": stats.MaxMessage,
		},
	}, nil
}

func errorResult(message string) (*types.Result, error) {
	return &types.Result{
		Success: false,
		Error:   stringPtr(message),
	}, fmt.Errorf("%s", message)
}

func stringPtr(s string) *string {
	return &s
}

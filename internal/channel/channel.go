// Package channel implements the settings backend channel on top of an MCP client
// session: every backend operation is a tool call.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// ToolError is a failure reported by the backend for one operation.
type ToolError struct {
	Op      string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("backend %s: %s", e.Op, e.Message)
}

type session interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

// MCP sends backend operations as MCP tool calls.
type MCP struct {
	session session
}

// New wraps an established session.
func New(s session) *MCP {
	return &MCP{session: s}
}

// Connect opens a client session over transport.
func Connect(ctx context.Context, transport mcp.Transport) (*MCP, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "gmail-provider-settings", Version: "v1.0.0"}, nil)

	s, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("client.Connect failed: %w", err)
	}

	return New(s), nil
}

// DialHTTP connects to a backend serving MCP over streamable HTTP at endpoint.
func DialHTTP(ctx context.Context, endpoint string) (*MCP, error) {
	return Connect(ctx, &mcp.StreamableClientTransport{Endpoint: endpoint})
}

// Send calls op and decodes the JSON result into out.
func (c *MCP) Send(ctx context.Context, op string, payload, out any) error {
	res, err := c.call(ctx, op, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	text := resultText(res)
	if text == "" {
		return fmt.Errorf("%s returned no content", op)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("json.Unmarshal(%s) failed: %w", op, err)
	}

	return nil
}

// Emit calls op and ignores its result content.
func (c *MCP) Emit(ctx context.Context, op string, payload any) error {
	_, err := c.call(ctx, op, payload)
	return err
}

// Close ends the session.
func (c *MCP) Close() error {
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("session.Close failed: %w", err)
	}
	return nil
}

func (c *MCP) call(ctx context.Context, op string, payload any) (*mcp.CallToolResult, error) {
	if payload == nil {
		payload = provider.Empty{}
	}

	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      op,
		Arguments: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("session.CallTool(%s) failed: %w", op, err)
	}
	if res == nil {
		return nil, errors.New("session.CallTool returned nil result")
	}
	if res.IsError {
		return nil, &ToolError{Op: op, Message: resultText(res)}
	}

	return res, nil
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if t, ok := c.(*mcp.TextContent); ok {
			return t.Text
		}
	}
	return ""
}

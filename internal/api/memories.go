package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rcliao/synapse/internal/model"
)

// ListMemoriesParams filters GET /memories. Zero values are not sent;
// Skip and Take are pointers so an explicit 0 is.
type ListMemoriesParams struct {
	Type   model.MemoryType
	Status model.MemoryStatus
	Skip   *int
	Take   *int
}

func (p ListMemoriesParams) query() params {
	var q params
	q = q.add("type", string(p.Type))
	q = q.add("status", string(p.Status))
	if p.Skip != nil {
		q = q.add("skip", strconv.Itoa(*p.Skip))
	}
	if p.Take != nil {
		q = q.add("take", strconv.Itoa(*p.Take))
	}
	return q
}

// ListMemories returns the caller's memories in server order.
func (c *Client) ListMemories(ctx context.Context, p ListMemoriesParams) ([]model.Memory, error) {
	var out []model.Memory
	err := c.do(ctx, request{method: http.MethodGet, path: "/memories", query: p.query()}, &out)
	return out, err
}

// GetMemory fetches one memory. A missing memory yields an error matching ErrNotFound.
func (c *Client) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	if err := requireID("get memory", "id", id); err != nil {
		return nil, err
	}
	var m model.Memory
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/memories/%s", id)}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMemory creates a memory.
func (c *Client) CreateMemory(ctx context.Context, in model.MemoryCreate) (*model.Memory, error) {
	if err := check("create memory", in); err != nil {
		return nil, err
	}
	var m model.Memory
	if err := c.do(ctx, request{method: http.MethodPost, path: "/memories", body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMemory applies a partial update.
func (c *Client) UpdateMemory(ctx context.Context, id string, in model.MemoryUpdate) (*model.Memory, error) {
	if err := requireID("update memory", "id", id); err != nil {
		return nil, err
	}
	if err := check("update memory", in); err != nil {
		return nil, err
	}
	var m model.Memory
	if err := c.do(ctx, request{method: http.MethodPatch, path: pathf("/memories/%s", id), body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMemory deletes a memory and, server-side, its uploads.
func (c *Client) DeleteMemory(ctx context.Context, id string) error {
	if err := requireID("delete memory", "id", id); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: pathf("/memories/%s", id)}, nil)
}

// ProcessMemory asks the server to (re)run extraction. It returns once the
// job is accepted, not when it finishes.
func (c *Client) ProcessMemory(ctx context.Context, id string) (*model.ProcessAck, error) {
	if err := requireID("process memory", "id", id); err != nil {
		return nil, err
	}
	var ack model.ProcessAck
	if err := c.do(ctx, request{method: http.MethodPost, path: pathf("/memories/%s/process", id)}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

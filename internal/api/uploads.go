package api

import (
	"context"
	"net/http"

	"github.com/rcliao/synapse/internal/model"
)

// ListUploads returns the files attached to a memory.
func (c *Client) ListUploads(ctx context.Context, memoryID string) ([]model.Upload, error) {
	if err := requireID("list uploads", "memory id", memoryID); err != nil {
		return nil, err
	}
	var out []model.Upload
	err := c.do(ctx, request{method: http.MethodGet, path: pathf("/memories/%s/uploads", memoryID)}, &out)
	return out, err
}

// UploadFiles attaches files to a memory in a single multipart request.
func (c *Client) UploadFiles(ctx context.Context, memoryID string, files []File) ([]model.Upload, error) {
	if err := requireID("upload files", "memory id", memoryID); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &ValidationError{Op: "upload files", Fields: []string{"at least one file is required"}}
	}
	var out []model.Upload
	err := c.do(ctx, request{method: http.MethodPost, path: pathf("/memories/%s/uploads", memoryID), files: files}, &out)
	return out, err
}

// DeleteUpload removes one attached file.
func (c *Client) DeleteUpload(ctx context.Context, uploadID string) error {
	if err := requireID("delete upload", "upload id", uploadID); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: pathf("/uploads/%s", uploadID)}, nil)
}

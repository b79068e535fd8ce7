package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/synapse/internal/model"
)

func TestListMemoriesQuery(t *testing.T) {
	tests := []struct {
		name   string
		params ListMemoriesParams
		want   string
	}{
		{"none", ListMemoriesParams{}, ""},
		{"type only", ListMemoriesParams{Type: model.TypePDF}, "type=pdf"},
		{"all", ListMemoriesParams{Type: model.TypeText, Status: model.StatusReady, Skip: model.Ptr(20), Take: model.Ptr(10)}, "type=text&status=ready&skip=20&take=10"},
		{"explicit zero skip", ListMemoriesParams{Skip: model.Ptr(0)}, "skip=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, []model.Memory{{ID: "m1"}, {ID: "m2"}})
			})

			got, err := newTestClient(t, srv, "tok").ListMemories(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.Equal(t, "m1", got[0].ID)
			assert.Equal(t, "/memories", rec.Path)
			assert.Equal(t, tt.want, rec.RawQuery)
		})
	}
}

func TestGetMemoryDecodesServerShape(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "m1", "userId": "u1", "type": "webpage", "title": null,
			"summary": "A page", "extractedText": null, "sourceUrl": "https://example.com",
			"contentHash": "abc", "status": "ready",
			"createdAt": "2024-05-01T10:00:00.123456", "updatedAt": "2024-05-02T10:00:00Z",
			"tags": ["go", "notes"]
		}`))
	})

	m, err := newTestClient(t, srv, "tok").GetMemory(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "/memories/m1", rec.Path)
	assert.Equal(t, model.TypeWebpage, m.Type)
	assert.Nil(t, m.Title)
	require.NotNil(t, m.Summary)
	assert.Equal(t, "A page", *m.Summary)
	assert.Equal(t, model.StatusReady, m.Status)
	assert.Equal(t, 2024, m.CreatedAt.Year())
	assert.Equal(t, []string{"go", "notes"}, m.Tags)
}

func TestGetMemoryBlankIDSendsNothing(t *testing.T) {
	called := false
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := newTestClient(t, srv, "tok").GetMemory(context.Background(), "  ")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.False(t, called)
}

func TestCreateMemory(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 201, model.Memory{ID: "m9", Type: model.TypeText, Status: model.StatusProcessing})
	})

	m, err := newTestClient(t, srv, "tok").CreateMemory(context.Background(), model.MemoryCreate{
		Type:        model.TypeText,
		ContentHash: "h1",
		Title:       model.Ptr("Groceries"),
	})
	require.NoError(t, err)
	assert.Equal(t, "m9", m.ID)
	assert.Equal(t, http.MethodPost, rec.Method)
	assert.JSONEq(t, `{"type":"text","contentHash":"h1","title":"Groceries"}`, string(rec.Body))
}

func TestCreateMemoryValidation(t *testing.T) {
	tests := []struct {
		name string
		in   model.MemoryCreate
	}{
		{"missing type", model.MemoryCreate{ContentHash: "h"}},
		{"bad type", model.MemoryCreate{Type: "audio", ContentHash: "h"}},
		{"missing hash", model.MemoryCreate{Type: model.TypePDF}},
		{"bad url", model.MemoryCreate{Type: model.TypeWebpage, ContentHash: "h", SourceURL: model.Ptr("not a url")}},
		{"bad status", model.MemoryCreate{Type: model.TypePDF, ContentHash: "h", Status: model.Ptr(model.MemoryStatus("done"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			_, err := newTestClient(t, srv, "tok").CreateMemory(context.Background(), tt.in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.False(t, called, "no request should be sent")
		})
	}
}

func TestUpdateMemorySendsOnlySetFields(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, model.Memory{ID: "m1", Title: model.Ptr("New")})
	})

	m, err := newTestClient(t, srv, "tok").UpdateMemory(context.Background(), "m1", model.MemoryUpdate{Title: model.Ptr("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", *m.Title)
	assert.Equal(t, http.MethodPatch, rec.Method)
	assert.JSONEq(t, `{"title":"New"}`, string(rec.Body))
}

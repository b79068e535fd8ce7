// Package model defines the types exchanged with the memory API.
package model

// MemoryType is the kind of content a memory captures.
type MemoryType string

const (
	TypePDF     MemoryType = "pdf"
	TypeImage   MemoryType = "image"
	TypeVideo   MemoryType = "video"
	TypeText    MemoryType = "text"
	TypeWebpage MemoryType = "webpage"
	TypeYouTube MemoryType = "youtube"
)

// MemoryStatus tracks server-side extraction progress.
type MemoryStatus string

const (
	StatusProcessing MemoryStatus = "processing"
	StatusReady      MemoryStatus = "ready"
	StatusFailed     MemoryStatus = "failed"
)

// Memory represents a captured item as returned by the server.
type Memory struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	Type          MemoryType   `json:"type"`
	Title         *string      `json:"title"`
	Summary       *string      `json:"summary"`
	ExtractedText *string      `json:"extractedText"`
	SourceURL     *string      `json:"sourceUrl"`
	ContentHash   string       `json:"contentHash"`
	Status        MemoryStatus `json:"status"`
	CreatedAt     Timestamp    `json:"createdAt"`
	UpdatedAt     Timestamp    `json:"updatedAt"`
	Tags          []string     `json:"tags,omitempty"`
}

// DisplayTitle returns the title, or a placeholder when the server has none yet.
func (m Memory) DisplayTitle() string {
	if m.Title != nil && *m.Title != "" {
		return *m.Title
	}
	return "(untitled " + string(m.Type) + ")"
}

// MemoryCreate is the body of a create request.
type MemoryCreate struct {
	Type          MemoryType    `json:"type" validate:"required,oneof=pdf image video text webpage youtube"`
	ContentHash   string        `json:"contentHash" validate:"required"`
	Title         *string       `json:"title,omitempty"`
	Summary       *string       `json:"summary,omitempty"`
	ExtractedText *string       `json:"extractedText,omitempty"`
	SourceURL     *string       `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	Status        *MemoryStatus `json:"status,omitempty" validate:"omitempty,oneof=processing ready failed"`
}

// MemoryUpdate is a partial update; nil fields are left untouched.
type MemoryUpdate struct {
	Title         *string       `json:"title,omitempty"`
	Summary       *string       `json:"summary,omitempty"`
	ExtractedText *string       `json:"extractedText,omitempty"`
	SourceURL     *string       `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	Status        *MemoryStatus `json:"status,omitempty" validate:"omitempty,oneof=processing ready failed"`
}

// Empty reports whether the update carries no fields.
func (u MemoryUpdate) Empty() bool {
	return u.Title == nil && u.Summary == nil && u.ExtractedText == nil &&
		u.SourceURL == nil && u.Status == nil
}

// ProcessAck acknowledges an accepted extraction job.
type ProcessAck struct {
	Message  string `json:"message"`
	MemoryID string `json:"memoryId"`
}

// ValidTypes are the allowed memory types.
var ValidTypes = map[MemoryType]bool{
	TypePDF:     true,
	TypeImage:   true,
	TypeVideo:   true,
	TypeText:    true,
	TypeWebpage: true,
	TypeYouTube: true,
}

// ValidStatuses are the allowed memory statuses.
var ValidStatuses = map[MemoryStatus]bool{
	StatusProcessing: true,
	StatusReady:      true,
	StatusFailed:     true,
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

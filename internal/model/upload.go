package model

// Upload is a file attached to a memory.
type Upload struct {
	ID        string    `json:"id"`
	MemoryID  string    `json:"memoryId"`
	FileURL   string    `json:"fileUrl"`
	FileType  string    `json:"fileType"`
	MimeType  *string   `json:"mimeType"`
	FileSize  int64     `json:"fileSize"`
	CreatedAt Timestamp `json:"createdAt"`
}

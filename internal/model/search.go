package model

// SearchMatch is a chunk of a memory that matched a query.
type SearchMatch struct {
	Chunk      string  `json:"chunk"`
	ChunkIndex int     `json:"chunkIndex"`
	Similarity float64 `json:"similarity"`
}

// SearchResult is one ranked hit from a search or related-memories query.
type SearchResult struct {
	MemoryID      string        `json:"memoryId"`
	Title         string        `json:"title"`
	ContentType   MemoryType    `json:"contentType"`
	Summary       string        `json:"summary"`
	SourceURL     string        `json:"sourceUrl,omitempty"`
	CreatedAt     Timestamp     `json:"createdAt"`
	Matches       []SearchMatch `json:"matches,omitempty"`
	SemanticScore *float64      `json:"semanticScore,omitempty"`
	KeywordScore  *float64      `json:"keywordScore,omitempty"`
	CombinedScore *float64      `json:"combinedScore,omitempty"`
}

// Score returns the most specific score the server reported.
func (r SearchResult) Score() float64 {
	switch {
	case r.CombinedScore != nil:
		return *r.CombinedScore
	case r.SemanticScore != nil:
		return *r.SemanticScore
	case r.KeywordScore != nil:
		return *r.KeywordScore
	}
	best := 0.0
	for _, m := range r.Matches {
		if m.Similarity > best {
			best = m.Similarity
		}
	}
	return best
}

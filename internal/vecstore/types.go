package vecstore

import "time"

// Record is one indexed document: its identifier, embedding and auxiliary metadata.
//
// Meta is never interpreted by this package.
type Record struct {
	Path      string         `json:"path"`
	Embedding []float32      `json:"embedding"`
	Meta      map[string]any `json:"meta"`
}

// Snapshot is one complete, immutable materialization of the document index.
type Snapshot struct {
	CreatedAt time.Time `json:"createdAt"`
	Model     string    `json:"model,omitempty"`
	Rows      []Record  `json:"rows"`
}

// Result is one ranked match.
type Result struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Empty returns a snapshot with zero rows.
func Empty() *Snapshot {
	return &Snapshot{Rows: []Record{}}
}

// Len returns the number of rows, treating a nil snapshot as empty.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Dim returns the embedding dimension of the snapshot, or 0 when it has no rows.
func (s *Snapshot) Dim() int {
	if s.Len() == 0 {
		return 0
	}
	return len(s.Rows[0].Embedding)
}

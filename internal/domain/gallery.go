package domain

import (
	"sort"
)

// Embedding is a face descriptor produced by the embedding model.
// Its length is fixed by the model (128 for the dlib ResNet model).
type Embedding []float64

// GalleryRecord is one row of a gallery catalog: a photo and at most one
// of its stored face embeddings. A photo with several faces appears once per
// face; a photo with no detected face appears once with a nil Embedding.
type GalleryRecord struct {
	PhotoID   int64
	Embedding Embedding
}

// HasEmbedding reports whether the record carries a stored face.
func (r GalleryRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// MatchResult is the deduplicated set of gallery photos that contain a face
// matching at least one face of the submitted image.
type MatchResult struct {
	ids map[int64]struct{}
}

func NewMatchResult() *MatchResult {
	return &MatchResult{ids: make(map[int64]struct{})}
}

func (m *MatchResult) Add(photoID int64) {
	m.ids[photoID] = struct{}{}
}

func (m *MatchResult) Contains(photoID int64) bool {
	_, ok := m.ids[photoID]
	return ok
}

func (m *MatchResult) Len() int {
	return len(m.ids)
}

// PhotoIDs returns the matched ids in ascending order. It never returns nil
// so the serialized response always carries an array.
func (m *MatchResult) PhotoIDs() []int64 {
	ids := make([]int64, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

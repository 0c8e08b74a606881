package model

// CollectionInfo describes a collection and its storage statistics. It is
// derived on demand and never cached.
type CollectionInfo struct {
	Name            string           `json:"name"`
	Count           int64            `json:"count"`
	Size            int64            `json:"size"`
	AvgDocumentSize float64          `json:"avgDocumentSize"`
	StorageSize     int64            `json:"storageSize"`
	Indexes         int              `json:"indexes"`
	IndexDetails    map[string]int64 `json:"indexDetails"`
}

// CreateCollectionRequest is the body of POST /api/collections
type CreateCollectionRequest struct {
	Name string `json:"name"`
}

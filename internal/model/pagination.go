package model

// DocumentPage is one page of a collection listing. Total is the number of
// documents matching the filter, independent of the page size.
type DocumentPage struct {
	Documents []Document `json:"documents"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}

// DocumentRequest is the body of document create and update calls
type DocumentRequest struct {
	Document map[string]interface{} `json:"document"`
}

// DeleteDocumentsRequest is the body of the bulk delete call
type DeleteDocumentsRequest struct {
	IDs []interface{} `json:"ids"`
}

// DeleteResult reports how many documents a bulk delete removed.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

package tests

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/testing/helpers"
)

/*
FEATURE: Documents
DOMAIN: Documents

ACCEPTANCE CRITERIA:
===================

AC-DOC-001: Insert And Fetch
  GIVEN a connected server
  WHEN {"a":1} is inserted into "items"
  THEN the response carries the generated _id
  AND GET by that id returns the same document

AC-DOC-002: Paginated Listing
  GIVEN 25 documents numbered 1..25
  WHEN page 3 with limit 10 is requested, sorted by seq
  THEN 5 documents (21..25) are returned
  AND total reports all 25

AC-DOC-003: Filtered Listing
  GIVEN documents with varied scores
  WHEN a filter is supplied
  THEN only matching documents are returned and counted

AC-DOC-004: Update Keeps Identity
  GIVEN a stored document
  WHEN it is replaced with a body naming another _id
  THEN the fields change and the _id does not

AC-DOC-005: Delete
  GIVEN a stored document
  WHEN it is deleted
  THEN it can no longer be fetched
  AND a second delete fails with 404

AC-DOC-006: Bulk Delete Reports What Was Removed
  GIVEN two stored documents
  WHEN three ids are submitted for deletion, one unknown
  THEN the response reports "Deleted 2 documents"

AC-DOC-007: Invalid Input
  GIVEN a connected server
  WHEN the document body, id or paging parameters are invalid
  THEN the request fails with 400 before touching the store
*/

func documentsURL(collection string, params url.Values) string {
	return "/api/collection/" + collection + "/documents?" + params.Encode()
}

type documentData struct {
	Document map[string]interface{} `json:"document"`
}

func TestDocuments_InsertAndFetch(t *testing.T) {
	// AC-DOC-001: Insert And Fetch
	e := newConnectedEnv(t)

	resp := helpers.NewRequest(t, http.MethodPost, "/api/collection/items/document").
		WithBody(model.DocumentRequest{Document: map[string]interface{}{"a": 1}}).
		Do(e.handler)
	var created documentData
	helpers.AssertSuccess(t, resp, http.StatusCreated, &created)
	id := helpers.IDString(created.Document)
	require.NotEmpty(t, id)

	resp = helpers.NewRequest(t, http.MethodGet, "/api/collection/items/document/"+id).Do(e.handler)
	var fetched documentData
	helpers.AssertSuccess(t, resp, http.StatusOK, &fetched)
	assert.Equal(t, id, helpers.IDString(fetched.Document))
	assert.EqualValues(t, 1, fetched.Document["a"])
}

func TestDocuments_PaginatedListing(t *testing.T) {
	// AC-DOC-002: Paginated Listing
	e := newConnectedEnv(t)
	e.fixtures.CreateDocuments(t, "numbers", 25)

	resp := helpers.NewRequest(t, http.MethodGet, documentsURL("numbers", url.Values{
		"page":  {"3"},
		"limit": {"10"},
		"sort":  {"seq"},
		"order": {"asc"},
	})).Do(e.handler)

	var page model.DocumentPage
	helpers.AssertSuccess(t, resp, http.StatusOK, &page)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Documents, 5)
	for i, doc := range page.Documents {
		assert.EqualValues(t, 21+i, doc["seq"])
	}
}

func TestDocuments_FilteredListing(t *testing.T) {
	// AC-DOC-003: Filtered Listing
	e := newConnectedEnv(t)
	e.fixtures.CreateDocuments(t, "numbers", 10)

	resp := helpers.NewRequest(t, http.MethodGet, documentsURL("numbers", url.Values{
		"filter": {`{"seq":{"$lte":4}}`},
		"sort":   {`{"field":"seq","order":-1}`},
	})).Do(e.handler)

	var page model.DocumentPage
	helpers.AssertSuccess(t, resp, http.StatusOK, &page)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Documents, 4)
	assert.EqualValues(t, 4, page.Documents[0]["seq"])
}

func TestDocuments_UpdateKeepsIdentity(t *testing.T) {
	// AC-DOC-004: Update Keeps Identity
	e := newConnectedEnv(t)
	doc := e.fixtures.CreateDocument(t, "people")
	id := helpers.IDString(doc)

	resp := helpers.NewRequest(t, http.MethodPut, "/api/collection/people/document/"+id).
		WithBody(model.DocumentRequest{Document: map[string]interface{}{
			"_id":  "someone-else",
			"name": "renamed",
		}}).
		Do(e.handler)

	var updated documentData
	helpers.AssertSuccess(t, resp, http.StatusOK, &updated)
	assert.Equal(t, id, helpers.IDString(updated.Document))
	assert.Equal(t, "renamed", updated.Document["name"])

	stored := helpers.AssertDocumentExists(t, e.srv.Manager(), "people", id)
	assert.Equal(t, "renamed", stored["name"])
}

func TestDocuments_Delete(t *testing.T) {
	// AC-DOC-005: Delete
	e := newConnectedEnv(t)
	doc := e.fixtures.CreateDocument(t, "people")
	path := "/api/collection/people/document/" + helpers.IDString(doc)

	resp := helpers.NewRequest(t, http.MethodDelete, path).Do(e.handler)
	env := helpers.AssertSuccess(t, resp, http.StatusOK, nil)
	assert.Equal(t, "Document deleted successfully", env.Message)
	helpers.AssertDocumentNotExists(t, e.srv.Manager(), "people", doc[model.IDField])

	resp = helpers.NewRequest(t, http.MethodGet, path).Do(e.handler)
	helpers.AssertEnvelopeError(t, resp, http.StatusNotFound, "Not Found")

	resp = helpers.NewRequest(t, http.MethodDelete, path).Do(e.handler)
	env = helpers.AssertEnvelopeError(t, resp, http.StatusNotFound, "Not Found")
	assert.Equal(t, "Document not found", env.Message)
}

func TestDocuments_BulkDelete(t *testing.T) {
	// AC-DOC-006: Bulk Delete Reports What Was Removed
	e := newConnectedEnv(t)
	docs := e.fixtures.CreateDocuments(t, "people", 2)
	keep := e.fixtures.CreateDocument(t, "people")

	// An id that is well formed for the backend but stored nowhere
	gone := e.fixtures.CreateDocument(t, "elsewhere")

	resp := helpers.NewRequest(t, http.MethodDelete, "/api/collection/people/documents").
		WithBody(map[string]interface{}{"ids": []string{
			helpers.IDString(docs[0]),
			helpers.IDString(docs[1]),
			helpers.IDString(gone),
		}}).
		Do(e.handler)

	var result model.DeleteResult
	env := helpers.AssertSuccess(t, resp, http.StatusOK, &result)
	assert.Equal(t, "Deleted 2 documents", env.Message)
	assert.Equal(t, int64(2), result.DeletedCount)
	helpers.AssertDocumentExists(t, e.srv.Manager(), "people", keep[model.IDField])
}

func TestDocuments_InvalidInput(t *testing.T) {
	// AC-DOC-007: Invalid Input
	e := newConnectedEnv(t)

	t.Run("document required", func(t *testing.T) {
		resp := helpers.NewRequest(t, http.MethodPost, "/api/collection/items/document").
			WithRawBody(`{"document":{}}`).
			Do(e.handler)
		env := helpers.AssertEnvelopeError(t, resp, http.StatusBadRequest, "Bad Request")
		assert.Equal(t, "Document is required", env.Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := helpers.NewRequest(t, http.MethodGet, "/api/collection/items/document/bad$id").Do(e.handler)
		helpers.AssertValidationError(t, resp, "id")
	})

	t.Run("bad page", func(t *testing.T) {
		resp := helpers.NewRequest(t, http.MethodGet, "/api/collection/items/documents?page=0").Do(e.handler)
		helpers.AssertValidationError(t, resp, "page")
	})

	t.Run("bad filter", func(t *testing.T) {
		resp := helpers.NewRequest(t, http.MethodGet, documentsURL("items", url.Values{
			"filter": {`{"$where":"1"}`},
		})).Do(e.handler)
		helpers.AssertValidationError(t, resp, "filter")
	})

	t.Run("ids required", func(t *testing.T) {
		resp := helpers.NewRequest(t, http.MethodDelete, "/api/collection/items/documents").
			WithBody(map[string]interface{}{"ids": []string{}}).
			Do(e.handler)
		env := helpers.AssertEnvelopeError(t, resp, http.StatusBadRequest, "Bad Request")
		assert.Equal(t, "Ids array is required", env.Message)
	})

	// Nothing above reached the store
	var page model.DocumentPage
	resp := helpers.NewRequest(t, http.MethodGet, "/api/collection/items/documents").Do(e.handler)
	helpers.AssertSuccess(t, resp, http.StatusOK, &page)
	assert.Zero(t, page.Total)
}

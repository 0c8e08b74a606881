// Package helpers provides test utility functions for the admin API.
//
// # Requests
//
// Build and serve a request in one chain:
//
//	resp := helpers.NewRequest(t, "POST", "/api/collections").
//	    WithBody(map[string]string{"name": "users"}).
//	    Do(router)
//
// # Envelope Assertions
//
//	helpers.AssertSuccess(t, resp, http.StatusCreated, nil)
//	helpers.AssertEnvelopeError(t, resp, http.StatusNotFound, "Not Found")
//	helpers.AssertValidationError(t, resp, "page")
//
// # Database Assertions
//
//	helpers.AssertDocumentExists(t, tdb.Manager, "users", id)
//	helpers.AssertDocumentNotExists(t, tdb.Manager, "users", id)
package helpers

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aiplsaur/APIMongoDB/internal/model"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 16 << 20

// errInvalidBody is reported for any body that is not the expected JSON.
var errInvalidBody = errors.New("Invalid request body")

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful envelope carrying data
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, model.Envelope{Success: true, Data: data})
}

// WriteMessage writes a successful envelope carrying only a message
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, model.Envelope{Success: true, Message: message})
}

// WriteError writes the failure envelope
func WriteError(w http.ResponseWriter, err *model.APIError) {
	WriteJSON(w, err.Status(), err)
}

// DecodeJSON decodes a JSON request body into v. Numbers are kept as
// json.Number so integers survive the round trip into the store.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

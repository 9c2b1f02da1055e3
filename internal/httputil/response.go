package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

var ErrBodyTooLarge = errors.New("request body is too large")

// ErrorResponse is the failure envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// MessageResponse is a success envelope carrying only a message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RespondWithError writes {success:false, message}.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Success: false, Message: message})
}

// RespondWithValidationError writes a 400 carrying field level errors.
func RespondWithValidationError(w http.ResponseWriter, verr *ValidationError) {
	RespondWithJSON(w, http.StatusBadRequest, ErrorResponse{
		Success: false,
		Message: verr.Message,
		Errors:  verr.Fields,
	})
}

// RespondWithMessage writes {success:true, message}.
func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, MessageResponse{Success: true, Message: message})
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// DecodeJSON reads a single JSON document from the request body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return ErrBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// RespondWithDecodeError maps a DecodeJSON failure to 413 or 400.
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		RespondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	RespondWithError(w, http.StatusBadRequest, err.Error())
}

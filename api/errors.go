package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vegaprotocol/amounts/amount"
	"github.com/vegaprotocol/amounts/registry"
)

var (
	// ErrBadRequest is returned when the provided HTTP request
	// is malformed.
	ErrBadRequest = errors.New("invalid request parameters")
	// ErrNotFound is returned when handling a request for a market or
	// asset that is not registered.
	ErrNotFound = errors.New("item not found")
)

// ErrInvalidParam reports a query or path parameter that could not be
// interpreted.
type ErrInvalidParam struct {
	Param string
	Err   error
}

func (e ErrInvalidParam) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Err)
}

func (e ErrInvalidParam) Unwrap() error {
	return e.Err
}

// HumanReadableError is the body of every error response.
type HumanReadableError struct {
	Msg string `json:"msg"`
}

func HttpCodeForError(err error) int {
	var invalidParam ErrInvalidParam
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, amount.ErrMalformed),
		errors.Is(err, registry.ErrInvalidScale),
		errors.As(err, &invalidParam):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound),
		errors.Is(err, registry.ErrUnknown):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// A simple error handler that renders any error as human-readable JSON to
// the HTTP response stream `w`.
func HumanReadableJsonErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("x-content-type-options", "nosniff")
	w.WriteHeader(HttpCodeForError(err))

	_ = json.NewEncoder(w).Encode(HumanReadableError{Msg: err.Error()})
}

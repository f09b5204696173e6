package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// newAPIError reads the server's error body. Only its message field is
// kept; a body that does not decode falls back to the status text.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	} else {
		apiErr.Message = fmt.Sprintf("request failed: %s", http.StatusText(resp.StatusCode))
	}
	return apiErr
}

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dom/postboard/internal/api/respond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the standard error body and returns it
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int) respond.ErrorBody {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body respond.ErrorBody
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedStatus, body.StatusCode)
	assert.Equal(t, resp.Request.URL.Path, body.Path)
	assert.Equal(t, resp.Request.Method, body.Method)
	assert.NotEmpty(t, body.Message)
	assert.NotEmpty(t, body.Timestamp)
	return body
}

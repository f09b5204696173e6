package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dom/postboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Signup(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]string
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful signup",
			request: map[string]string{
				"email":     "new@x.com",
				"password":  "password123",
				"firstName": "New",
				"lastName":  "User",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]json.RawMessage
				testutil.AssertJSONResponse(t, resp, &result)
				require.Contains(t, result, "access_token")
				require.Contains(t, result, "user")

				var user map[string]interface{}
				require.NoError(t, json.Unmarshal(result["user"], &user))
				assert.Equal(t, "new@x.com", user["email"])
				assert.Equal(t, "New", user["firstName"])
				assert.NotContains(t, user, "passwordHash")
				assert.NotContains(t, user, "password")
			},
		},
		{
			name: "missing names",
			request: map[string]string{
				"email":    "new@x.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing password",
			request: map[string]string{
				"email":     "new@x.com",
				"firstName": "New",
				"lastName":  "User",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"email":     "a@x.com",
				"password":  "password123",
				"firstName": "Second",
				"lastName":  "User",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithEmail("a@x.com").
					Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)

			if tt.setup != nil {
				tt.setup()
			}

			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.APIURL("/auth/signup"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			if tt.expectedStatus >= 400 {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus)
				return
			}

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_SignupTwiceConflicts(t *testing.T) {
	ts := testutil.NewTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"email":     "a@x.com",
		"password":  "password123",
		"firstName": "Ada",
		"lastName":  "Lovelace",
	})

	first, err := http.Post(ts.APIURL("/auth/signup"), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second, err := http.Post(ts.APIURL("/auth/signup"), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer second.Body.Close()
	testutil.AssertErrorResponse(t, second, http.StatusConflict)
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, rawPassword := testutil.NewUserBuilder().
		WithEmail("login@x.com").
		WithPassword("correctpassword").
		Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful login",
			request: map[string]string{
				"email":    user.Email,
				"password": rawPassword,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, user.ID.String(), result.User.ID)
				assert.Equal(t, user.Email, result.User.Email)
				assert.NotEmpty(t, result.AccessToken)
			},
		},
		{
			name: "invalid password",
			request: map[string]string{
				"email":    user.Email,
				"password": "wrongpassword",
			},
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]interface{}
				testutil.AssertJSONResponse(t, resp, &result)
				assert.NotContains(t, result, "access_token")
			},
		},
		{
			name: "non-existent user",
			request: map[string]string{
				"email":    "nobody@x.com",
				"password": "anypassword",
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "missing email",
			request: map[string]string{
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing password",
			request: map[string]string{
				"email": user.Email,
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.APIURL("/auth/login"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().
		WithEmail("me@x.com").
		BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "successful fetch with valid token",
			token:          token,
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result struct {
					ID    string `json:"id"`
					Email string `json:"email"`
				}
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, user.ID.String(), result.ID)
				assert.Equal(t, user.Email, result.Email)
			},
		},
		{
			name:           "missing authorization header",
			token:          "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			token:          "invalid.token.here",
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, resp *http.Response) {
				body := testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized)
				assert.Equal(t, "invalid token: unauthorized", body.Message)
			},
		},
		{
			name:           "malformed token",
			token:          "notajwt",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/auth/me"), nil, tt.token)
			resp := testutil.Do(t, req)

			if tt.checkResponse != nil {
				assert.Equal(t, tt.expectedStatus, resp.StatusCode)
				tt.checkResponse(t, resp)
				return
			}
			testutil.AssertErrorResponse(t, resp, tt.expectedStatus)
		})
	}
}

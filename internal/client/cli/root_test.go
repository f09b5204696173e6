package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dom/postboard/internal/client/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "postsctl", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"signup"},
		{"login"},
		{"logout"},
		{"whoami"},
		{"posts", "list"},
		{"posts", "get"},
		{"posts", "create"},
		{"posts", "update"},
		{"posts", "delete"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("api-url"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("state-db"))
}

func TestPostsListFlags(t *testing.T) {
	cmd := NewRootCommand()
	listCmd, _, err := cmd.Find([]string{"posts", "list"})
	require.NoError(t, err)

	mineFlag := listCmd.Flags().Lookup("mine")
	require.NotNil(t, mineFlag)
	assert.Equal(t, "false", mineFlag.DefValue)
}

func TestPromptPasswordUsesTerminalWhenFlagMissing(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(fd int) ([]byte, error) { return []byte("from-terminal"), nil }

	var prompt bytes.Buffer
	pw, err := promptPassword(&prompt, "")
	require.NoError(t, err)
	assert.Equal(t, "from-terminal", pw)
	assert.Contains(t, prompt.String(), "Password:")

	pw, err = promptPassword(&prompt, "from-flag")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", pw)
}

// fakeAPI answers just enough of the API for the CLI flows below and counts
// requests per "METHOD /path".
type fakeAPI struct {
	*httptest.Server

	mu    sync.Mutex
	calls map[string]int
}

// takeCalls returns the requests seen since the last call.
func (f *fakeAPI) takeCalls() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = map[string]int{}
	return calls
}

func fakeServer(t *testing.T) *fakeAPI {
	t.Helper()

	user := api.User{ID: "u-1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	created := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	posts := []api.Post{
		{ID: "p-2", Title: "Mine", Content: "hello", Published: true, AuthorID: "u-1", CreatedAt: created},
		{ID: "p-1", Title: "Theirs", Content: "hi", Published: true, AuthorID: "u-2", CreatedAt: created.Add(-time.Hour)},
	}

	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer tok-1"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"statusCode": 401, "message": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusCreated, api.AuthResponse{AccessToken: "tok-1", User: user})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"statusCode": 401, "message": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, user)
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"statusCode": 401, "message": "unauthorized"})
			return
		}
		if r.Method == http.MethodPost {
			var in api.PostInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusCreated, api.Post{ID: "p-3", Title: in.Title, Content: in.Content, Published: true, AuthorID: user.ID, CreatedAt: created})
			return
		}
		writeJSON(w, http.StatusOK, posts)
	})
	mux.HandleFunc("/posts/my-posts", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"statusCode": 401, "message": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, posts[:1])
	})

	f := &fakeAPI{calls: map[string]int{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func execute(t *testing.T, srv *fakeAPI, stateDB string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--api-url", srv.URL, "--state-db", stateDB}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	srv := fakeServer(t)
	stateDB := filepath.Join(t.TempDir(), "state.db")

	out, err := execute(t, srv, stateDB, "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ada@example.com.")
	assert.Contains(t, out, "2 posts in the feed.")

	out, err = execute(t, srv, stateDB, "posts", "list", "--mine")
	require.NoError(t, err)
	assert.Contains(t, out, "Mine [mine]")
	assert.NotContains(t, out, "Theirs")

	out, err = execute(t, srv, stateDB, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	_, err = execute(t, srv, stateDB, "posts", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	srv := fakeServer(t)
	stateDB := filepath.Join(t.TempDir(), "state.db")

	_, err := execute(t, srv, stateDB, "login", "--email", "ada@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestServerCallsPerCommand(t *testing.T) {
	srv := fakeServer(t)
	stateDB := filepath.Join(t.TempDir(), "state.db")

	steps := []struct {
		name string
		args []string
		want map[string]int
	}{
		{
			name: "login refreshes the feed once",
			args: []string{"login", "--email", "ada@example.com", "--password", "secret"},
			want: map[string]int{"POST /auth/login": 1, "GET /posts": 1},
		},
		{
			name: "list fetches once",
			args: []string{"posts", "list"},
			want: map[string]int{"GET /posts": 1},
		},
		{
			name: "list mine only fetches mine",
			args: []string{"posts", "list", "--mine"},
			want: map[string]int{"GET /posts/my-posts": 1},
		},
		{
			name: "whoami asks the server once",
			args: []string{"whoami"},
			want: map[string]int{"GET /auth/me": 1},
		},
		{
			name: "create reloads the feed once",
			args: []string{"posts", "create", "--title", "t", "--content", "c"},
			want: map[string]int{"POST /posts": 1, "GET /posts": 1},
		},
		{
			name: "logout stays local",
			args: []string{"logout"},
			want: map[string]int{},
		},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			_, err := execute(t, srv, stateDB, step.args...)
			require.NoError(t, err)
			assert.Equal(t, step.want, srv.takeCalls())
		})
	}
}

package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/dom/postboard/internal/client/api"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRenderPosts(t *testing.T) {
	ada := &api.User{ID: "u1", Email: "ada@x.com", FirstName: "Ada", LastName: "Lovelace"}
	at := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	feed := []api.Post{
		{
			ID:        "p2",
			Title:     "Engines",
			Content:   "Notes on the analytical engine.\nSecond line.",
			Published: true,
			AuthorID:  "u1",
			Author:    &api.Author{ID: "u1", Email: "ada@x.com", FirstName: "Ada", LastName: "Lovelace"},
			CreatedAt: at,
		},
		{
			ID:        "p1",
			Title:     "Compilers",
			Content:   "Draft thoughts.",
			Published: false,
			AuthorID:  "u2",
			Author:    &api.Author{ID: "u2", Email: "grace@x.com", FirstName: "Grace", LastName: "Hopper"},
			CreatedAt: at.Add(-26 * time.Hour),
		},
		{
			ID:        "p0",
			Title:     "Orphan",
			Content:   "",
			Published: true,
			AuthorID:  "u3",
			CreatedAt: time.Date(2024, 3, 8, 0, 5, 0, 0, time.FixedZone("CET", 3600)),
		},
	}

	tests := []struct {
		name  string
		posts []api.Post
		me    *api.User
	}{
		{name: "posts_feed", posts: feed, me: ada},
		{name: "posts_anonymous", posts: feed[:1]},
		{name: "posts_empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderPosts(&buf, tt.posts, tt.me))
			newGolden(t).Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestRenderUser(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderUser(&buf, &api.User{ID: "u1", Email: "ada@x.com", FirstName: "Ada", LastName: "Lovelace"}))
	newGolden(t).Assert(t, "user", buf.Bytes())
}

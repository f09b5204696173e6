package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dom/postboard/internal/client/api"
)

const timeLayout = "2006-01-02 15:04 UTC"

// RenderPosts writes posts in the order given. Posts written by me are
// tagged; me may be nil.
func RenderPosts(w io.Writer, posts []api.Post, me *api.User) error {
	if len(posts) == 0 {
		_, err := fmt.Fprintln(w, "No posts.")
		return err
	}

	var b strings.Builder
	for i, p := range posts {
		if i > 0 {
			b.WriteString("\n")
		}
		writePost(&b, p, me)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writePost(b *strings.Builder, p api.Post, me *api.User) {
	var tags []string
	if !p.Published {
		tags = append(tags, "draft")
	}
	if me != nil && p.AuthorID == me.ID {
		tags = append(tags, "mine")
	}

	b.WriteString(p.Title)
	if len(tags) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(tags, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "  id: %s\n", p.ID)
	fmt.Fprintf(b, "  by: %s\n", authorLabel(p))
	fmt.Fprintf(b, "  at: %s\n", p.CreatedAt.UTC().Format(timeLayout))
	for _, line := range strings.Split(p.Content, "\n") {
		fmt.Fprintf(b, "  | %s\n", line)
	}
}

func authorLabel(p api.Post) string {
	if p.Author == nil {
		return p.AuthorID
	}
	return fmt.Sprintf("%s %s <%s>", p.Author.FirstName, p.Author.LastName, p.Author.Email)
}

func RenderUser(w io.Writer, u *api.User) error {
	_, err := fmt.Fprintf(w, "%s %s <%s>\n  id: %s\n", u.FirstName, u.LastName, u.Email, u.ID)
	return err
}

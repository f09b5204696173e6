// Package session holds the client's authenticated session and its local
// copy of the posts list. State only changes through Reduce.
package session

import "github.com/dom/postboard/internal/client/api"

type State struct {
	Token     string
	User      *api.User
	Posts     []api.Post
	Busy      bool
	LastError string
}

// Authenticated reports whether both a token and a user are present.
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Posts != nil {
		out.Posts = append([]api.Post(nil), s.Posts...)
	}
	return out
}

// Action is one of the Action* types below.
type Action interface {
	isAction()
}

// ActionStarted marks the start of a server call.
type ActionStarted struct{}

type ActionFailed struct {
	Message string
}

type ActionAuthenticated struct {
	Token string
	User  api.User
}

type ActionLoggedOut struct{}

// ActionPostsReplaced swaps in a freshly fetched list, in server order.
type ActionPostsReplaced struct {
	Posts []api.Post
}

type ActionPostUpdated struct {
	Post api.Post
}

type ActionPostRemoved struct {
	ID string
}

func (ActionStarted) isAction()       {}
func (ActionFailed) isAction()        {}
func (ActionAuthenticated) isAction() {}
func (ActionLoggedOut) isAction()     {}
func (ActionPostsReplaced) isAction() {}
func (ActionPostUpdated) isAction()   {}
func (ActionPostRemoved) isAction()   {}

// Reduce returns the state after applying action. It does not modify s.
func Reduce(s State, action Action) State {
	next := s.clone()

	switch a := action.(type) {
	case ActionStarted:
		next.LastError = ""
		next.Busy = true

	case ActionFailed:
		next.LastError = a.Message
		next.Busy = false

	case ActionAuthenticated:
		user := a.User
		next.Token = a.Token
		next.User = &user
		next.Busy = false

	case ActionLoggedOut:
		next = State{}

	case ActionPostsReplaced:
		next.Posts = append([]api.Post{}, a.Posts...)
		next.Busy = false

	case ActionPostUpdated:
		for i := range next.Posts {
			if next.Posts[i].ID == a.Post.ID {
				next.Posts[i] = a.Post
			}
		}
		next.Busy = false

	case ActionPostRemoved:
		kept := make([]api.Post, 0, len(next.Posts))
		for _, p := range next.Posts {
			if p.ID != a.ID {
				kept = append(kept, p)
			}
		}
		next.Posts = kept
		next.Busy = false
	}

	return next
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dom/postboard/internal/client/api"
	"github.com/google/uuid"
)

const fakePassword = "simulator-password"

// FakeUser is a signed up simulator account.
type FakeUser struct {
	Email    string
	Password string
	Token    string
	User     api.User
}

func signupFake(ctx context.Context, client *api.Client, name string) (*FakeUser, error) {
	// Suffix keeps reruns against the same database from colliding.
	email := fmt.Sprintf("%s-%s@sim.local", strings.ToLower(name), uuid.NewString()[:8])

	resp, err := client.Signup(ctx, api.SignupRequest{
		Email:     email,
		Password:  fakePassword,
		FirstName: name,
		LastName:  "Simulated",
	})
	if err != nil {
		return nil, fmt.Errorf("signup %s: %w", name, err)
	}

	return &FakeUser{Email: email, Password: fakePassword, Token: resp.AccessToken, User: resp.User}, nil
}

type PopulateOptions struct {
	Users        int
	PostsPerUser int
	Drafts       bool
}

// Populate creates opts.Users accounts and opts.PostsPerUser posts for each.
func Populate(ctx context.Context, client *api.Client, opts PopulateOptions, out io.Writer) ([]*FakeUser, error) {
	users := make([]*FakeUser, 0, opts.Users)

	for i := 0; i < opts.Users; i++ {
		u, err := signupFake(ctx, client, fmt.Sprintf("Writer%d", i+1))
		if err != nil {
			return users, err
		}

		for j := 0; j < opts.PostsPerUser; j++ {
			input := api.PostInput{
				Title:   fmt.Sprintf("Post %d by %s", j+1, u.User.FirstName),
				Content: fmt.Sprintf("Simulated content #%d.", j+1),
			}
			if opts.Drafts && j%2 == 1 {
				published := false
				input.Published = &published
			}
			if _, err := client.Create(ctx, u.Token, input); err != nil {
				return users, fmt.Errorf("create post for %s: %w", u.Email, err)
			}
		}

		users = append(users, u)
		fmt.Fprintf(out, "  [%d/%d] %s wrote %d posts\n", i+1, opts.Users, u.Email, opts.PostsPerUser)
	}

	return users, nil
}

// Probe signs up an owner and a stranger and checks the ownership rules
// end to end: strangers are refused, owners succeed, missing posts are 404
// for everyone.
func Probe(ctx context.Context, client *api.Client, out io.Writer) error {
	owner, err := signupFake(ctx, client, "Owner")
	if err != nil {
		return err
	}
	stranger, err := signupFake(ctx, client, "Stranger")
	if err != nil {
		return err
	}

	post, err := client.Create(ctx, owner.Token, api.PostInput{Title: "probe", Content: "owned"})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if post.AuthorID != owner.User.ID {
		return fmt.Errorf("create: author is %s, want %s", post.AuthorID, owner.User.ID)
	}
	step(out, "owner created post %s", post.ID)

	title := "hijacked"
	_, err = client.Update(ctx, stranger.Token, post.ID, api.PostPatch{Title: &title})
	if err := expectStatus(err, http.StatusForbidden); err != nil {
		return fmt.Errorf("stranger update: %w", err)
	}
	step(out, "stranger update refused")

	if err := expectStatus(client.Delete(ctx, stranger.Token, post.ID), http.StatusForbidden); err != nil {
		return fmt.Errorf("stranger delete: %w", err)
	}
	step(out, "stranger delete refused")

	got, err := client.Get(ctx, stranger.Token, post.ID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if got.Title != "probe" {
		return fmt.Errorf("get: title is %q after refused update", got.Title)
	}
	step(out, "post unchanged")

	if err := client.Delete(ctx, owner.Token, post.ID); err != nil {
		return fmt.Errorf("owner delete: %w", err)
	}
	step(out, "owner deleted post")

	for _, u := range []*FakeUser{owner, stranger} {
		if err := expectStatus(client.Delete(ctx, u.Token, post.ID), http.StatusNotFound); err != nil {
			return fmt.Errorf("delete missing as %s: %w", u.User.FirstName, err)
		}
	}
	step(out, "missing post is 404 for owner and stranger")

	return nil
}

func expectStatus(err error, want int) error {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("want status %d, got %v", want, err)
	}
	if apiErr.StatusCode != want {
		return fmt.Errorf("want status %d, got %d (%s)", want, apiErr.StatusCode, apiErr.Message)
	}
	return nil
}

func step(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, "  ok  "+format+"\n", args...)
}

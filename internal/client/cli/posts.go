package cli

import (
	"fmt"

	"github.com/dom/postboard/internal/client/api"
	"github.com/spf13/cobra"
)

func newPostsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List and manage posts",
	}

	cmd.AddCommand(newPostsListCommand(app))
	cmd.AddCommand(newPostsGetCommand(app))
	cmd.AddCommand(newPostsCreateCommand(app))
	cmd.AddCommand(newPostsUpdateCommand(app))
	cmd.AddCommand(newPostsDeleteCommand(app))

	return cmd
}

func newPostsListCommand(app *App) *cobra.Command {
	var mine bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every post, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireLogin(); err != nil {
				return err
			}

			refresh := app.Session.RefreshAll
			if mine {
				refresh = app.Session.RefreshMine
			}
			if err := refresh(cmd.Context()); err != nil {
				return sessionError(app, err)
			}

			snap := app.Session.Snapshot()
			return RenderPosts(cmd.OutOrStdout(), snap.Posts, snap.User)
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "only posts written by you")
	return cmd
}

func newPostsGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.requireLogin()
			if err != nil {
				return err
			}

			post, err := app.Client.Get(cmd.Context(), snap.Token, args[0])
			if err != nil {
				return err
			}
			return RenderPosts(cmd.OutOrStdout(), []api.Post{*post}, snap.User)
		},
	}
}

type createOptions struct {
	Title   string
	Content string
	Draft   bool
}

func newPostsCreateCommand(app *App) *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Long: `Create a post authored by the logged in user.

Posts are published unless --draft is given.

Examples:
  postsctl posts create --title "Hello" --content "First post"
  postsctl posts create --title "WIP" --content "..." --draft`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireLogin(); err != nil {
				return err
			}

			input := api.PostInput{Title: opts.Title, Content: opts.Content}
			if opts.Draft {
				published := false
				input.Published = &published
			}

			post, err := app.Session.CreatePost(cmd.Context(), input)
			if err != nil {
				return sessionError(app, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created post %s.\n", post.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "post title (required)")
	cmd.Flags().StringVar(&opts.Content, "content", "", "post body (required)")
	cmd.Flags().BoolVar(&opts.Draft, "draft", false, "create the post unpublished")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

func newPostsUpdateCommand(app *App) *cobra.Command {
	var (
		title     string
		content   string
		published bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a post you own",
		Long: `Update a post. Only the flags you pass are sent; everything else is
left as it is on the server.

Examples:
  postsctl posts update 0b9c... --title "Better title"
  postsctl posts update 0b9c... --published=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireLogin(); err != nil {
				return err
			}

			var patch api.PostPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("content") {
				patch.Content = &content
			}
			if flags.Changed("published") {
				patch.Published = &published
			}

			post, err := app.Session.UpdatePost(cmd.Context(), args[0], patch)
			if err != nil {
				return sessionError(app, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated post %s.\n", post.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new body")
	cmd.Flags().BoolVar(&published, "published", true, "publish or unpublish")

	return cmd
}

func newPostsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a post you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireLogin(); err != nil {
				return err
			}

			if err := app.Session.DeletePost(cmd.Context(), args[0]); err != nil {
				return sessionError(app, err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %s.\n", args[0])
			return err
		},
	}
}

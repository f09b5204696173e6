package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dom/postboard/internal/client/api"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "populate":
		populateCmd(apiURL, args)
	case "probe":
		probeCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Post Simulator - Development tool for filling and checking a postboard server

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Sign up fake users and give each of them a few posts
  probe     Walk through the ownership rules with two fresh users
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Five users with three posts each
  simulator populate

  # Twenty users, one post each, every other one a draft
  simulator populate --users=20 --posts=1 --drafts

  # Check that strangers get 403 and missing posts get 404
  simulator probe`)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	users := fs.Int("users", 5, "Number of fake users to create")
	posts := fs.Int("posts", 3, "Posts per user")
	drafts := fs.Bool("drafts", false, "Make every other post a draft")
	fs.Parse(args)

	if *users < 1 || *posts < 0 {
		fmt.Println("Error: --users must be at least 1 and --posts may not be negative")
		os.Exit(1)
	}

	client := api.New(apiURL)

	fmt.Println("=== Post Simulator: Populate ===")
	fmt.Println()

	opts := PopulateOptions{Users: *users, PostsPerUser: *posts, Drafts: *drafts}
	created, err := Populate(context.Background(), client, opts, os.Stdout)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Done! %d users, %d posts.\n", len(created), len(created)*(*posts))
	for _, u := range created {
		fmt.Printf("  %s / %s\n", u.Email, u.Password)
	}
}

func probeCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	fs.Parse(args)

	client := api.New(apiURL)

	fmt.Println("=== Post Simulator: Probe ===")
	fmt.Println()

	if err := Probe(context.Background(), client, os.Stdout); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("All checks passed.")
}

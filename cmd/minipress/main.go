package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/minipress-io/minipress/internal/auth"
	"github.com/minipress-io/minipress/internal/client"
	"github.com/minipress-io/minipress/internal/config"
	httpapp "github.com/minipress-io/minipress/internal/http"
	"github.com/minipress-io/minipress/internal/store/sqlite"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println("minipress v0.1.0")
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "signup", "register":
		cmdSignup(args)
	case "login", "auth":
		cmdLogin(args)
	case "post", "create":
		cmdPost(args)
	case "read", "list":
		cmdRead(args)
	case "update", "edit":
		cmdUpdate(args)
	case "delete", "rm":
		cmdDelete(args)
	case "status", "whoami":
		cmdStatus(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`minipress - Minimal blogging backend

Usage: minipress <command> [options]

Quick Start:
  minipress signup --user alice --pass pw1
  minipress login --user alice --pass pw1
  minipress post --title "Hello" --content "World"

Client Commands:
  signup              Register a new user
  login               Log in and store a bearer token
  post                Create a new post
  read                Read posts (all, or one with --id)
  update              Update a post's title and/or content
  delete              Delete a post
  status              Show current config and token status

Server:
  server              Start the minipress server (default if no command)

Examples:
  minipress post --title "First post" --content "It begins."
  minipress read --id 1
  minipress update --id 1 --content "It continues."
  minipress delete --id 1

Environment Variables (server):
  MINIPRESS_ADDR        Listen address (default: :8080)
  MINIPRESS_DB          Database path (default: minipress.db)
  MINIPRESS_JWT_SECRET  Token signing secret
  MINIPRESS_TOKEN_TTL   Token lifetime (default: 24h)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	cfg := config.Load()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer store.Close()

	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)
	server := httpapp.NewServer(store, authSvc, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("minipress listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdSignup(args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	user := fs.String("user", "", "Username (required)")
	pass := fs.String("pass", "", "Password (required)")
	url := fs.String("url", "http://localhost:8080", "Minipress server URL")
	fs.Parse(args)

	if *user == "" || *pass == "" {
		fmt.Fprintln(os.Stderr, "Error: --user and --pass are required")
		os.Exit(1)
	}

	c := client.New(*url)
	if err := c.Signup(*user, *pass); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ User %s created\n", *user)

	saveCLIConfig(CLIConfig{BaseURL: *url, Username: *user})
	fmt.Println("Now run: minipress login --user", *user, "--pass <password>")
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", "", "Username")
	pass := fs.String("pass", "", "Password (required)")
	url := fs.String("url", "", "Minipress server URL")
	fs.Parse(args)

	cfg := loadCLIConfig()
	if *url != "" {
		cfg.BaseURL = *url
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if *user != "" {
		cfg.Username = *user
	}
	if cfg.Username == "" || *pass == "" {
		fmt.Fprintln(os.Stderr, "Error: --user and --pass are required")
		os.Exit(1)
	}

	c := client.New(cfg.BaseURL)
	token, err := c.Login(cfg.Username, *pass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Token = token
	saveCLIConfig(cfg)
	fmt.Printf("✓ Logged in as %s\n", cfg.Username)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	title := fs.String("title", "", "Post title (required)")
	content := fs.String("content", "", "Post content (required)")
	fs.Parse(args)

	if *title == "" || *content == "" {
		fmt.Fprintln(os.Stderr, "Error: --title and --content are required")
		os.Exit(1)
	}

	c := authedClient()
	post, err := c.CreatePost(*title, *content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Created post %d: %s\n", post.ID, post.Title)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	id := fs.Int64("id", 0, "Post id (omit to list all)")
	fs.Parse(args)

	c := authedClient()
	if *id > 0 {
		post, err := c.GetPost(*id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("#%d %s\n\n%s\n", post.ID, post.Title, post.Content)
		return
	}

	posts, err := c.ListPosts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(posts) == 0 {
		fmt.Println("No posts yet.")
		return
	}
	for _, post := range posts {
		fmt.Printf("#%d %s\n", post.ID, post.Title)
	}
}

func cmdUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.Int64("id", 0, "Post id (required)")
	title := fs.String("title", "", "New title")
	content := fs.String("content", "", "New content")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}
	var titlePtr, contentPtr *string
	if *title != "" {
		titlePtr = title
	}
	if *content != "" {
		contentPtr = content
	}
	if titlePtr == nil && contentPtr == nil {
		fmt.Fprintln(os.Stderr, "Error: provide --title and/or --content")
		os.Exit(1)
	}

	c := authedClient()
	post, err := c.UpdatePost(*id, titlePtr, contentPtr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Updated post %d: %s\n", post.ID, post.Title)
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "Post id (required)")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}

	c := authedClient()
	message, err := c.DeletePost(*id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓", message)
}

func cmdStatus(args []string) {
	cfg := loadCLIConfig()
	if cfg.BaseURL == "" {
		fmt.Println("Not configured. Run: minipress signup --user <name> --pass <password>")
		return
	}
	fmt.Printf("Server:   %s\n", cfg.BaseURL)
	fmt.Printf("Username: %s\n", cfg.Username)
	if cfg.Token == "" {
		fmt.Println("Token:    none (run: minipress login)")
	} else {
		fmt.Println("Token:    present")
	}
}

func authedClient() *client.Client {
	cfg := loadCLIConfig()
	if cfg.BaseURL == "" || cfg.Token == "" {
		fmt.Fprintln(os.Stderr, "Error: not logged in. Run: minipress login --user <name> --pass <password>")
		os.Exit(1)
	}
	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	return c
}

func cliConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".minipress.json"
	}
	return filepath.Join(home, ".minipress", "config.json")
}

func loadCLIConfig() CLIConfig {
	var cfg CLIConfig
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(data, &cfg)
	return cfg
}

func saveCLIConfig(cfg CLIConfig) {
	path := cliConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create config dir: %v\n", err)
		return
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
	}
}

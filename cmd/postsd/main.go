package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mahmouddwidar/foxsoft-test/internal/auth"
	"github.com/mahmouddwidar/foxsoft-test/internal/client"
	"github.com/mahmouddwidar/foxsoft-test/internal/config"
	httpapp "github.com/mahmouddwidar/foxsoft-test/internal/http"
	"github.com/mahmouddwidar/foxsoft-test/internal/model"
	"github.com/mahmouddwidar/foxsoft-test/internal/posts"
	"github.com/mahmouddwidar/foxsoft-test/internal/rate"
	"github.com/mahmouddwidar/foxsoft-test/internal/store/sqlite"
)

// CLIConfig holds the CLI client session persisted to disk.
type CLIConfig struct {
	BaseURL  string `json:"base_url"`
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	Token    string `json:"token"`
	TokenExp string `json:"token_expires"`
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
		fmt.Println("postsd v0.1.0")
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
	case "login":
		cmdLogin(args)
	case "logout":
		cmdLogout(args)
	case "whoami", "status":
		cmdWhoami(args)
	case "list", "ls":
		cmdList(args)
	case "create", "new":
		cmdCreate(args)
	case "update", "edit":
		cmdUpdate(args)
	case "delete", "rm":
		cmdDelete(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`postsd - posts service with user and admin roles

Usage: postsd <command> [options]

Client Commands:
  login               Sign in as a user (or --admin) and store the token
  logout              Revoke the stored token
  whoami              Show the current session
  list                List posts visible to you (search + pagination)
  create              Create a post
  update              Update a post you can edit
  delete              Delete a post you can remove

Server:
  server              Start the API server (default if no command)

Examples:
  postsd login --email u1@example.com --password secret
  postsd login --email admin@example.com --password secret --admin
  postsd list --search golang --page 2 --per-page 5
  postsd create --title "Hello" --content "First post" --status published
  postsd update --id 3 --status draft
  postsd delete --id 3

Environment Variables (server):
  POSTSD_ADDR              Listen address (default: :8080)
  POSTSD_DB                Database path (default: postsd.db)
  POSTSD_TOKEN_TTL         Token lifetime (default: 24h)
  POSTSD_RL_LOGIN_PER_MIN  Login attempts per minute per IP (default: 10)`)
}

func runServer() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer st.Close()

	limiter := rate.NewMemory()
	authSvc := auth.NewService(st, cfg.TokenTTL)
	postSvc := posts.NewService(st)

	server := httpapp.NewServer(st, authSvc, postSvc, limiter, cfg, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("postsd listening on %s", cfg.Addr)
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

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	admin := fs.Bool("admin", false, "Sign in against the admin login")
	url := fs.String("url", "http://localhost:8080", "Server URL")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		os.Exit(1)
	}

	c := client.New(strings.TrimSuffix(*url, "/"))
	cfg := CLIConfig{BaseURL: c.BaseURL, Email: *email}

	if *admin {
		acct, err := c.LoginAdmin(*email, *password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Kind = string(model.KindAdmin)
		fmt.Printf("✓ Signed in as admin '%s'\n", acct.Name)
	} else {
		acct, err := c.LoginUser(*email, *password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Kind = string(model.KindUser)
		fmt.Printf("✓ Signed in as user '%s'\n", acct.Name)
	}

	cfg.Token = c.Token
	cfg.TokenExp = c.TokenExp.Format(time.RFC3339)
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Token expires %s\n", cfg.TokenExp)
}

func cmdLogout(args []string) {
	c, cfg, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := c.Logout(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Token = ""
	cfg.TokenExp = ""
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving session: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Logged out")
}

func cmdWhoami(args []string) {
	c, cfg, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Println("Status: not signed in")
		fmt.Println("\nRun: postsd login --email <email> --password <password>")
		return
	}
	profile, err := c.CurrentUser()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Signed in: %s <%s> (%s)\n", profile.Name, profile.Email, profile.Kind)
	fmt.Printf("Server:    %s\n", cfg.BaseURL)
	fmt.Printf("Token:     valid until %s\n", cfg.TokenExp)
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	search := fs.String("search", "", "Filter by substring in title or content")
	page := fs.Int("page", 1, "Page number")
	perPage := fs.Int("per-page", 10, "Items per page")
	fs.Parse(args)

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	list, err := c.ListPosts(*search, *page, *perPage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(list.Data) == 0 {
		fmt.Printf("No posts (page %d/%d, %d total)\n", list.Meta.CurrentPage, list.Meta.LastPage, list.Meta.Total)
		return
	}
	for _, p := range list.Data {
		owner := p.UserName
		if owner == "" {
			owner = fmt.Sprintf("user %d", p.UserID)
		}
		fmt.Printf("#%d [%s] %s (by %s)\n", p.ID, p.Status, p.Title, owner)
	}
	fmt.Printf("\nPage %d of %d | %d total\n", list.Meta.CurrentPage, list.Meta.LastPage, list.Meta.Total)
}

func cmdCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "Post title (required, max 255 chars)")
	content := fs.String("content", "", "Post content (required)")
	status := fs.String("status", "draft", "Status: published or draft")
	userID := fs.Int64("user", 0, "Owner user id (admin only)")
	fs.Parse(args)

	if *title == "" || *content == "" {
		fmt.Fprintln(os.Stderr, "Error: --title and --content are required")
		os.Exit(1)
	}

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var owner *int64
	if *userID != 0 {
		owner = userID
	}

	post, err := c.CreatePost(*title, *content, model.PostStatus(*status), owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Created post #%d: %s\n", post.ID, post.Title)
}

func cmdUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.Int64("id", 0, "Post ID (required)")
	title := fs.String("title", "", "New title")
	content := fs.String("content", "", "New content")
	status := fs.String("status", "", "New status: published or draft")
	userID := fs.Int64("user", 0, "Reassign to user id (admin only)")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}

	var update client.PostUpdate
	if *title != "" {
		update.Title = title
	}
	if *content != "" {
		update.Content = content
	}
	if *status != "" {
		st := model.PostStatus(*status)
		update.Status = &st
	}
	if *userID != 0 {
		update.OwnerID = userID
	}

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	post, err := c.UpdatePost(*id, update)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Updated post #%d: %s [%s]\n", post.ID, post.Title, post.Status)
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "Post ID (required)")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}

	c, _, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := c.DeletePost(*id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Deleted post #%d\n", *id)
}

func cliConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".postsd", "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return CLIConfig{}, errors.New("not signed in")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	path := cliConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return os.WriteFile(path, data, 0600)
}

func loadAuthenticatedClient() (*client.Client, CLIConfig, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, CLIConfig{}, err
	}
	if cfg.Token == "" {
		return nil, CLIConfig{}, errors.New("not signed in - run 'postsd login'")
	}
	if cfg.TokenExp != "" {
		exp, _ := time.Parse(time.RFC3339, cfg.TokenExp)
		if time.Now().After(exp) {
			return nil, CLIConfig{}, errors.New("session expired - run 'postsd login'")
		}
	}
	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	c.TokenExp, _ = time.Parse(time.RFC3339, cfg.TokenExp)
	return c, cfg, nil
}

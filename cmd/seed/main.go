package main

import (
	"flag"
	"log"

	"github.com/minipress-io/minipress/internal/client"
)

var users = []struct {
	username string
	password string
}{
	{"alice", "correct-horse"},
	{"bob", "battery-staple"},
	{"carol", "tr0ub4dor"},
}

var posts = []struct {
	author  int
	title   string
	content string
}{
	{0, "Hello, minipress", "A first post to prove the pipes are connected."},
	{0, "On writing short posts", "Brevity is the soul of wit."},
	{1, "Bob's corner", "I mostly post about databases."},
	{1, "Counters are hard", "Unless the store increments them for you."},
	{2, "Carol checks in", "Three users ought to be enough for a demo."},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Minipress server URL")
	flag.Parse()

	log.Printf("Seeding database at %s...", *baseURL)

	var clients []*client.Client
	for _, u := range users {
		c := client.New(*baseURL)
		if err := c.Signup(u.username, u.password); err != nil {
			log.Fatalf("signup %s: %v", u.username, err)
		}
		if _, err := c.Login(u.username, u.password); err != nil {
			log.Fatalf("login %s: %v", u.username, err)
		}
		log.Printf("✓ Registered user: %s", u.username)
		clients = append(clients, c)
	}

	for _, p := range posts {
		post, err := clients[p.author].CreatePost(p.title, p.content)
		if err != nil {
			log.Fatalf("create post %q: %v", p.title, err)
		}
		log.Printf("✓ Created post %d: %s", post.ID, post.Title)
	}

	log.Println("Done.")
}

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pders01/corkboard/internal/listing"
)

const seedDoc = `{
  "collections": {
    "rent_posts_feed": [
      {"id":"r1","title":"Sunny room","price":1200,"location":"North","category":"room","created_at":"2025-03-09T10:00:00Z"},
      {"id":"r2","title":"Flat share","price":900,"location":"South","category":"apartment","created_at":"2025-03-08T10:00:00Z","highlight_rank":1}
    ],
    "forum_posts_feed": [
      {"id":"f1","title":"Welcome","body":"# Hello\nbe nice","category":"general","created_at":"2025-03-09T10:00:00Z"}
    ]
  },
  "likes": [{"post_id":"f1","user_id":"u2"}]
}`

// runCLI executes the root command in a scratch HOME and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CORKBOARD_USER_ID", "u1")

	configPath, dbPath, logLevel, quiet = "", "", "", false
	listJSON, unlike = false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func seedFile(t *testing.T) (db, seed string) {
	t.Helper()
	dir := t.TempDir()
	seed = filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seed, []byte(seedDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, "board.db"), seed
}

func TestVersionCommand(t *testing.T) {
	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	versionCmd.Run(nil, nil)

	w.Close()
	os.Stdout = old
	out := <-outC

	// Version is "dev" by default in tests
	if !strings.Contains(out, "corkboard dev") {
		t.Errorf("Expected version output to contain 'corkboard dev', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/corkboard") {
		t.Errorf("Expected version output to contain the module path, got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, ".config", "corkboard", "config.toml")
	t.Setenv("HOME", tmpDir)
	configPath = ""

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	configGenCmd.Run(nil, nil)

	w.Close()
	os.Stdout = old
	out := <-outC

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func TestSeedThenList(t *testing.T) {
	db, seed := seedFile(t)

	out, err := runCLI(t, "--db", db, "seed", seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "Imported 3 rows into 2 collections and 1 likes") {
		t.Errorf("unexpected seed output: %s", out)
	}

	out, err = runCLI(t, "--db", db, "list", "rent")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	flat, room := strings.Index(out, "Flat share"), strings.Index(out, "Sunny room")
	if flat < 0 || room < 0 {
		t.Fatalf("expected both rent posts, got: %s", out)
	}
	if flat > room {
		t.Errorf("highlighted post should be listed first, got: %s", out)
	}
	if !strings.Contains(out, "$1,200/mo") {
		t.Errorf("expected formatted price, got: %s", out)
	}
}

func TestListEmptyBoard(t *testing.T) {
	db, _ := seedFile(t)

	out, err := runCLI(t, "--db", db, "list", "team")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Nothing on the Teams board yet") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestListRejectsUnknownKind(t *testing.T) {
	db, _ := seedFile(t)
	if _, err := runCLI(t, "--db", db, "list", "jobs"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestShowNotFound(t *testing.T) {
	db, seed := seedFile(t)
	if _, err := runCLI(t, "--db", db, "seed", seed); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "--db", db, "show", "forum", "missing")
	if err == nil || !strings.Contains(err.Error(), `no forum post with id "missing"`) {
		t.Errorf("expected not-found message, got %v", err)
	}
}

func TestLikeAndUnlike(t *testing.T) {
	db, seed := seedFile(t)
	if _, err := runCLI(t, "--db", db, "seed", seed); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--db", db, "like", "forum", "f1")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !strings.Contains(out, "f1 liked (2 likes)") {
		t.Errorf("unexpected like output: %s", out)
	}

	out, err = runCLI(t, "--db", db, "like", "forum", "f1")
	if err != nil {
		t.Fatalf("second like: %v", err)
	}
	if !strings.Contains(out, "already liked") {
		t.Errorf("expected no-op message, got: %s", out)
	}

	out, err = runCLI(t, "--db", db, "like", "--unlike", "forum", "f1")
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if !strings.Contains(out, "f1 not liked (1 like)") {
		t.Errorf("unexpected unlike output: %s", out)
	}
}

func TestSeedNeedsBolt(t *testing.T) {
	_, seed := seedFile(t)
	t.Setenv("CORKBOARD_BACKEND_URL", "https://abcd.supabase.co")

	_, err := runCLI(t, "seed", seed)
	if err == nil || !strings.Contains(err.Error(), "seed needs the bolt driver") {
		t.Errorf("expected driver error, got %v", err)
	}
}

func TestPrintCards(t *testing.T) {
	var buf bytes.Buffer
	printCards(&buf, listing.KindSecondhand, []listing.Card{
		{ID: "s1", Title: "Desk", Price: "$40", Flags: []string{"Sold"}, LikeCount: 1200, IsLiked: true},
	})

	out := buf.String()
	for _, want := range []string{"♥", "1,200", "Desk [Sold]", "s1 • $40"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestLikeCount(t *testing.T) {
	tests := map[int]string{0: "0 likes", 1: "1 like", 2: "2 likes", 1500: "1,500 likes"}
	for n, want := range tests {
		if got := likeCount(n); got != want {
			t.Errorf("likeCount(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestCategoriesCommand(t *testing.T) {
	out, err := runCLI(t, "categories", "forum")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected catalog entries, got: %s", out)
	}
	if !strings.HasPrefix(lines[len(lines)-1], "other") {
		t.Errorf("expected the fallback category last, got: %s", out)
	}

	catalog, err := listing.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	for i, slug := range catalog.Known(listing.KindForum) {
		if !strings.HasPrefix(lines[i], slug+" ") {
			t.Errorf("line %d = %q, want slug %q", i, lines[i], slug)
		}
	}
}

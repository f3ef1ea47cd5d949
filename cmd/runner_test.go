package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/client"
	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/repositories"
	"github.com/desertthunder/spotifycc/internal/seed"
	"github.com/desertthunder/spotifycc/internal/server"
	"github.com/desertthunder/spotifycc/internal/shared"
	tu "github.com/desertthunder/spotifycc/internal/testing"
)

// setupAPI serves a seeded SQLite catalog and returns its URL.
func setupAPI(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	logger := log.New(io.Discard)

	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	store := repositories.NewStore(db)
	t.Cleanup(func() { store.Close() })

	data, err := seed.Default()
	if err != nil {
		t.Fatalf("failed to load seed data: %v", err)
	}
	if _, err := seed.Seed(ctx, store, data, logger); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	srv := server.New(server.Options{Store: store, Config: shared.DefaultConfig(), Logger: logger})
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts.URL
}

// writeConfig writes a config pointing the client at baseURL and the database at a temp file.
func writeConfig(t *testing.T, baseURL string, userID int64) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[database]
driver = "sqlite"
path = %q

[provider]
kind = "none"

[client]
base_url = %q
user_id = %d
`, filepath.Join(dir, "cli.db"), baseURL, userID)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// run executes the CLI with args after the global --config flag.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output, Logger: log.New(io.Discard)})

	argv := append([]string{"spotifycc", "--config", configPath}, args...)
	err := runner.Command().Run(context.Background(), argv)
	return output.String(), err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := map[string]bool{}
		for _, cmd := range runner.register() {
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "serve", "seed", "health", "tracks", "search", "playlists", "history", "play"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("parseID", func(t *testing.T) {
		if id, err := parseID("42", "track-id"); err != nil || id != 42 {
			t.Errorf("parseID(42) = %d, %v", id, err)
		}
		if _, err := parseID("", "track-id"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		for _, bad := range []string{"abc", "0", "-3"} {
			if _, err := parseID(bad, "track-id"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("parseID(%q): expected ErrInvalidArgument, got %v", bad, err)
			}
		}
	})
}

func TestPlayerSession(t *testing.T) {
	config := shared.DefaultConfig()
	config.Playback.HistoryTimeoutSeconds = 60
	runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard)})

	recorder := tu.NewHistoryRecorder()
	recorder.Gate = make(chan struct{})
	session, stop := runner.playerSession(7, recorder, log.New(io.Discard))

	track := models.Track{ID: 1, Title: "Levitating", Artist: models.Artist{Name: "Dua Lipa"}}
	session.PlayTrack(track, nil)
	select {
	case <-recorder.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("history recording did not start")
	}

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stopping the player waited on an in-flight recording")
	}
	if recorder.Cancelled() != 1 || len(recorder.Entries()) != 0 {
		t.Errorf("expected the recording to be cancelled, got cancelled=%d entries=%d", recorder.Cancelled(), len(recorder.Entries()))
	}
}

func TestBefore(t *testing.T) {
	t.Run("missing config file falls back to defaults", func(t *testing.T) {
		out, err := run(t, filepath.Join(t.TempDir(), "absent.toml"), "setup", "config")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Config written to") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[provider]\nkind = \"napster\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := run(t, path, "health")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if _, err := run(t, path, "setup", "config"); err != nil {
			t.Fatalf("first setup failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		if _, err := run(t, path, "setup", "config"); err == nil {
			t.Error("expected error when config exists")
		}
	})

	t.Run("database migrates and rolls back", func(t *testing.T) {
		path := writeConfig(t, "http://127.0.0.1:1", 0)

		out, err := run(t, path, "setup", "database")
		if err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		if !strings.Contains(out, "is at migration 0") {
			t.Errorf("unexpected output %q", out)
		}

		if _, err := run(t, path, "setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if _, err := run(t, path, "setup", "rollback"); err == nil {
			t.Error("expected error with nothing to roll back")
		}
	})
}

func TestSeedCommand(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:1", 0)

	out, err := run(t, path, "seed")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	for _, want := range []string{"Seed data inserted", "Tracks:      12", "Playlists:   3 (12 entries)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}

	if _, err := run(t, path, "seed"); !errors.Is(err, shared.ErrConflict) {
		t.Errorf("expected ErrConflict on second seed, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "seed.toml")
	os.WriteFile(bad, []byte("[user"), 0644)
	if _, err := run(t, path, "seed", "--file", bad); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for a broken seed file, got %v", err)
	}
}

func TestLibraryCommands(t *testing.T) {
	baseURL := setupAPI(t)
	path := writeConfig(t, baseURL, 1)

	t.Run("health", func(t *testing.T) {
		out, err := run(t, path, "health")
		if err != nil || !strings.Contains(out, "is up") {
			t.Errorf("health = %q, %v", out, err)
		}
	})

	t.Run("health against a dead server", func(t *testing.T) {
		if _, err := run(t, writeConfig(t, "http://127.0.0.1:1", 0), "health"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("tracks as csv", func(t *testing.T) {
		out, err := run(t, path, "tracks", "--limit", "5", "--format", "csv")
		if err != nil {
			t.Fatalf("tracks failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 6 {
			t.Fatalf("expected header and 5 rows, got %d:\n%s", len(lines), out)
		}
		if !strings.HasPrefix(lines[1], "local:") {
			t.Errorf("expected local tracks, got %s", lines[1])
		}
	})

	t.Run("tracks with query", func(t *testing.T) {
		out, err := run(t, path, "tracks", "levitating")
		if err != nil || !strings.Contains(out, "1. Dua Lipa - Levitating [3:23]") {
			t.Errorf("tracks = %q, %v", out, err)
		}
	})

	t.Run("tracks rejects bad flags", func(t *testing.T) {
		if _, err := run(t, path, "tracks", "--limit", "0"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for limit, got %v", err)
		}
		if _, err := run(t, path, "tracks", "--format", "yaml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for format, got %v", err)
		}
	})

	t.Run("tracks to a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "tracks.md")
		out, err := run(t, path, "tracks", "--format", "markdown", "--output", file)
		if err != nil {
			t.Fatalf("tracks failed: %v", err)
		}
		if out != "" {
			t.Errorf("expected nothing on stdout, got %q", out)
		}
		if content := tu.MustReadFile(t, file); !strings.HasPrefix(content, "# Tracks\n") {
			t.Errorf("unexpected file content %q", content)
		}
	})

	t.Run("search", func(t *testing.T) {
		out, err := run(t, path, "search", "dawn")
		if err != nil || !strings.Contains(out, "- Dawn FM by The Weeknd (2022)") {
			t.Errorf("search = %q, %v", out, err)
		}

		if _, err := run(t, path, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("playlists", func(t *testing.T) {
		out, err := run(t, path, "playlists", "list")
		if err != nil || !strings.Contains(out, "Focus Flow by Core Listener, 4 tracks") {
			t.Errorf("list = %q, %v", out, err)
		}

		out, err = run(t, path, "playlists", "create", "--description", "Highway songs", "Road Trip")
		if err != nil || !strings.Contains(out, "✓ Created playlist [4] Road Trip") {
			t.Fatalf("create = %q, %v", out, err)
		}

		out, err = run(t, path, "playlists", "add", "4", "1")
		if err != nil || !strings.Contains(out, "to playlist 4 at position 1") {
			t.Errorf("add = %q, %v", out, err)
		}
		out, err = run(t, path, "playlists", "add", "4", "2")
		if err != nil || !strings.Contains(out, "at position 2") {
			t.Errorf("second add = %q, %v", out, err)
		}

		if _, err := run(t, path, "playlists", "add", "4", "1"); !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict for duplicate, got %v", err)
		}
		if _, err := run(t, path, "playlists", "add", "999", "1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown playlist, got %v", err)
		}
		if _, err := run(t, path, "playlists", "add", "four", "1"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := run(t, path, "playlists", "create"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		out, err = run(t, path, "playlists", "show", "--format", "markdown", "1")
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.HasPrefix(out, "# Today's Vibes\n") || !strings.Contains(out, "1. Dua Lipa - Levitating") {
			t.Errorf("unexpected show output:\n%s", out)
		}
	})

	t.Run("playlists export", func(t *testing.T) {
		dir := t.TempDir()
		out, err := run(t, path, "playlists", "export", "--dir", dir, "--id", "1", "--id", "999")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(out, "Exported: 1/2") || !strings.Contains(out, "[999] Unknown (999)") {
			t.Errorf("unexpected export output:\n%s", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "1-today-s-vibes.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		if _, err := run(t, path, "playlists", "export", "--dir", dir, "--id", "x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("history", func(t *testing.T) {
		out, err := run(t, path, "history")
		if err != nil || out != "Nothing played yet.\n" {
			t.Fatalf("history = %q, %v", out, err)
		}

		api := client.New(baseURL, nil, 1)
		entry := models.HistoryEntry{TrackTitle: "Levitating", TrackArtist: "Dua Lipa"}
		if err := api.RecordPlay(context.Background(), &entry); err != nil {
			t.Fatalf("failed to record play: %v", err)
		}

		out, err = run(t, path, "history", "--format", "csv")
		if err != nil || !strings.Contains(out, ",Levitating,Dua Lipa,") {
			t.Errorf("history = %q, %v", out, err)
		}

		out, err = run(t, writeConfig(t, baseURL, 0), "history")
		if err != nil || out != "Nothing played yet.\n" {
			t.Errorf("anonymous history = %q, %v", out, err)
		}
	})
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcher_Batches(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "site.yaml")
	contentRoot := filepath.Join(dir, "docs")
	if err := os.MkdirAll(contentRoot, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configFile, []byte("title: Flags\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(configFile, contentRoot, 50*time.Millisecond, zerolog.New(nil).Level(zerolog.Disabled))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan ChangeSet, 10)
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx, func(_ context.Context, batch ChangeSet) {
			batches <- batch
		})
	}()

	// Give the watcher time to register.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("title: Flags 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(contentRoot, "toggle.md"), []byte("# Toggle\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(contentRoot, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	seen := ChangeSet{}
	deadline := time.After(5 * time.Second)
	for !(seen.Has(TriggerConfig) && seen.Has(TriggerContent)) {
		select {
		case batch := <-batches:
			seen.Triggers = append(seen.Triggers, batch.Triggers...)
			seen.Paths = append(seen.Paths, batch.Paths...)
		case <-deadline:
			t.Fatalf("timed out waiting for changes, saw %+v", seen)
		}
	}

	for _, p := range seen.Paths {
		if filepath.Ext(p) == ".txt" {
			t.Errorf("unexpected non-markdown path %s", p)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "site.cue")
	contentRoot := filepath.Join(dir, "docs")
	if err := os.MkdirAll(contentRoot, 0755); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(configFile, contentRoot, 50*time.Millisecond, zerolog.New(nil).Level(zerolog.Disabled))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan ChangeSet, 10)
	go func() {
		_ = w.Run(ctx, func(_ context.Context, batch ChangeSet) {
			batches <- batch
		})
	}()
	time.Sleep(200 * time.Millisecond)

	sub := filepath.Join(contentRoot, "guide")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "intro.md"), []byte("# Intro\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case batch := <-batches:
		if !batch.Has(TriggerContent) {
			t.Errorf("expected content trigger, got %+v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change in new directory")
	}
}

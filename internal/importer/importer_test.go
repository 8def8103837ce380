package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/omoide/internal/embedding"
	"github.com/hyperjump/omoide/internal/storage"
)

func newImporter(t *testing.T) (*Importer, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	imp := NewImporter(store, embedding.NewHashEmbedder(0, 0), "shared-user", nil)
	return imp, store
}

func writeNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportFile(t *testing.T) {
	imp, store := newImporter(t)
	ctx := context.Background()

	path := writeNote(t, t.TempDir(), "japan-trip.md", "Visit Tokyo in spring.")
	if err := imp.ImportFile(ctx, path); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	m, err := store.GetMemory(ctx, MemoryID(path))
	if err != nil {
		t.Fatalf("memory not created: %v", err)
	}
	if m.Title != "japan-trip" {
		t.Errorf("title should be the file stem, got %q", m.Title)
	}
	if m.Content != "Visit Tokyo in spring." {
		t.Errorf("unexpected content %q", m.Content)
	}
	if m.Type != "note" {
		t.Errorf("imported files are notes, got %q", m.Type)
	}
	if len(m.Embedding) == 0 {
		t.Error("imported memory should carry an embedding")
	}
}

func TestImportFileIdempotent(t *testing.T) {
	imp, store := newImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeNote(t, dir, "note.txt", "first version")
	if err := imp.ImportFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	writeNote(t, dir, "note.txt", "second version")
	if err := imp.ImportFile(ctx, path); err != nil {
		t.Fatal(err)
	}

	count, err := store.CountMemories(ctx, "shared-user")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("re-import must update in place, got %d memories", count)
	}
	m, _ := store.GetMemory(ctx, MemoryID(path))
	if m.Content != "second version" {
		t.Errorf("content not updated: %q", m.Content)
	}
}

func TestImportFileSkipsEmpty(t *testing.T) {
	imp, store := newImporter(t)
	ctx := context.Background()

	path := writeNote(t, t.TempDir(), "empty.md", "   \n  ")
	if err := imp.ImportFile(ctx, path); err != nil {
		t.Fatalf("empty files should be skipped without error: %v", err)
	}
	count, _ := store.CountMemories(ctx, "shared-user")
	if count != 0 {
		t.Errorf("empty file should create nothing, got %d", count)
	}
}

func TestRemoveFile(t *testing.T) {
	imp, store := newImporter(t)
	ctx := context.Background()

	path := writeNote(t, t.TempDir(), "gone.md", "soon deleted")
	if err := imp.ImportFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := imp.RemoveFile(ctx, path); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := store.GetMemory(ctx, MemoryID(path)); err != storage.ErrNotFound {
		t.Errorf("memory should be gone, got %v", err)
	}

	// Removing a never-imported file is a no-op.
	if err := imp.RemoveFile(ctx, filepath.Join(t.TempDir(), "never.md")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWatcherSyncsExistingFiles(t *testing.T) {
	imp, store := newImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	writeNote(t, dir, "a.md", "alpha")
	writeNote(t, dir, "b.txt", "beta")
	writeNote(t, dir, "ignored.pdf", "binary-ish")

	w := NewWatcher(dir, []string{".md", "txt"}, imp, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	count, err := store.CountMemories(ctx, "shared-user")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 imported files, got %d", count)
	}
}

func TestWatcherStopWhileRunning(t *testing.T) {
	imp, _ := newImporter(t)
	dir := t.TempDir()

	w := NewWatcher(dir, []string{"md"}, imp, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	// Generate an event so the loop is live, then stop immediately. The
	// loop must drain its own watcher reference without touching the
	// field Stop clears.
	writeNote(t, dir, "live.md", "written while watching")
	w.Stop()
	w.Stop()
}

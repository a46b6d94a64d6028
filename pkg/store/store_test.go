package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

func newModel(t *testing.T, name string) *Model {
	t.Helper()
	s := scene.Default()
	s.Name = name
	o, err := s.Outline()
	if err != nil {
		t.Fatal(err)
	}
	pl, err := transform.Evaluate(o, s.Transform)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, pl, "hash-"+name)
}

// exerciseStore runs the Store contract against any backend.
func exerciseStore(t *testing.T, st Store) {
	ctx := context.Background()

	older := newModel(t, "older")
	older.CreatedAt = time.Now().Add(-time.Hour).UTC()
	newer := newModel(t, "newer")

	for _, m := range []*Model{older, newer} {
		if err := st.Save(ctx, m); err != nil {
			t.Fatalf("Save(%s): %v", m.Name, err)
		}
	}

	got, err := st.Get(ctx, newer.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "newer" || got.SceneHash != "hash-newer" {
		t.Errorf("Get = %+v", got)
	}
	if got.Placement.Centroid != newer.Placement.Centroid {
		t.Errorf("centroid = %v, want %v", got.Placement.Centroid, newer.Placement.Centroid)
	}
	if len(got.Scene.Transform) != 3 {
		t.Errorf("transform not preserved: %v", got.Scene.Transform)
	}

	list, err := st.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) < 2 || list[0].ID != newer.ID {
		t.Errorf("List should return newest first, got %d models", len(list))
	}
	if limited, _ := st.List(ctx, ListOptions{Limit: 1}); len(limited) != 1 {
		t.Errorf("List(limit 1) returned %d", len(limited))
	}

	// Save replaces.
	older.Name = "renamed"
	if err := st.Save(ctx, older); err != nil {
		t.Fatal(err)
	}
	if got, _ := st.Get(ctx, older.ID); got == nil || got.Name != "renamed" {
		t.Errorf("Save did not replace: %+v", got)
	}

	for _, m := range []*Model{older, newer} {
		if err := st.Delete(ctx, m.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	}
	if _, err := st.Get(ctx, newer.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get after Delete = %v, want NOT_FOUND", err)
	}
	if err := st.Delete(ctx, newer.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second Delete = %v, want NOT_FOUND", err)
	}
	if _, err := st.Get(ctx, "../etc/passwd"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Get(bad id) = %v, want INVALID_INPUT", err)
	}
}

func TestFileStore(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	exerciseStore(t, st)
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(context.Background(), newModel(t, "ok")); err != nil {
		t.Fatal(err)
	}
	list, err := st.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("List returned %d models, want 1", len(list))
	}
}

func TestSaveValidates(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := newModel(t, "x")
	m.ID = "not-a-uuid"
	if err := st.Save(context.Background(), m); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save(bad id) = %v", err)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg-config", "scadkit", "models"); dir != want {
		t.Errorf("DefaultDir = %q, want %q", dir, want)
	}
}

func TestNewModel(t *testing.T) {
	m := newModel(t, "tile")
	if err := errors.ValidateModelID(m.ID); err != nil {
		t.Errorf("generated id invalid: %v", err)
	}
	if m.Name != "tile" || m.CreatedAt.IsZero() {
		t.Errorf("NewModel = %+v", m)
	}
	if newModel(t, "tile").ID == m.ID {
		t.Error("ids should be unique")
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		t.Skip(EnvMongoURI + " not set")
	}
	ctx := context.Background()
	st, err := NewMongoStore(ctx, uri, "scadkit_test")
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer st.Close()
	exerciseStore(t, st)
}

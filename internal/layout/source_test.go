package layout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const hallPayload = `{"name":"Main Hall","objects":[{"type":"wall","x":500,"y":500,"width":400,"height":20}]}`

func TestFileSource_ListAndFetch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hall.json"), []byte(hallPayload), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "annex.json"), []byte(`{"objects":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(dir)
	list, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(list), list)
	}
	if list[0].ID != "annex" || list[0].Name != "annex" {
		t.Fatalf("expected annex named by id, got %+v", list[0])
	}
	if list[1].ID != "hall" || list[1].Name != "Main Hall" {
		t.Fatalf("expected hall named from payload, got %+v", list[1])
	}

	data, err := src.Fetch(context.Background(), "hall")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != hallPayload {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestFileSource_MissingAndEscaping(t *testing.T) {
	src := NewFileSource(t.TempDir())
	for _, id := range []string{"nope", "../etc/passwd", ""} {
		_, err := src.Fetch(context.Background(), id)
		if !IsFetchError(err) {
			t.Fatalf("%q: expected FetchError, got %v", id, err)
		}
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("%q: expected ErrNotFound, got %v", id, err)
		}
	}
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "missing")).List(context.Background()); !IsFetchError(err) {
		t.Fatalf("expected list FetchError for missing dir, got %v", err)
	}
}

func TestHTTPSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/layouts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"hall","name":"Main Hall"}]`))
	})
	mux.HandleFunc("/api/layouts/hall", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hallPayload))
	})
	mux.HandleFunc("/api/layouts/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/api/", srv.Client())
	list, err := src.List(context.Background())
	if err != nil || len(list) != 1 || list[0].Name != "Main Hall" {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	data, err := src.Fetch(context.Background(), "hall")
	if err != nil || string(data) != hallPayload {
		t.Fatalf("unexpected fetch %q err=%v", data, err)
	}
	if _, err := src.Fetch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := src.Fetch(context.Background(), "broken"); !IsFetchError(err) || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected non-404 FetchError, got %v", err)
	}
}

func TestHTTPSource_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hallPayload))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPSource(srv.URL, srv.Client()).Fetch(ctx, "hall")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSQLiteSource(t *testing.T) {
	ctx := context.Background()
	src, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "db", "layouts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	if err := src.Put(ctx, "hall", "Main Hall", []byte(hallPayload)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := src.Put(ctx, "hall", "Main Hall (v2)", []byte(hallPayload)); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	list, err := src.List(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "Main Hall (v2)" {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	data, err := src.Fetch(ctx, "hall")
	if err != nil || string(data) != hallPayload {
		t.Fatalf("unexpected fetch %q err=%v", data, err)
	}
	if _, err := src.Fetch(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

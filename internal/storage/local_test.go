package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLocalStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(root, "uploads"), filepath.Join(root, "thumbnails"))
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	return s, root
}

func TestLocalStoragePutOpenRemove(t *testing.T) {
	ctx := context.Background()
	s, root := newTestLocalStorage(t)

	if err := s.Put(ctx, KindVideo, "abc.mp4", strings.NewReader("video-bytes"), 11, "video/mp4"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "uploads", "abc.mp4")); err != nil {
		t.Fatalf("file should exist on disk: %v", err)
	}

	obj, err := s.Open(ctx, KindVideo, "abc.mp4")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "video-bytes" || obj.Size != 11 {
		t.Fatalf("unexpected object: %q size=%d", data, obj.Size)
	}
	if obj.ContentType != "video/mp4" {
		t.Fatalf("content type = %q", obj.ContentType)
	}

	if err := s.Remove(ctx, KindVideo, "abc.mp4"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Open(ctx, KindVideo, "abc.mp4"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	// 重复删除不报错
	if err := s.Remove(ctx, KindVideo, "abc.mp4"); err != nil {
		t.Fatalf("remove missing file: %v", err)
	}
}

func TestLocalStorageKindsAreSeparate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestLocalStorage(t)

	if err := s.Put(ctx, KindThumbnail, "abc.jpg", strings.NewReader("jpg"), 3, "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Open(ctx, KindVideo, "abc.jpg"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("thumbnail must not be visible as video, got %v", err)
	}
}

func TestLocalStorageRejectsPathNames(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestLocalStorage(t)

	for _, name := range []string{"", "..", "../secret", "a/b.mp4", `a\b.mp4`} {
		if _, err := s.Open(ctx, KindVideo, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Open(%q) = %v, want ErrInvalidName", name, err)
		}
	}
	if err := s.Put(ctx, Kind("other"), "x.mp4", strings.NewReader(""), 0, ""); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

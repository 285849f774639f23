package blob

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLocalStorePutSniffsAndMeasures(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "https://shop.example.com/uploads/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	obj, err := store.Put(context.Background(), pngBytes(t, 4, 3), "image/jpeg")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Format != "png" || obj.Width != 4 || obj.Height != 3 {
		t.Fatalf("unexpected object %+v", obj)
	}
	if obj.URL != "https://shop.example.com/uploads/"+obj.Handle {
		t.Fatalf("unexpected url %q", obj.URL)
	}
	if _, err := os.Stat(filepath.Join(dir, obj.Handle)); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	if err := store.Delete(context.Background(), obj.Handle); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, obj.Handle)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
	if err := store.Delete(context.Background(), obj.Handle); err != nil {
		t.Fatalf("deleting a missing file should succeed: %v", err)
	}
}

func TestLocalStoreRejectsNonImages(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, err = store.Put(context.Background(), []byte("%PDF-1.4 not an image"), "image/png")
	var unsupported *UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}

	_, err = store.Put(context.Background(), make([]byte, MaxImageSize+1), "")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestLocalStoreDeleteRefusesTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, handle := range []string{"../secret.png", "nested/dir/file.png", "/"} {
		if err := store.Delete(context.Background(), handle); err == nil {
			t.Fatalf("expected refusal for %q", handle)
		}
	}
}

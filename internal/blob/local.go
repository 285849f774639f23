package blob

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes images under dir and serves them below urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: filepath.Clean(dir), urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Put(_ context.Context, data []byte, mime string) (Object, error) {
	sniffed, format, err := Sniff(data)
	if err != nil {
		return Object{}, err
	}
	if mime != "" && mime != sniffed {
		log.Printf("[UPLOAD] [WARN] declared type %s, stored as %s", mime, sniffed)
	}

	handle := uuid.NewString() + "." + format
	fullPath := filepath.Join(s.dir, handle)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		log.Printf("[UPLOAD] [ERROR] write %s: %v", fullPath, err)
		return Object{}, err
	}

	width, height := dimensions(data)
	log.Printf("[UPLOAD] [INFO] stored %s (%s, %dx%d)", handle, sniffed, width, height)
	return Object{
		URL:    s.urlPrefix + "/" + handle,
		Handle: handle,
		Width:  width,
		Height: height,
		Format: format,
	}, nil
}

// Delete removes a stored image. Handles that escape the upload directory are
// refused; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, handle string) error {
	trimmed := strings.TrimSpace(handle)
	if trimmed == "" {
		return nil
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+trimmed), "/")
	if cleanRel == "" || cleanRel != trimmed || strings.ContainsAny(cleanRel, `/\`) {
		return fmt.Errorf("refusing to delete path outside upload dir: %s", handle)
	}

	target := filepath.Join(s.dir, cleanRel)
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

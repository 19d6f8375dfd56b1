package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Object prefixes for the three kinds of uploads.
const (
	PrefixLogos      = "logos"
	PrefixSignatures = "signatures"
	PrefixItems      = "items"
)

// LocalStore writes uploaded files below a base directory and returns
// references of the form "<prefix>/<name>".
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	for _, dir := range []string{PrefixLogos, PrefixSignatures, PrefixItems} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", dir, err)
		}
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save stores an uploaded file under prefix and returns its reference.
// Only image uploads are accepted; the content type is sniffed, not trusted
// from the request.
func (s *LocalStore) Save(prefix string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if ct := http.DetectContentType(head[:n]); !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("unsupported upload type %s", ct)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(s.baseDir, prefix, name))
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return prefix + "/" + name, nil
}

package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalPathPrefix is the URL path under which local photos are served.
const LocalPathPrefix = "/media/"

// LocalUploader writes photos to a directory and serves them over HTTP.
type LocalUploader struct {
	basePath  string // absolute
	publicURL string // e.g. http://localhost:8080, no trailing slash
}

// Ensure LocalUploader implements Uploader
var _ Uploader = (*LocalUploader)(nil)

// NewLocalUploader creates dir if needed. publicURL is the externally
// reachable origin of the server, used to build returned URLs.
func NewLocalUploader(dir, publicURL string) (*LocalUploader, error) {
	absBase, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid media directory '%s': %w", dir, err)
	}
	if err := os.MkdirAll(absBase, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory '%s': %w", absBase, err)
	}

	slog.Info("Local media storage initialized", "path", absBase)
	return &LocalUploader{
		basePath:  absBase,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload prepares the photo and stores it under a random name.
func (u *LocalUploader) Upload(ctx context.Context, blob Blob) (url string, err error) {
	defer func() { observeUpload("local", err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	prepared, err := Prepare(blob)
	if err != nil {
		return "", err
	}

	name := uuid.New().String() + preparedExt
	fullPath := filepath.Join(u.basePath, name)

	if err := os.WriteFile(fullPath, prepared.Data, 0644); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write photo '%s': %w", fullPath, err)
	}

	slog.Info("Photo uploaded", "host", "local", "file", name)
	return u.publicURL + LocalPathPrefix + name, nil
}

// Handler serves stored photos. Mount it at LocalPathPrefix.
// Directory listings are not served.
func (u *LocalUploader) Handler() http.Handler {
	files := http.StripPrefix(LocalPathPrefix, http.FileServer(http.Dir(u.basePath)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

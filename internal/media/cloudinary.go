package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"time"
)

const (
	cloudinaryAPI = "https://api.cloudinary.com/v1_1"

	// Cloudinary error bodies are short JSON documents; anything longer is truncated in errors.
	maxErrorBody = 1 << 10
)

// CloudinaryConfig is the unsigned-preset configuration of a Cloudinary account.
type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string

	// Folder is optional. When empty the preset's folder applies.
	Folder string

	// BaseURL overrides the API root. Used by tests.
	BaseURL string

	Timeout time.Duration
}

// CloudinaryUploader posts photos to Cloudinary's unsigned upload endpoint.
type CloudinaryUploader struct {
	cfg    CloudinaryConfig
	url    string
	client *http.Client
}

// Ensure CloudinaryUploader implements Uploader
var _ Uploader = (*CloudinaryUploader)(nil)

// NewCloudinaryUploader validates cfg and builds an uploader.
func NewCloudinaryUploader(cfg CloudinaryConfig) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" {
		return nil, fmt.Errorf("cloudinary: cloud name is required")
	}
	if cfg.UploadPreset == "" {
		return nil, fmt.Errorf("cloudinary: upload preset is required")
	}

	base := cfg.BaseURL
	if base == "" {
		base = cloudinaryAPI
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &CloudinaryUploader{
		cfg:    cfg,
		url:    fmt.Sprintf("%s/%s/image/upload", base, cfg.CloudName),
		client: &http.Client{Timeout: timeout},
	}, nil
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload prepares the photo and posts it as multipart form data with the
// configured upload preset. It returns the secure_url of the stored asset.
func (u *CloudinaryUploader) Upload(ctx context.Context, blob Blob) (url string, err error) {
	defer func() { observeUpload("cloudinary", err) }()

	prepared, err := Prepare(blob)
	switch {
	case errors.Is(err, ErrNotImage):
		// Cloudinary transcodes formats we cannot decode (HEIC and friends).
		slog.Debug("Sending photo to Cloudinary unprepared", "filename", blob.Filename, "reason", err)
		prepared = rawBlob(blob)
	case err != nil:
		return "", err
	}

	body, contentType, err := u.form(prepared)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	slog.Debug("Uploading photo to Cloudinary", "cloud", u.cfg.CloudName, "size", len(prepared.Data))

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("cloudinary upload failed: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode cloudinary response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("cloudinary upload failed: %s", out.Error.Message)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response has no secure_url")
	}

	slog.Info("Photo uploaded", "host", "cloudinary", "public_id", out.PublicID)
	return out.SecureURL, nil
}

// rawBlob fills in what the multipart part needs for a blob sent as is.
func rawBlob(blob Blob) Blob {
	blob.Filename = filepath.Base(blob.Filename)
	if blob.Filename == "." || blob.Filename == string(filepath.Separator) {
		blob.Filename = "photo"
	}
	if blob.ContentType == "" {
		blob.ContentType = http.DetectContentType(blob.Data)
	}
	return blob
}

func (u *CloudinaryUploader) form(blob Blob) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, blob.Filename))
	h.Set("Content-Type", blob.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(blob.Data); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}

	if err := w.WriteField("upload_preset", u.cfg.UploadPreset); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if u.cfg.Folder != "" {
		if err := w.WriteField("folder", u.cfg.Folder); err != nil {
			return nil, "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

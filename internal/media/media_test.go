package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBlob(t *testing.T, w, h int) Blob {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Blob{Filename: "avatar.png", ContentType: "image/png", Data: buf.Bytes()}
}

// webpBlob is a 1x1 lossless WebP.
func webpBlob(t *testing.T) Blob {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString("UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA==")
	require.NoError(t, err)
	return Blob{Filename: "selfie.webp", ContentType: "image/webp", Data: data}
}

// heicBlob starts like an HEIC file but carries no decodable image.
func heicBlob() Blob {
	data := append([]byte{0, 0, 0, 0x18}, []byte("ftypheic\x00\x00\x00\x00mif1heic")...)
	return Blob{Filename: "IMG_0001.HEIC", Data: data}
}

// cloudinaryStub records the file part of every upload it receives.
type cloudinaryStub struct {
	hits        int
	filename    string
	contentType string
	data        []byte
}

func (s *cloudinaryStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits++
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		s.filename = header.Filename
		s.contentType = header.Header.Get("Content-Type")
		s.data, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"public_id":"p","secure_url":"https://res.example/p"}`)
	})
}

func TestPrepare(t *testing.T) {
	t.Run("downscales large photos", func(t *testing.T) {
		out, err := Prepare(pngBlob(t, MaxEdge*2, MaxEdge))
		require.NoError(t, err)
		assert.Equal(t, "avatar.jpg", out.Filename)
		assert.Equal(t, "image/jpeg", out.ContentType)

		img, err := imaging.Decode(bytes.NewReader(out.Data))
		require.NoError(t, err)
		assert.Equal(t, MaxEdge, img.Bounds().Dx())
		assert.Equal(t, MaxEdge/2, img.Bounds().Dy())
	})

	t.Run("keeps small photos at size", func(t *testing.T) {
		out, err := Prepare(pngBlob(t, 40, 30))
		require.NoError(t, err)

		img, err := imaging.Decode(bytes.NewReader(out.Data))
		require.NoError(t, err)
		assert.Equal(t, 40, img.Bounds().Dx())
		assert.Equal(t, 30, img.Bounds().Dy())
	})

	t.Run("decodes webp", func(t *testing.T) {
		out, err := Prepare(webpBlob(t))
		require.NoError(t, err)
		assert.Equal(t, "selfie.jpg", out.Filename)

		img, err := imaging.Decode(bytes.NewReader(out.Data))
		require.NoError(t, err)
		assert.Equal(t, 1, img.Bounds().Dx())
	})

	t.Run("rejects empty and garbage input", func(t *testing.T) {
		_, err := Prepare(Blob{})
		assert.ErrorIs(t, err, ErrEmptyBlob)

		_, err = Prepare(Blob{Data: []byte("definitely not a jpeg")})
		assert.ErrorIs(t, err, ErrNotImage)
	})
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "photo.jpg", jpegName(""))
	assert.Equal(t, "me.jpg", jpegName("me.HEIC"))
	assert.Equal(t, "me.jpg", jpegName("../../me.png"))
	assert.Equal(t, "noext.jpg", jpegName("noext"))
}

func TestCloudinaryUploader(t *testing.T) {
	var gotPreset, gotFolder, gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/image/upload" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotPreset = r.FormValue("upload_preset")
		gotFolder = r.FormValue("folder")
		_, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"public_id":"peeps/abc","secure_url":"https://res.example/peeps/abc.jpg"}`)
	}))
	defer srv.Close()

	u, err := NewCloudinaryUploader(CloudinaryConfig{
		CloudName:    "demo",
		UploadPreset: "unsigned_peeps",
		Folder:       "peeps",
		BaseURL:      srv.URL,
	})
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), pngBlob(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/peeps/abc.jpg", url)
	assert.Equal(t, "unsigned_peeps", gotPreset)
	assert.Equal(t, "peeps", gotFolder)
	assert.Equal(t, "avatar.jpg", gotFilename)
}

func TestCloudinaryUploader_WebP(t *testing.T) {
	stub := &cloudinaryStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	u, err := NewCloudinaryUploader(CloudinaryConfig{CloudName: "demo", UploadPreset: "p", BaseURL: srv.URL})
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), webpBlob(t))
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/p", url)
	assert.Equal(t, 1, stub.hits)
	assert.Equal(t, "selfie.jpg", stub.filename)
	assert.Equal(t, "image/jpeg", stub.contentType)
}

func TestCloudinaryUploader_UndecodableSentAsIs(t *testing.T) {
	stub := &cloudinaryStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	u, err := NewCloudinaryUploader(CloudinaryConfig{CloudName: "demo", UploadPreset: "p", BaseURL: srv.URL})
	require.NoError(t, err)

	blob := heicBlob()
	url, err := u.Upload(context.Background(), blob)
	require.NoError(t, err)
	assert.Equal(t, "https://res.example/p", url)
	assert.Equal(t, 1, stub.hits)
	assert.Equal(t, "IMG_0001.HEIC", stub.filename)
	assert.NotEmpty(t, stub.contentType)
	assert.Equal(t, blob.Data, stub.data)

	// Empty blobs never leave the process.
	_, err = u.Upload(context.Background(), Blob{Filename: "x.png"})
	assert.ErrorIs(t, err, ErrEmptyBlob)
	assert.Equal(t, 1, stub.hits)
}

func TestCloudinaryUploader_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"Upload preset not found"}}`)
	}))
	defer srv.Close()

	u, err := NewCloudinaryUploader(CloudinaryConfig{CloudName: "demo", UploadPreset: "nope", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), pngBlob(t, 10, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")

	_, err = NewCloudinaryUploader(CloudinaryConfig{UploadPreset: "x"})
	assert.Error(t, err)
	_, err = NewCloudinaryUploader(CloudinaryConfig{CloudName: "x"})
	assert.Error(t, err)
}

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), pngBlob(t, 20, 20))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/media/"), url)
	require.True(t, strings.HasSuffix(url, ".jpg"), url)

	name := strings.TrimPrefix(url, "http://localhost:8080/media/")
	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	srv := httptest.NewServer(u.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + LocalPathPrefix + name)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	listing, err := http.Get(srv.URL + LocalPathPrefix)
	require.NoError(t, err)
	listing.Body.Close()
	assert.Equal(t, http.StatusNotFound, listing.StatusCode)
}

func TestLocalUploader_RejectsUndecodable(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "http://localhost:8080")
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), heicBlob())
	assert.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalUploader_CanceledContext(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Upload(ctx, pngBlob(t, 5, 5))
	assert.ErrorIs(t, err, context.Canceled)
}

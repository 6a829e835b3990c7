package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/mypeeps/internal/auth"
	"github.com/mmynk/mypeeps/internal/catalog"
	"github.com/mmynk/mypeeps/internal/media"
	"github.com/mmynk/mypeeps/internal/middleware"
	"github.com/mmynk/mypeeps/internal/storage/sqlite"
	"github.com/mmynk/mypeeps/pkg/api"
	"github.com/mmynk/mypeeps/pkg/api/apiconnect"
)

const testSecret = "service-test-secret"

type testEnv struct {
	people  apiconnect.PeopleServiceClient
	groups  apiconnect.GroupServiceClient
	store   *sqlite.SQLiteStore
	jwt     *auth.JWTManager
	uploads *switchUploader
}

// switchUploader stores photos on local disk unless fail is set.
type switchUploader struct {
	local *media.LocalUploader
	fail  bool
}

func (u *switchUploader) Upload(ctx context.Context, blob media.Blob) (string, error) {
	if u.fail {
		return "", errors.New("media host rejected the upload")
	}
	return u.local.Upload(ctx, blob)
}

// setupTestServer starts both services behind the auth interceptor on a
// temp SQLite store.
func setupTestServer(t *testing.T) (*testEnv, func()) {
	t.Helper()

	dir := t.TempDir()
	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	local, err := media.NewLocalUploader(filepath.Join(dir, "media"), "http://media.test")
	if err != nil {
		store.Close()
		t.Fatalf("failed to create uploader: %v", err)
	}
	uploads := &switchUploader{local: local}

	jwtManager := auth.NewJWTManager(testSecret, time.Hour, "")
	cat := catalog.New(store, uploads)

	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(nil),
		middleware.RequireAuth(jwtManager),
	)
	peoplePath, peopleHandler := apiconnect.NewPeopleServiceHandler(NewPeopleService(cat), interceptors)
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(cat), interceptors)

	mux := http.NewServeMux()
	mux.Handle(peoplePath, peopleHandler)
	mux.Handle(groupPath, groupHandler)

	server := httptest.NewServer(mux)

	env := &testEnv{
		people:  apiconnect.NewPeopleServiceClient(http.DefaultClient, server.URL),
		groups:  apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		store:   store,
		jwt:     jwtManager,
		uploads: uploads,
	}

	cleanup := func() {
		server.Close()
		store.Close()
	}

	return env, cleanup
}

// as wraps msg in a request authenticated as userID.
func as[T any](t *testing.T, env *testEnv, userID string, msg *T) *connect.Request[T] {
	t.Helper()
	token, err := env.jwt.Generate(userID, userID+"@example.com")
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got success", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected %v, got %v (%v)", want, got, err)
	}
}

func testImage(t *testing.T) *api.Image {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return &api.Image{Filename: "face.png", ContentType: "image/png", Data: buf.Bytes()}
}

package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/mypeeps/internal/auth"
	"github.com/mmynk/mypeeps/internal/catalog"
	"github.com/mmynk/mypeeps/internal/config"
	"github.com/mmynk/mypeeps/internal/media"
	"github.com/mmynk/mypeeps/internal/middleware"
	"github.com/mmynk/mypeeps/internal/storage/memory"
	"github.com/mmynk/mypeeps/pkg/api"
	"github.com/mmynk/mypeeps/pkg/api/apiconnect"
)

const mediaOrigin = "http://media.test"

type testServer struct {
	url    string
	jwt    *auth.JWTManager
	people apiconnect.PeopleServiceClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwtManager := auth.NewJWTManager("router-secret", time.Hour, "")
	reg := prometheus.NewRegistry()

	local, err := media.NewLocalUploader(t.TempDir(), mediaOrigin)
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(routerDeps{
		catalog:      catalog.New(memory.New(), local),
		jwt:          jwtManager,
		metrics:      middleware.NewMetrics(reg),
		gatherer:     reg,
		mediaHandler: local.Handler(),
		corsOrigins:  []string{"https://app.example"},
	}))
	t.Cleanup(srv.Close)

	return &testServer{
		url:    srv.URL,
		jwt:    jwtManager,
		people: apiconnect.NewPeopleServiceClient(srv.Client(), srv.URL),
	}
}

func (s *testServer) authed(t *testing.T, req connect.AnyRequest) {
	t.Helper()
	token, err := s.jwt.Generate("alice", "alice@example.com")
	require.NoError(t, err)
	req.Header().Set("Authorization", "Bearer "+token)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.url + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestRouter_PhotoRoundTripAndMetrics(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	req := connect.NewRequest(&api.CreatePersonRequest{
		Name:  "Alice",
		Image: &api.Image{Filename: "a.png", ContentType: "image/png", Data: buf.Bytes()},
	})
	s.authed(t, req)
	created, err := s.people.CreatePerson(context.Background(), req)
	require.NoError(t, err)

	imageURL := created.Msg.Person.ImageUrl
	require.True(t, strings.HasPrefix(imageURL, mediaOrigin+media.LocalPathPrefix), imageURL)

	photo, err := http.Get(s.url + strings.TrimPrefix(imageURL, mediaOrigin))
	require.NoError(t, err)
	defer photo.Body.Close()
	assert.Equal(t, http.StatusOK, photo.StatusCode)

	// An unauthenticated call still shows up in the metrics.
	_, err = s.people.ListPersons(context.Background(), connect.NewRequest(&api.ListPersonsRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	metrics, err := http.Get(s.url + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, _ := io.ReadAll(metrics.Body)

	assert.Contains(t, string(body), `mypeeps_rpc_requests_total{code="ok",procedure="/mypeeps.v1.PeopleService/CreatePerson"} 1`)
	assert.Contains(t, string(body), `mypeeps_rpc_requests_total{code="unauthenticated",procedure="/mypeeps.v1.PeopleService/ListPersons"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, s.url+apiconnect.PeopleServiceListPersonsProcedure, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_MediaDirectoryListingHidden(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.url + media.LocalPathPrefix)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(context.Background(), config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = openStore(context.Background(), config.StoreConfig{
		Driver: config.DriverSQLite,
		Path:   t.TempDir() + "/nested/peeps.db",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = openStore(context.Background(), config.StoreConfig{Driver: "etcd"})
	assert.Error(t, err)
}

func TestOpenUploader(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{PublicURL: "http://localhost:8080"},
		Media:  config.MediaConfig{Driver: config.MediaLocal, Dir: t.TempDir()},
	}
	u, h, err := openUploader(cfg)
	require.NoError(t, err)
	assert.NotNil(t, u)
	assert.NotNil(t, h)

	cfg.Media = config.MediaConfig{Driver: config.MediaCloudinary, CloudName: "demo", UploadPreset: "unsigned"}
	u, h, err = openUploader(cfg)
	require.NoError(t, err)
	assert.NotNil(t, u)
	assert.Nil(t, h)

	cfg.Media = config.MediaConfig{Driver: config.MediaNone}
	u, h, err = openUploader(cfg)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Nil(t, h)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/mypeeps/internal/auth"
	"github.com/mmynk/mypeeps/internal/catalog"
	"github.com/mmynk/mypeeps/internal/config"
	"github.com/mmynk/mypeeps/internal/media"
	"github.com/mmynk/mypeeps/internal/middleware"
	"github.com/mmynk/mypeeps/internal/service"
	"github.com/mmynk/mypeeps/internal/storage"
	"github.com/mmynk/mypeeps/internal/storage/memory"
	"github.com/mmynk/mypeeps/internal/storage/sqlite"
	"github.com/mmynk/mypeeps/internal/storage/surreal"
	"github.com/mmynk/mypeeps/pkg/api/apiconnect"
)

// maxRequestBytes bounds a single RPC body. Photos travel inline.
const maxRequestBytes = 20 << 20

var (
	serveAddr   string
	serveStore  string
	serveDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveStore != "" {
			cfg.Store.Driver = serveStore
		}
		if serveDBPath != "" {
			cfg.Store.Path = serveDBPath
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "store driver: sqlite, surreal or memory")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "sqlite database path")
}

func runServer(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	uploader, mediaHandler, err := openUploader(cfg)
	if err != nil {
		return err
	}

	cat := catalog.New(store, uploader,
		catalog.WithMaterializeConcurrency(cfg.Catalog.MaterializeConcurrency))
	jwtManager := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)

	handler := newRouter(routerDeps{
		catalog:      cat,
		jwt:          jwtManager,
		metrics:      metrics,
		gatherer:     prometheus.DefaultGatherer,
		mediaHandler: mediaHandler,
		corsOrigins:  cfg.Server.CORSOrigins,
	})

	// h2c gives Connect HTTP/2 without TLS.
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting",
			"address", cfg.Server.Addr,
			"store", cfg.Store.Driver,
			"media", cfg.Media.Driver,
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", cfg.Driver, "database", cfg.Path)
		return store, nil
	case config.DriverSurreal:
		store, err := surreal.New(ctx, surreal.Config{
			URL:       cfg.Surreal.URL,
			Namespace: cfg.Surreal.Namespace,
			Database:  cfg.Surreal.Database,
			Username:  cfg.Surreal.Username,
			Password:  cfg.Surreal.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
		}
		slog.Info("Storage initialized", "driver", cfg.Driver, "url", cfg.Surreal.URL)
		return store, nil
	case config.DriverMemory:
		slog.Warn("Using in-memory storage, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openUploader returns the configured uploader and, for local storage, the
// handler that serves the stored photos.
func openUploader(cfg *config.Config) (media.Uploader, http.Handler, error) {
	switch cfg.Media.Driver {
	case config.MediaCloudinary:
		u, err := media.NewCloudinaryUploader(media.CloudinaryConfig{
			CloudName:    cfg.Media.CloudName,
			UploadPreset: cfg.Media.UploadPreset,
			Folder:       cfg.Media.Folder,
			Timeout:      cfg.Media.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return u, nil, nil
	case config.MediaLocal:
		u, err := media.NewLocalUploader(cfg.Media.Dir, cfg.Server.PublicURL)
		if err != nil {
			return nil, nil, err
		}
		return u, u.Handler(), nil
	case config.MediaNone:
		slog.Warn("No media host configured, photo uploads will be rejected")
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown media driver %q", cfg.Media.Driver)
	}
}

type routerDeps struct {
	catalog      *catalog.Catalog
	jwt          *auth.JWTManager
	metrics      *middleware.Metrics
	gatherer     prometheus.Gatherer
	mediaHandler http.Handler
	corsOrigins  []string
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	origins := deps.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		MaxAge:         300,
	})

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(corsHandler.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{}))

	if deps.mediaHandler != nil {
		r.Mount(media.LocalPathPrefix, deps.mediaHandler)
	}

	// Metrics outermost so auth rejections are counted too.
	opts := []connect.HandlerOption{
		connect.WithInterceptors(
			deps.metrics.Interceptor(),
			middleware.LoggingInterceptor(nil),
			middleware.RequireAuth(deps.jwt),
		),
		connect.WithReadMaxBytes(maxRequestBytes),
	}
	peoplePath, peopleHandler := apiconnect.NewPeopleServiceHandler(service.NewPeopleService(deps.catalog), opts...)
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(service.NewGroupService(deps.catalog), opts...)
	r.Mount(peoplePath, peopleHandler)
	r.Mount(groupPath, groupHandler)

	return r
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/spotdeck/spotdeck/pkg/cache"
	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/pipeline"
	"github.com/spotdeck/spotdeck/pkg/store"
)

const serveShutdownTimeout = 10 * time.Second

// serveCacheScope namespaces the server's cache keys, so a backend shared
// with the local CLI never serves entries across the two.
const serveCacheScope = "serve:"

// serveCommand creates the serve command for the deck preview server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configFile string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the deck preview HTTP server",
		Long: `Run the deck preview HTTP server.

The server exposes saved decks for preview:

  GET /decks                      list saved decks
  GET /decks/{id}                 full deck document
  GET /decks/{id}/cards/{idx}.svg single rendered card

By default decks come from the local file store and results from the local
file cache. Configure mongo_uri and redis_addr in the [serve] config section
to share both across instances.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (default: ~/.config/spotdeck/config.toml)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

// runServe wires the backends and serves until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg Config) error {
	logger := loggerFromContext(ctx)

	st, backend, err := newServeStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open deck store: %w", err)
	}
	defer st.Close()

	cc, cacheBackend, err := newServeCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	runner := pipeline.NewRunner(cc, serveKeyer(), logger)
	defer runner.Close()

	srv := &deckServer{store: st, runner: runner}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(c.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/decks", srv.handleListDecks)
	r.Get("/decks/{id}", srv.handleGetDeck)
	r.Get("/decks/{id}/cards/{index}.svg", srv.handleCardSVG)

	httpServer := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutCtx)
	}()

	logger.Info("preview server listening",
		"addr", cfg.Serve.Addr,
		"store", backend,
		"cache", cacheBackend)
	printInfo("Listening on %s", cfg.Serve.Addr)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// newServeStore picks the deck store backend: Mongo when configured,
// otherwise the local file store.
func newServeStore(ctx context.Context, cfg Config) (store.Store, string, error) {
	if cfg.Serve.MongoURI != "" {
		st, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.Serve.MongoURI,
			Database:   cfg.Serve.MongoDatabase,
			Collection: cfg.Serve.MongoCollection,
		})
		if err != nil {
			return nil, "", err
		}
		return st, "mongo", nil
	}
	st, err := store.NewFileStore("")
	if err != nil {
		return nil, "", err
	}
	return st, "file", nil
}

// serveKeyer builds the server's cache keyer, scoped so its entries never
// collide with the CLI's on a shared backend.
func serveKeyer() cache.Keyer {
	return cache.NewScopedKeyer(nil, serveCacheScope)
}

// newServeCache picks the cache backend: Redis when configured, otherwise
// the local file cache.
func newServeCache(ctx context.Context, cfg Config) (cache.Cache, string, error) {
	if cfg.Serve.RedisAddr != "" {
		cc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Serve.RedisAddr,
			Password: cfg.Serve.RedisPassword,
			DB:       cfg.Serve.RedisDB,
		})
		if err != nil {
			return nil, "", err
		}
		return cc, "redis", nil
	}
	cc, err := newCache(false)
	if err != nil {
		return nil, "", err
	}
	return cc, "file", nil
}

// logRequests is a chi middleware logging each request through the CLI logger.
func (c *CLI) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		c.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// deckServer serves saved decks over HTTP.
type deckServer struct {
	store  store.Store
	runner *pipeline.Runner
}

func (s *deckServer) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decks)
}

func (s *deckServer) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *deckServer) handleCardSVG(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "card index must be an integer"))
		return
	}

	result, _ := resultFromDeck(r.Context(), s.runner, d)
	opts := pipeline.Options{
		Order:      d.Order,
		Theme:      d.Theme,
		CanvasSize: d.CanvasSize,
	}

	svg, err := s.runner.CardSVG(result, opts, index)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to an HTTP status and writes a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeDeckNotFound, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidOrder, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": err.Error(),
	})
}

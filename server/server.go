package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodtune/cache"
	"moodtune/config"
	"moodtune/core/auth"
	"moodtune/core/catalog"
	"moodtune/core/emotion"
	"moodtune/db"
	"moodtune/logger"
	"moodtune/repository"
	"moodtune/storage"

	"github.com/gorilla/mux"
)

// NewRouter registers every endpoint on a gorilla/mux router. Specific
// /songs paths come before /songs/{id}.
func NewRouter(h *APIHandler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()

	authed := func(f http.HandlerFunc) http.Handler { return h.Authorize(f) }
	admin := func(f http.HandlerFunc) http.Handler { return h.Authorize(h.RequireAdmin(f)) }

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	// Authentication
	router.HandleFunc("/auth/signup", h.SignupHandler).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost)

	router.Handle("/emotion/emotionprediction", authed(h.EmotionPredictionHandler)).Methods(http.MethodPost)

	// Songs
	router.Handle("/songs/upload", admin(h.UploadSongHandler)).Methods(http.MethodPost)
	router.Handle("/songs/all", admin(h.AllSongsHandler)).Methods(http.MethodGet)
	router.Handle("/songs/by-emotion/{emotion}", authed(h.SongsByEmotionHandler)).Methods(http.MethodGet)
	router.Handle("/songs/audio/{id}", authed(h.AudioHandler)).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/songs/image/{id}", authed(h.ImageHandler)).Methods(http.MethodGet, http.MethodHead)
	router.Handle("/songs/{id}/play", authed(h.PlayHandler)).Methods(http.MethodPost)
	router.Handle("/songs/{id}/like", authed(h.LikeHandler)).Methods(http.MethodPost)
	router.Handle("/songs/{id}", authed(h.GetSongHandler)).Methods(http.MethodGet)
	router.Handle("/songs/{id}", admin(h.DeleteSongHandler)).Methods(http.MethodDelete)

	// Frontend UI serving
	router.PathPrefix("/").Handler(NewStaticHandler(cfg.WebDir, cfg.DefaultImagePath)).Methods(http.MethodGet, http.MethodHead)

	return router
}

// NewHandler wraps the router with CORS and request logging. The wrappers sit
// outside the router so preflight requests never reach route matching.
func NewHandler(h *APIHandler, cfg *config.Config) http.Handler {
	return corsMiddleware(loggingMiddleware(NewRouter(h, cfg)))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Content-Disposition")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		logger.Info("[HTTP] request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Int("bytes", rec.bytes),
			logger.Duration("duration", time.Since(start)))
	})
}

// Start wires storage, services and routes, then serves until SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	media, err := storage.NewMediaStore(ctx, cfg, gdb)
	if err != nil {
		return fmt.Errorf("failed to initialize media store: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, nil)
	authSvc := auth.NewService(repository.NewGormUserRepository(gdb), tokens, cfg.AdminKey)
	catalogSvc := catalog.NewService(repository.NewGormSongRepository(gdb), media, cfg.MaxUploadSize)

	var classifier emotion.Classifier = emotion.NewHTTPClassifier(cfg.EmotionAPIURL, cfg.EmotionTimeout,
		emotion.WithRetries(cfg.EmotionRetries),
		emotion.WithRetryDelay(cfg.EmotionRetryDelay))
	if cfg.RedisEnabled() {
		client, err := db.ConnectRedis(cfg)
		if err != nil {
			// the cache is optional; predictions still go upstream
			logger.Warn("[Server] Redis unavailable, prediction cache disabled", logger.ErrorField(err))
		} else {
			defer client.Close()
			classifier = emotion.NewCachedClassifier(classifier, cache.NewRedisCache(client), cfg.EmotionCacheTTL)
			logger.Info("[Server] prediction cache enabled", logger.Duration("ttl", cfg.EmotionCacheTTL))
		}
	}

	handler := NewAPIHandler(authSvc, catalogSvc, classifier, cfg)

	// Server timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewHandler(handler, cfg),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening",
			logger.String("addr", srv.Addr),
			logger.String("mediaBackend", cfg.MediaBackend),
			logger.String("emotionAPI", cfg.EmotionAPIURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for a signal or a listen failure
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("[Server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("[Server] stopped")
	return nil
}

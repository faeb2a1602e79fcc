// Package server serves the stry REST API and the reader pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stry/model"
	"stry/search"

	"github.com/sirupsen/logrus"
)

// Source answers the read queries of the API and the pages. It is
// implemented by the local store and by the REST client.
type Source interface {
	Stories(ctx context.Context, page int) (*model.StoryPage, error)
	StoriesOf(ctx context.Context, kind model.Kind, id string, page int) (*model.StoryPage, error)
	Story(ctx context.Context, id string) (*model.Story, error)
	Chapter(ctx context.Context, storyId string, n int) (*model.ChapterPage, error)
	Entity(ctx context.Context, kind model.Kind, id string) (*model.Entity, error)
	Entities(ctx context.Context, list model.List, page int) (*model.EntityPage, error)
	Search(ctx context.Context, q search.Query, page int) (*model.StoryPage, error)
}

type Options struct {
	Version string
	// Rate is the allowed requests per second of a client, 0 disables
	// rate limiting.
	Rate      float64
	Burst     int
	CacheSize int
	CacheTTL  time.Duration

	// TrustProxy rate limits by X-Forwarded-For, for servers behind a
	// reverse proxy.
	TrustProxy bool
}

type Server struct {
	source  Source
	opts    Options
	cache   *chapterCache
	limiter *RateLimitMiddleware
	handler http.Handler
}

func New(source Source, opts Options) *Server {
	s := &Server{
		source: source,
		opts:   opts,
		cache:  newChapterCache(opts.CacheSize, opts.CacheTTL),
	}

	mux := http.NewServeMux()
	s.routeAPI(mux)
	s.routePages(mux)

	var handler http.Handler = mux
	if opts.Rate > 0 {
		s.limiter = NewRateLimitMiddleware(opts.Rate, opts.Burst, opts.TrustProxy)
		handler = s.limiter.Middleware(handler)
	}
	s.handler = AccessLogMiddleware(RecoveryMiddleware(handler))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close stops the background work of the server's middleware.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// status maps an error of a Source to the HTTP status and message shown to
// the client.
func status(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrChapterOutOfRange), errors.Is(err, model.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.Canceled):
		return 499, "request cancelled"
	}
	return http.StatusInternalServerError, "internal server error"
}

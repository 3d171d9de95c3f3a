// Package server exposes the prayer engine as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salah/internal/geo"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/tahajjud"
)

// Options configure a Server. Location, Method and Prayers are defaults
// that requests may override through query parameters.
type Options struct {
	Calc     prayer.Scheduler
	Location geo.Location
	Method   string
	Prayers  []prayer.Name
	Tahajjud tahajjud.Options

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server serves the JSON API.
type Server struct {
	opts   Options
	engine *gin.Engine
}

// New builds the gin engine and registers every route.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Prayers) == 0 {
		opts.Prayers = prayer.DefaultNames
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods:    []string{"GET", "OPTIONS", "HEAD"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	s := &Server{opts: opts, engine: r}
	s.registerRoutes(r)
	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.GET("/schedule", ResolveEndpoint(s.schedule))
	v1.GET("/next", ResolveEndpoint(s.next))
	v1.GET("/qibla", ResolveEndpoint(s.qibla))
	v1.GET("/tahajjud", ResolveEndpoint(s.tahajjud))
	v1.GET("/methods", ResolveEndpoint(s.methods))
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("[server] listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("[server] stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		log.Debug().
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("[server] request")
	}
}

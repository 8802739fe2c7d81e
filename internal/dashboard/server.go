package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharavanan171081/AI-Stock-App/internal/metrics"
)

// Server wraps the Echo HTTP server for the dashboard.
type Server struct {
	echo *echo.Echo
	addr string
}

// NewServer builds the Echo instance with recovery, request logging and
// request metrics, mounts h's routes, /metrics and /healthz (when health
// is non-nil). gatherer nil means the default Prometheus registry.
func NewServer(addr string, h *Handler, health *metrics.HealthStatus, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(recoverMiddleware())
	e.Use(requestLogging())
	if h.prom != nil {
		e.Use(requestMetrics(h.prom))
	}

	h.RegisterRoutes(e)

	promHandler := promhttp.Handler()
	if gatherer != nil {
		promHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	e.GET("/metrics", echo.WrapHandler(promHandler))
	if health != nil {
		e.GET("/healthz", echo.WrapHandler(health))
	}

	return &Server{echo: e, addr: addr}
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[dashboard] listening on %s", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[dashboard] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	log.Println("[dashboard] stopped")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func recoverMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[dashboard] PANIC %s %s: %v\n%s", c.Request().Method, c.Path(), r, debug.Stack())
					err = dataResponse(c, http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			return next(c)
		}
	}
}

func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			log.Printf("[dashboard] %s %s - %d (%s)", req.Method, req.RequestURI, c.Response().Status, time.Since(start))
			return err
		}
	}
}

// requestMetrics labels by route template to keep cardinality low.
func requestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.HTTPDur.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Package server exposes progress reports over HTTP for browser overlays.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/everhour"
	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/period"
	"github.com/xolan/evertrack/internal/service"
	"github.com/xolan/evertrack/internal/timeutil"
)

// DefaultAddr keeps the endpoint on the loopback interface.
const DefaultAddr = "127.0.0.1:7788"

const shutdownTimeout = 5 * time.Second

// Source produces the reports served. *service.ProgressService implements it.
type Source interface {
	RefreshAt(ctx context.Context, now time.Time, mode period.Mode) (service.Report, error)
	Schedule(now time.Time, mode period.Mode) (service.ScheduleReport, error)
	Now() time.Time
	Config() config.Config
}

// NewRouter builds the gin engine with all routes and middleware. Browser
// access is limited to the allowed_origins of src.Config().
func NewRouter(src Source, log logging.Logger) *gin.Engine {
	if log == nil {
		log = logging.Nop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(log), CORSMiddleware(src.Config().AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/progress", GetProgress(src, log))
	api.GET("/schedule", GetSchedule(src, log))
	return r
}

// GetProgress serves the report for ?mode= (default: configured mode)
// at ?at= (default: now).
func GetProgress(src Source, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode, at, ok := parseQuery(c, src)
		if !ok {
			return
		}

		report, err := src.RefreshAt(c.Request.Context(), at, mode)
		if err != nil {
			status := statusFor(err)
			log.Warnf("[request_id=%s] progress: %v", c.GetString("request_id"), err)
			c.JSON(status, Failure(status, err.Error()))
			return
		}

		c.JSON(http.StatusOK, Success(report, map[string]any{
			"request_id": c.GetString("request_id"),
			"source":     report.Source,
			"stale":      report.Stale,
			"fetched_at": report.FetchedAt,
		}))
	}
}

// GetSchedule serves the work schedule and its totals for the period.
func GetSchedule(src Source, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode, at, ok := parseQuery(c, src)
		if !ok {
			return
		}

		report, err := src.Schedule(at, mode)
		if err != nil {
			log.Warnf("[request_id=%s] schedule: %v", c.GetString("request_id"), err)
			c.JSON(http.StatusBadRequest, Failure(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, Success(report, map[string]any{
			"request_id": c.GetString("request_id"),
		}))
	}
}

// parseQuery reads mode and at, answering 400 itself on bad input.
func parseQuery(c *gin.Context, src Source) (period.Mode, time.Time, bool) {
	cfg := src.Config()

	mode := cfg.TrackingMode
	if raw := c.Query("mode"); raw != "" {
		m, err := period.ParseMode(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, Failure(http.StatusBadRequest, err.Error()))
			return "", time.Time{}, false
		}
		mode = m
	}

	now := src.Now()
	at, err := timeutil.ParseInstant(c.Query("at"), now, now.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, Failure(http.StatusBadRequest, err.Error()))
		return "", time.Time{}, false
	}
	return mode, at, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoToken),
		errors.Is(err, everhour.ErrUnauthorized),
		errors.Is(err, everhour.ErrForbidden):
		return http.StatusUnauthorized
	case errors.Is(err, period.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log logging.Logger) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

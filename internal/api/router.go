// Package api serves the dashboard HTTP surface: dashboard CRUD, the widget
// catalogue, grid configuration and the WebSocket layout session.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matthewjablack/dynamicdashboard/internal/grid"
	"github.com/matthewjablack/dynamicdashboard/internal/metrics"
	"github.com/matthewjablack/dynamicdashboard/internal/store"
)

// Options wires the router's collaborators.
type Options struct {
	Store    *store.Store
	Policy   *grid.Policy
	Surface  grid.SurfaceConfig
	Auth     AuthOptions
	Session  SessionOptions
	BasePath string
	// CORSOrigins lists allowed origins; "*" allows any. Empty disables CORS headers.
	CORSOrigins []string
	Metrics     *metrics.Metrics
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Router is the HTTP handler. Shutdown closes layout sessions, which
// http.Server.Shutdown does not track once upgraded.
type Router struct {
	*gin.Engine
	sessions *sessionAPI
}

// Shutdown ends open layout sessions and waits for their final saves.
func (r *Router) Shutdown(ctx context.Context) error {
	return r.sessions.shutdown(ctx)
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http"))

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestID(), recovery(log), cors(opts.CORSOrigins), accessLog(log, opts.Metrics))

	base := r.Group(normalizeBase(opts.BasePath))
	base.GET("/healthz", healthz(opts.Store))
	if opts.Gatherer != nil {
		base.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	registry := opts.Policy.Registry()
	wa := &widgetsAPI{registry: registry, surface: opts.Surface}
	da := &dashboardAPI{store: opts.Store, log: log}
	sa := newSessionAPI(opts, log.With(slog.String("component", "session")))

	apiGroup := base.Group("/api", identify(opts.Auth))

	// Dashboards
	apiGroup.GET("/dashboard", da.list)
	apiGroup.POST("/dashboard", da.create)
	apiGroup.GET("/dashboard/:id", da.get)
	apiGroup.PUT("/dashboard/:id", da.update)
	apiGroup.DELETE("/dashboard/:id", da.delete)

	// Widget catalogue and grid surface
	apiGroup.GET("/widgets", wa.list)
	apiGroup.GET("/widgets/:type/fields", wa.fields)
	apiGroup.POST("/widgets/:type/render", wa.render)
	apiGroup.GET("/grid", wa.grid)

	// WebSocket
	apiGroup.GET("/session", sa.handle)

	return &Router{Engine: r, sessions: sa}
}

// normalizeBase maps "" and "/" to the root group and strips a trailing slash.
func normalizeBase(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func healthz(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			writeError(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		v, err := db.SchemaVersion(c.Request.Context())
		if err != nil {
			writeError(c, http.StatusServiceUnavailable, "schema unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "schema_version": v})
	}
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

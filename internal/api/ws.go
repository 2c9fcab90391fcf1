package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/matthewjablack/dynamicdashboard/internal/dashboard"
	"github.com/matthewjablack/dynamicdashboard/internal/grid"
	"github.com/matthewjablack/dynamicdashboard/internal/metrics"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/store"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	flushTimeout = 5 * time.Second
	readLimit    = 1 << 20
)

// SessionOptions tunes layout sessions.
type SessionOptions struct {
	EventsPerSecond float64
	Burst           int
	Debounce        time.Duration
	DefaultName     string
}

type sessionAPI struct {
	store   *store.Store
	policy  *grid.Policy
	surface grid.SurfaceConfig
	opts    SessionOptions
	accept  *websocket.AcceptOptions
	metrics *metrics.Metrics
	log     *slog.Logger

	base     context.Context
	stop     context.CancelFunc
	sessions sync.WaitGroup
}

func newSessionAPI(o Options, log *slog.Logger) *sessionAPI {
	if o.Session.EventsPerSecond <= 0 {
		o.Session.EventsPerSecond = 20
	}
	if o.Session.Burst <= 0 {
		o.Session.Burst = 40
	}
	if o.Session.Debounce <= 0 {
		o.Session.Debounce = dashboard.DefaultDebounce
	}
	if o.Session.DefaultName == "" {
		o.Session.DefaultName = dashboard.DefaultName
	}
	base, stop := context.WithCancel(context.Background())
	return &sessionAPI{
		base:    base,
		stop:    stop,
		store:   o.Store,
		policy:  o.Policy,
		surface: o.Surface,
		opts:    o.Session,
		accept:  acceptOptions(o.CORSOrigins),
		metrics: o.Metrics,
		log:     log,
	}
}

// shutdown ends every open session and waits for their final saves.
func (a *sessionAPI) shutdown(ctx context.Context) error {
	a.stop()
	done := make(chan struct{})
	go func() {
		a.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acceptOptions allows same-origin handshakes plus the configured CORS origins.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, o := range origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
		}
	}
	return opts
}

// clientFrame is any client-to-server message; Type selects the fields in use.
type clientFrame struct {
	Type       string              `json:"type"`
	WidgetType string              `json:"widget_type,omitempty"`
	Props      model.Props         `json:"props,omitempty"`
	ID         string              `json:"id,omitempty"`
	Breakpoint model.Breakpoint    `json:"breakpoint,omitempty"`
	Current    []model.LayoutEntry `json:"current,omitempty"`
	Layouts    model.Layouts       `json:"layouts,omitempty"`
	Width      int                 `json:"width,omitempty"`
}

type helloFrame struct {
	Type    string             `json:"type"`
	Session string             `json:"session"`
	Grid    grid.SurfaceConfig `json:"grid"`
	Widgets []widget.TypeInfo  `json:"widgets"`
}

type stateFrame struct {
	Type       string           `json:"type"`
	Phase      dashboard.Phase  `json:"phase"`
	Breakpoint model.Breakpoint `json:"breakpoint"`
	Dashboard  model.Dashboard  `json:"dashboard"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// session is one connected UI driving one dashboard.Store.
type session struct {
	id    string
	conn  *websocket.Conn
	dash  *dashboard.Store
	log   *slog.Logger
	limit *rate.Limiter
	wmu   sync.Mutex
}

func (a *sessionAPI) handle(c *gin.Context) {
	user := userOf(c)
	conn, err := websocket.Accept(c.Writer, c.Request, a.accept)
	if err != nil {
		a.log.Warn("accept failed", slog.Any("error", err))
		return
	}
	conn.SetReadLimit(readLimit)

	id := uuid.NewString()
	log := a.log.With(slog.String("session", id), slog.String("user", user))
	s := &session{
		id:   id,
		conn: conn,
		log:  log,
		dash: dashboard.NewStore(a.store.UserGateway(user), a.policy,
			dashboard.WithLogger(log),
			dashboard.WithMetrics(a.metrics),
			dashboard.WithDebounce(a.opts.Debounce),
			dashboard.WithName(a.opts.DefaultName),
		),
		limit: rate.NewLimiter(rate.Limit(a.opts.EventsPerSecond), a.opts.Burst),
	}

	a.sessions.Add(1)
	defer a.sessions.Done()
	a.metrics.SessionOpened()
	defer a.metrics.SessionClosed()
	log.Info("session opened")

	// Hijacked connections outlive http.Server.Shutdown; shutdown reaches them here.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	defer context.AfterFunc(a.base, cancel)()

	s.send(ctx, helloFrame{Type: "hello", Session: id, Grid: a.surface, Widgets: a.policy.Registry().ListTypes()})

	// Load runs beside the read loop so edits made before it settles are merged.
	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		if err := s.dash.Load(ctx); err != nil {
			s.sendError(ctx, "dashboard unavailable; changes will not be saved")
		}
		s.sendState(ctx)
	}()
	go s.pingLoop(ctx, cancel)

	s.readLoop(ctx)
	cancel()
	<-loaded
	s.close(websocket.StatusNormalClosure, "bye")
}

func (s *session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			s.log.Debug("read ended", slog.Int("status", int(websocket.CloseStatus(err))))
			return
		}
		if !s.limit.Allow() {
			s.sendError(ctx, "rate limited")
			continue
		}
		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			s.sendError(ctx, "invalid frame")
			continue
		}
		if err := s.apply(f); err != nil {
			s.sendError(ctx, err.Error())
			continue
		}
		s.sendState(ctx)
	}
}

// apply runs one client event against the store.
func (s *session) apply(f clientFrame) error {
	switch f.Type {
	case "add":
		_, err := s.dash.AddWidget(f.WidgetType, f.Props)
		return err
	case "remove":
		s.dash.RemoveWidget(f.ID)
		return nil
	case "layout":
		return s.dash.ApplyLayoutChange(f.Breakpoint, f.Current, f.Layouts)
	case "breakpoint":
		return s.dash.SetActiveBreakpoint(f.Breakpoint)
	case "width":
		s.dash.SetActiveWidth(f.Width)
		return nil
	case "snapshot":
		return nil
	default:
		return errors.New("unknown frame type " + f.Type)
	}
}

func (s *session) sendState(ctx context.Context) {
	s.send(ctx, stateFrame{
		Type:       "state",
		Phase:      s.dash.Phase(),
		Breakpoint: s.dash.ActiveBreakpoint(),
		Dashboard:  s.dash.Snapshot(),
	})
}

func (s *session) sendError(ctx context.Context, msg string) {
	s.send(ctx, errorFrame{Type: "error", Error: msg})
}

func (s *session) send(ctx context.Context, v any) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, s.conn, v); err != nil && ctx.Err() == nil {
		s.log.Debug("write failed", slog.Any("error", err))
	}
}

func (s *session) pingLoop(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.Ping(ctx); err != nil {
				cancel()
				return
			}
		}
	}
}

// close keeps the last layout change by flushing it before the store stops.
func (s *session) close(code websocket.StatusCode, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.dash.Flush(ctx); err != nil {
		s.log.Warn("flush on close failed", slog.Any("error", err))
	}
	s.dash.Close()
	s.conn.Close(code, reason)
	s.log.Info("session closed")
}

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matthewjablack/dynamicdashboard/internal/grid"
	"github.com/matthewjablack/dynamicdashboard/internal/metrics"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

const (
	// DefaultDebounce is the quiet period before a layout change is saved.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultPersistTimeout bounds one background save.
	DefaultPersistTimeout = 10 * time.Second
	// DefaultName names a dashboard created on first load.
	DefaultName = "My Dashboard"
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for widget ids and the save debounce.
func WithClock(c Clock) Option { return func(s *Store) { s.clock = c } }

// WithDebounce sets the quiet period before a layout change is saved.
func WithDebounce(d time.Duration) Option { return func(s *Store) { s.debounce = d } }

// WithPersistTimeout bounds each background save.
func WithPersistTimeout(d time.Duration) Option { return func(s *Store) { s.persistTimeout = d } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Store) { s.metrics = m } }

// WithName sets the name given to a dashboard created on first load.
func WithName(name string) Option { return func(s *Store) { s.name = name } }

// WithBreakpoint sets the initially active breakpoint.
func WithBreakpoint(bp model.Breakpoint) Option { return func(s *Store) { s.active = bp } }

// Store holds one dashboard's widgets and layouts and keeps them saved.
// All methods are safe for concurrent use; saves run in the background.
type Store struct {
	gw             Gateway
	policy         *grid.Policy
	clock          Clock
	log            *slog.Logger
	metrics        *metrics.Metrics
	debounce       time.Duration
	persistTimeout time.Duration

	mu      sync.Mutex
	phase   Phase
	id      *int64
	name    string
	widgets []model.WidgetInstance
	layouts model.Layouts
	active  model.Breakpoint
	widx    map[string]int
	lidx    map[model.Breakpoint]map[string]int
	rev     uint64
	lastMS  int64
	pending Timer
	gen     uint64
	closed  bool

	saveSeq  uint64
	inflight sync.WaitGroup

	// saveMu orders Update calls; sentSeq is the newest snapshot sent.
	saveMu  sync.Mutex
	sentSeq uint64
}

// NewStore creates an uninitialized store saving through gw.
func NewStore(gw Gateway, policy *grid.Policy, opts ...Option) *Store {
	s := &Store{
		gw:             gw,
		policy:         policy,
		clock:          realClock{},
		log:            slog.Default(),
		debounce:       DefaultDebounce,
		persistTimeout: DefaultPersistTimeout,
		name:           DefaultName,
		active:         model.BaseBreakpoint,
		layouts:        emptyLayouts(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "dashboard"))
	s.reindexLocked()
	return s
}

func emptyLayouts() model.Layouts {
	l := make(model.Layouts, len(model.Breakpoints()))
	for _, bp := range model.Breakpoints() {
		l[bp] = []model.LayoutEntry{}
	}
	return l
}

// Load adopts the user's most recent dashboard, or creates one when none exist.
// It runs once; later calls return nil. A gateway failure leaves the store usable
// without an id, so edits stay local until a reload.
//
// Edits made while the list request is in flight are kept: the stored dashboard
// is merged beneath them and saved right away.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseUninitialized {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseLoading
	startRev := s.rev
	s.mu.Unlock()

	list, err := s.gw.List(ctx)
	if err != nil {
		s.loadFailed("list dashboards", err)
		return fmt.Errorf("list dashboards: %w", err)
	}

	if len(list) > 0 {
		loaded, fixed := s.policy.Repair(list[0])
		s.metrics.Repairs(fixed)
		if fixed > 0 {
			s.log.Info("repaired stored layout", slog.Int("entries", fixed))
		}
		if loaded.ID == nil {
			s.log.Warn("stored dashboard has no id; saves disabled")
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.rev != startRev {
			merged, _ := s.policy.Repair(mergeUnder(loaded, s.snapshotLocked()))
			s.adoptLocked(merged)
			s.metrics.Load(metrics.OutcomeMerged)
			s.log.Info("merged stored dashboard under local edits", slog.Int("widgets", len(s.widgets)))
			s.persistLocked(metrics.TriggerImmediate)
			return nil
		}
		s.adoptLocked(loaded)
		s.metrics.Load(metrics.OutcomeFound)
		s.log.Info("dashboard loaded", slog.Int("widgets", len(s.widgets)))
		return nil
	}

	s.mu.Lock()
	draft := s.snapshotLocked()
	draft.ID = nil
	createRev := s.rev
	s.mu.Unlock()

	created, err := s.gw.Create(ctx, draft)
	if err == nil && created.ID == nil {
		err = errors.New("gateway returned dashboard without id")
	}
	if err != nil {
		s.metrics.Persist(metrics.TriggerCreate, metrics.OutcomeError)
		s.loadFailed("create dashboard", err)
		return fmt.Errorf("create dashboard: %w", err)
	}
	s.metrics.Persist(metrics.TriggerCreate, metrics.OutcomeOK)
	s.metrics.Load(metrics.OutcomeEmpty)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := *created.ID
	s.id = &id
	if created.Name != "" {
		s.name = created.Name
	}
	s.settleLocked()
	s.log.Info("dashboard created", slog.Int64("id", id))
	if s.rev != createRev {
		s.persistLocked(metrics.TriggerImmediate)
	}
	return nil
}

func (s *Store) loadFailed(op string, err error) {
	s.metrics.Load(metrics.OutcomeError)
	s.log.Error("dashboard load failed; edits stay local", slog.String("op", op), slog.Any("error", err))
	s.mu.Lock()
	s.settleLocked()
	s.mu.Unlock()
}

// mergeUnder keeps every widget of loaded first, then local widgets it lacks.
func mergeUnder(loaded, local model.Dashboard) model.Dashboard {
	out := loaded.Clone()
	have := make(map[string]bool, len(out.Components))
	for _, w := range out.Components {
		have[w.ID] = true
	}
	for _, w := range local.Components {
		if have[w.ID] {
			continue
		}
		out.Components = append(out.Components, w)
		for bp, entries := range local.Layouts {
			for _, e := range entries {
				if e.WidgetID == w.ID {
					out.Layouts[bp] = append(out.Layouts[bp], e)
				}
			}
		}
	}
	return out
}

func (s *Store) adoptLocked(d model.Dashboard) {
	s.id = d.ID
	if d.Name != "" {
		s.name = d.Name
	}
	s.widgets = d.Components
	s.layouts = d.Layouts
	s.reindexLocked()
	s.settleLocked()
}

// AddWidget places a new widget of typ at the top-left of every breakpoint; the
// grid's vertical compaction moves it to the first free slot. Props are coerced
// against the type's fields and missing fields take their defaults. Unknown types
// and props that do not coerce are rejected without any state change.
func (s *Store) AddWidget(typ string, props model.Props) (model.WidgetInstance, error) {
	def, ok := s.policy.Registry().Lookup(typ)
	if !ok {
		s.log.Warn("rejected unknown widget type", slog.String("type", typ))
		return model.WidgetInstance{}, fmt.Errorf("%w: %q", widget.ErrUnknownType, typ)
	}
	coerced, err := widget.CoerceProps(def, props)
	if err != nil {
		s.log.Warn("rejected widget props", slog.String("type", typ), slog.Any("error", err))
		return model.WidgetInstance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w := model.WidgetInstance{ID: s.nextIDLocked(typ), Type: typ, Props: coerced}
	s.widgets = append(s.widgets, w)
	for _, bp := range model.Breakpoints() {
		s.layouts[bp] = append(s.layouts[bp], s.policy.Place(w.ID, typ, 0, 0, bp))
	}
	s.rev++
	s.reindexLocked()
	s.updatePhaseLocked()
	s.log.Debug("widget added", slog.String("id", w.ID), slog.String("breakpoint", string(s.active)))
	s.persistLocked(metrics.TriggerImmediate)
	return w, nil
}

// nextIDLocked returns "{type}-{unix millis}", bumping the millisecond when two
// widgets would otherwise collide.
func (s *Store) nextIDLocked(typ string) string {
	ms := s.clock.Now().UnixMilli()
	if ms <= s.lastMS {
		ms = s.lastMS + 1
	}
	for {
		id := fmt.Sprintf("%s-%d", typ, ms)
		if _, taken := s.widx[id]; !taken {
			s.lastMS = ms
			return id
		}
		ms++
	}
}

// RemoveWidget deletes a widget and its entries on every breakpoint. It reports
// whether anything was removed; an unknown id is not an error.
func (s *Store) RemoveWidget(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.widx[id]; !ok {
		return false
	}
	kept := make([]model.WidgetInstance, 0, len(s.widgets)-1)
	for _, w := range s.widgets {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.widgets = kept
	for bp, entries := range s.layouts {
		s.layouts[bp] = without(entries, id)
	}
	s.rev++
	s.reindexLocked()
	s.updatePhaseLocked()
	s.log.Debug("widget removed", slog.String("id", id))
	s.persistLocked(metrics.TriggerImmediate)
	return true
}

func without(entries []model.LayoutEntry, id string) []model.LayoutEntry {
	out := make([]model.LayoutEntry, 0, len(entries))
	for _, e := range entries {
		if e.WidgetID != id {
			out = append(out, e)
		}
	}
	return out
}

// ApplyLayoutChange adopts the layouts reported by the grid after a drag or resize.
// current is the layout of bp and wins over all[bp]; tiers missing from all keep
// their stored entries. Minimums are not re-derived: the grid already enforced the
// minW/minH it was given. Entries for unknown widgets are dropped and widgets the
// grid did not report keep their previous entry. The save is debounced.
func (s *Store) ApplyLayoutChange(bp model.Breakpoint, current []model.LayoutEntry, all model.Layouts) error {
	if !bp.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownBreakpoint, string(bp))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.layouts.Clone()
	for k, entries := range all {
		if k.Valid() {
			next[k] = append([]model.LayoutEntry(nil), entries...)
		}
	}
	if current != nil {
		next[bp] = append([]model.LayoutEntry(nil), current...)
	}
	s.layouts = s.reconcileLocked(next)
	s.rev++
	s.reindexLocked()
	s.scheduleLocked()
	return nil
}

// reconcileLocked keeps a single entry per widget per tier, in widget order.
func (s *Store) reconcileLocked(next model.Layouts) model.Layouts {
	out := make(model.Layouts, len(model.Breakpoints()))
	for _, bp := range model.Breakpoints() {
		reported := make(map[string]model.LayoutEntry, len(next[bp]))
		for _, e := range next[bp] {
			if _, known := s.widx[e.WidgetID]; !known {
				continue
			}
			if _, dup := reported[e.WidgetID]; !dup {
				reported[e.WidgetID] = e
			}
		}
		entries := make([]model.LayoutEntry, 0, len(s.widgets))
		for _, w := range s.widgets {
			if e, ok := reported[w.ID]; ok {
				entries = append(entries, e)
			} else if i, ok := s.lidx[bp][w.ID]; ok {
				entries = append(entries, s.layouts[bp][i])
			} else {
				entries = append(entries, s.policy.Place(w.ID, w.Type, 0, 0, bp))
			}
		}
		out[bp] = entries
	}
	return out
}

// SetActiveBreakpoint records the tier currently shown by the grid.
func (s *Store) SetActiveBreakpoint(bp model.Breakpoint) error {
	if !bp.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownBreakpoint, string(bp))
	}
	s.mu.Lock()
	s.active = bp
	s.mu.Unlock()
	return nil
}

// SetActiveWidth selects the active breakpoint from a viewport width in pixels.
func (s *Store) SetActiveWidth(px int) model.Breakpoint {
	bp := model.BreakpointForWidth(px)
	s.mu.Lock()
	s.active = bp
	s.mu.Unlock()
	return bp
}

// ActiveBreakpoint returns the tier currently shown by the grid.
func (s *Store) ActiveBreakpoint() model.Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Phase returns the lifecycle state.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ID returns the persisted dashboard id, or nil before the first successful load.
func (s *Store) ID() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return nil
	}
	id := *s.id
	return &id
}

// Snapshot returns a deep copy of the current dashboard.
func (s *Store) Snapshot() model.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.Dashboard {
	d := model.Dashboard{
		ID:         s.id,
		Name:       s.name,
		Components: s.widgets,
		Layouts:    s.layouts,
	}
	return d.Clone()
}

// WidgetLayout returns the entry of widget id on the active breakpoint.
func (s *Store) WidgetLayout(id string) (model.LayoutEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.lidx[s.active][id]
	if !ok {
		return model.LayoutEntry{}, false
	}
	return s.layouts[s.active][i], true
}

func (s *Store) reindexLocked() {
	s.widx = make(map[string]int, len(s.widgets))
	for i, w := range s.widgets {
		s.widx[w.ID] = i
	}
	s.lidx = make(map[model.Breakpoint]map[string]int, len(s.layouts))
	for bp := range s.layouts {
		s.lidx[bp] = s.layouts.Index(bp)
	}
}

// updatePhaseLocked follows the widget count once loading has settled.
func (s *Store) updatePhaseLocked() {
	if s.phase == PhaseUninitialized || s.phase == PhaseLoading {
		return
	}
	s.settleLocked()
}

func (s *Store) settleLocked() {
	if len(s.widgets) > 0 {
		s.phase = PhasePopulated
	} else {
		s.phase = PhaseEmpty
	}
}

// scheduleLocked (re)arms the debounced save, cancelling any pending one.
func (s *Store) scheduleLocked() {
	if s.closed {
		return
	}
	if s.pending != nil && s.pending.Stop() {
		s.metrics.Coalesced()
	}
	s.gen++
	gen := s.gen
	s.pending = s.clock.AfterFunc(s.debounce, func() { s.fire(gen) })
}

func (s *Store) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.pending == nil {
		return
	}
	s.pending = nil
	s.persistLocked(metrics.TriggerDebounced)
}

// persistLocked sends the current state in the background. Without an id the save
// is skipped.
func (s *Store) persistLocked(trigger string) {
	if s.id == nil || s.closed {
		s.metrics.Persist(trigger, metrics.OutcomeSkipped)
		return
	}
	id := *s.id
	snap := s.snapshotLocked()
	s.saveSeq++
	seq := s.saveSeq
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		_ = s.save(ctx, trigger, id, snap, seq)
	}()
}

// save sends snapshot seq. Saves run one at a time and a snapshot older than
// one already sent is dropped, so the gateway never ends on stale state.
func (s *Store) save(ctx context.Context, trigger string, id int64, d model.Dashboard, seq uint64) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.sentSeq {
		s.metrics.Persist(trigger, metrics.OutcomeStale)
		s.log.Debug("dropped superseded save", slog.Int64("id", id), slog.String("trigger", trigger))
		return nil
	}
	s.sentSeq = seq
	if err := s.gw.Update(ctx, id, d); err != nil {
		s.metrics.Persist(trigger, metrics.OutcomeError)
		s.log.Error("dashboard save failed", slog.Int64("id", id), slog.String("trigger", trigger), slog.Any("error", err))
		return err
	}
	s.metrics.Persist(trigger, metrics.OutcomeOK)
	s.log.Debug("dashboard saved", slog.Int64("id", id), slog.String("trigger", trigger), slog.Int("widgets", len(d.Components)))
	return nil
}

// Flush saves a pending debounced change now and waits for it. It is a no-op when
// nothing is pending.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return nil
	}
	s.pending.Stop()
	s.pending = nil
	s.gen++
	if s.id == nil {
		s.mu.Unlock()
		s.metrics.Persist(metrics.TriggerFlush, metrics.OutcomeSkipped)
		return nil
	}
	id := *s.id
	snap := s.snapshotLocked()
	s.saveSeq++
	seq := s.saveSeq
	s.mu.Unlock()
	return s.save(ctx, metrics.TriggerFlush, id, snap, seq)
}

// Wait blocks until background saves already started have finished.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// Close cancels a pending debounced save, stops new saves and waits for running
// ones. Call Flush first to keep the pending change.
func (s *Store) Close() {
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
	s.closed = true
	s.mu.Unlock()
	s.inflight.Wait()
}

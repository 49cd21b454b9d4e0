// Package schedule drives the rotation generator against a Store: it gathers
// the roster, the role history and the cursor, runs the generation and commits
// the result in one step.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/rota/core/calendar"
	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/monitoring"
	"github.com/kilianp07/rota/core/rotation"
	"github.com/kilianp07/rota/internal/eventbus"
)

// PlanResult describes the outcome of a Plan call.
type PlanResult struct {
	RunID string `json:"runId"`
	// Entries are the sessions generated and stored by this call.
	Entries []model.AssignmentEntry `json:"entries"`
	// Skipped lists requested dates that were already scheduled.
	Skipped []string       `json:"skipped"`
	Start   int            `json:"start"`
	Cursor  int            `json:"cursor"`
	Stats   rotation.Stats `json:"stats"`
}

// SeedResult describes what Seed imported and planned.
type SeedResult struct {
	Imported int
	Plan     PlanResult
}

// Planner serialises schedule generation for one store.
type Planner struct {
	store        Store
	gen          *rotation.Generator
	cursorPolicy string
	sink         metrics.MetricsSink
	audit        AuditLog
	bus          *eventbus.TypedBus[Generated]
	monitor      monitoring.Monitor
	log          logger.Logger
	now          func() time.Time

	// mu covers the read-generate-commit sequence so that two requests
	// cannot schedule the same dates.
	mu sync.Mutex
}

// Option configures a Planner.
type Option func(*Planner)

// WithCursorPolicy selects rotation.CursorPersisted or rotation.CursorRandom.
func WithCursorPolicy(policy string) Option {
	return func(p *Planner) { p.cursorPolicy = policy }
}

// WithMetrics sets the sink receiving generation and reassignment events.
func WithMetrics(sink metrics.MetricsSink) Option {
	return func(p *Planner) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithAudit sets the log receiving one record per generation.
func WithAudit(a AuditLog) Option {
	return func(p *Planner) { p.audit = a }
}

// WithEventBus sets the bus on which Generated events are published.
func WithEventBus(bus *eventbus.TypedBus[Generated]) Option {
	return func(p *Planner) { p.bus = bus }
}

// WithMonitor sets the error monitor.
func WithMonitor(m monitoring.Monitor) Option {
	return func(p *Planner) { p.monitor = monitoring.OrNop(m) }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// NewPlanner creates a Planner on top of store and gen.
func NewPlanner(store Store, gen *rotation.Generator, opts ...Option) *Planner {
	p := &Planner{
		store:        store,
		gen:          gen,
		cursorPolicy: rotation.CursorPersisted,
		sink:         metrics.NopSink{},
		monitor:      monitoring.NopMonitor{},
		log:          nopLogger{},
		now:          time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Catalog returns the role catalog of the underlying generator.
func (p *Planner) Catalog() model.Catalog { return p.gen.Catalog() }

// Plan generates and stores the sessions of dates that are not scheduled yet.
// Dates already in the store, or repeated in the request, are reported in
// PlanResult.Skipped. When nothing is left to generate, Plan returns an empty
// result without error.
func (p *Planner) Plan(ctx context.Context, dates []model.SessionDate) (PlanResult, error) {
	dates, err := calendar.Normalize(dates)
	if err != nil {
		return PlanResult{}, fmt.Errorf("%w: %v", ErrInvalidDates, err)
	}
	started := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.store.Dates(ctx)
	if err != nil {
		return PlanResult{}, fmt.Errorf("load dates: %w", err)
	}
	res := PlanResult{RunID: uuid.NewString(), Skipped: []string{}}
	fresh := make([]model.SessionDate, 0, len(dates))
	for _, d := range dates {
		if _, ok := existing[d.Date]; ok {
			res.Skipped = append(res.Skipped, d.Date)
			continue
		}
		existing[d.Date] = struct{}{}
		fresh = append(fresh, d)
	}
	if len(fresh) == 0 {
		p.log.Infof("no new session dates among %d requested", len(dates))
		return res, nil
	}

	roster, err := p.store.Participants(ctx)
	if err != nil {
		return res, fmt.Errorf("load roster: %w", err)
	}
	hist, err := p.store.History(ctx)
	if err != nil {
		return res, fmt.Errorf("load history: %w", err)
	}
	cursor, found, err := p.store.Cursor(ctx)
	if err != nil {
		return res, fmt.Errorf("load cursor: %w", err)
	}

	out, err := p.gen.Generate(rotation.Input{
		Dates:       fresh,
		Roster:      roster,
		History:     hist,
		Cursor:      cursor,
		RandomStart: !found || p.cursorPolicy == rotation.CursorRandom,
	})
	if err != nil {
		return res, fmt.Errorf("generate: %w", err)
	}

	inserted, err := p.store.Commit(ctx, out.Entries, out.Cursor)
	if err != nil {
		p.monitor.CaptureException(err, map[string]string{"op": "commit", "run_id": res.RunID})
		return res, fmt.Errorf("commit schedule: %w", err)
	}
	if inserted != len(out.Entries) {
		p.log.Warnf("run %s: %d of %d sessions stored, the others already existed", res.RunID, inserted, len(out.Entries))
	}

	res.Entries = out.Entries
	res.Start = out.Start
	res.Cursor = out.Cursor
	res.Stats = out.Stats
	p.afterCommit(ctx, dates, res, len(roster), started)
	return res, nil
}

// afterCommit reports a stored generation. Failures are logged and never
// undo the commit.
func (p *Planner) afterCommit(ctx context.Context, requested []model.SessionDate, res PlanResult, rosterSize int, started time.Time) {
	now := p.now()
	ev := metrics.GenerationEvent{
		RunID:      res.RunID,
		RosterSize: rosterSize,
		Days:       res.Stats.Days,
		Skipped:    len(res.Skipped),
		Preferred:  res.Stats.Preferred,
		Forced:     res.Stats.Forced,
		TableTopic: res.Stats.TableTopic,
		Omitted:    res.Stats.Omitted,
		Cursor:     res.Cursor,
		Duration:   now.Sub(started),
		Time:       now,
	}
	if err := p.sink.RecordGeneration(ev); err != nil {
		p.log.Errorf("record generation metrics: %v", err)
	}
	if p.audit != nil {
		req := make([]string, len(requested))
		for i, d := range requested {
			req[i] = d.Date
		}
		rec := GenerationRecord{
			RunID:     res.RunID,
			Timestamp: now,
			Requested: req,
			Skipped:   res.Skipped,
			Start:     res.Start,
			Cursor:    res.Cursor,
			Stats:     res.Stats,
			Entries:   res.Entries,
		}
		if err := p.audit.Append(ctx, rec); err != nil {
			p.log.Errorf("audit append: %v", err)
			p.monitor.CaptureException(err, map[string]string{"op": "audit", "run_id": res.RunID})
		}
	}
	if p.bus != nil {
		p.bus.Publish(Generated{RunID: res.RunID, Entries: res.Entries, Cursor: res.Cursor, Time: now})
	}
	p.log.Infow("schedule generated", map[string]any{
		"run_id":   res.RunID,
		"days":     res.Stats.Days,
		"skipped":  len(res.Skipped),
		"forced":   res.Stats.Forced,
		"omitted":  res.Stats.Omitted,
		"cursor":   res.Cursor,
		"roster":   rosterSize,
		"duration": ev.Duration.String(),
	})
}

// Seed imports roster when the store holds no participants and plans dates
// when no session is scheduled yet.
func (p *Planner) Seed(ctx context.Context, roster []model.Participant, dates []model.SessionDate) (SeedResult, error) {
	var res SeedResult
	if len(roster) > 0 {
		current, err := p.store.Participants(ctx)
		if err != nil {
			return res, fmt.Errorf("load roster: %w", err)
		}
		if len(current) == 0 {
			n, err := p.store.UpsertParticipants(ctx, roster)
			if err != nil {
				return res, fmt.Errorf("seed roster: %w", err)
			}
			res.Imported = n
			p.log.Infof("seeded %d participants", n)
		}
	}
	if len(dates) == 0 {
		return res, nil
	}
	existing, err := p.store.Dates(ctx)
	if err != nil {
		return res, fmt.Errorf("load dates: %w", err)
	}
	if len(existing) > 0 {
		return res, nil
	}
	plan, err := p.Plan(ctx, dates)
	if err != nil {
		return res, fmt.Errorf("seed schedule: %w", err)
	}
	res.Plan = plan
	return res, nil
}

// Import validates and stores participants.
func (p *Planner) Import(ctx context.Context, ps []model.Participant) (int, error) {
	seen := make(map[string]struct{}, len(ps))
	for _, pt := range ps {
		if err := pt.Validate(); err != nil {
			return 0, err
		}
		if _, dup := seen[pt.ID]; dup {
			return 0, fmt.Errorf("%w: %s", rotation.ErrDuplicateParticipant, pt.ID)
		}
		seen[pt.ID] = struct{}{}
	}
	return p.store.UpsertParticipants(ctx, ps)
}

// Participants returns the roster in ring order.
func (p *Planner) Participants(ctx context.Context) ([]model.Participant, error) {
	ps, err := p.store.Participants(ctx)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return ps, nil
	}
	return rotation.Ring(ps)
}

// Schedule returns the stored sessions in chronological order.
func (p *Planner) Schedule(ctx context.Context) ([]model.AssignmentEntry, error) {
	return p.store.Schedule(ctx)
}

// SetTheme updates the theme of a session.
func (p *Planner) SetTheme(ctx context.Context, date, theme string) error {
	return p.store.SetTheme(ctx, date, theme)
}

// Reassign overwrites the holder of an assignment. The change is not checked
// against the rotation; the caller owns the consequences.
func (p *Planner) Reassign(ctx context.Context, id int64, participantID string) (Reassignment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ra, err := p.store.Reassign(ctx, id, participantID)
	if err != nil {
		return ra, err
	}
	if rec, ok := p.sink.(metrics.ReassignmentRecorder); ok {
		ev := metrics.ReassignmentEvent{AssignmentID: ra.ID, Date: ra.Date, Role: ra.Role, From: ra.From, To: ra.To, Time: p.now()}
		if err := rec.RecordReassignment(ev); err != nil {
			p.log.Errorf("record reassignment: %v", err)
		}
	}
	p.log.Infof("assignment %d (%s %s) moved from %s to %s", ra.ID, ra.Date, ra.Role, ra.From, ra.To)
	return ra, nil
}

// Report assesses the stored schedule against the roster.
func (p *Planner) Report(ctx context.Context) (rotation.Report, error) {
	entries, err := p.store.Schedule(ctx)
	if err != nil {
		return rotation.Report{}, fmt.Errorf("load schedule: %w", err)
	}
	roster, err := p.store.Participants(ctx)
	if err != nil {
		return rotation.Report{}, fmt.Errorf("load roster: %w", err)
	}
	return rotation.Assess(entries, roster, p.gen.Catalog()), nil
}

// Generations queries the audit log. Without an audit log it returns nothing.
func (p *Planner) Generations(ctx context.Context, q AuditQuery) ([]GenerationRecord, error) {
	if p.audit == nil {
		return nil, nil
	}
	return p.audit.Query(ctx, q)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Infow(string, map[string]any)  {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

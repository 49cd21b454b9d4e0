// Package app wires the configuration into a running rota service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apisched "github.com/kilianp07/rota/api/schedule"
	"github.com/kilianp07/rota/api/session"
	"github.com/kilianp07/rota/config"
	"github.com/kilianp07/rota/core/calendar"
	coremetrics "github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/core/model"
	coremon "github.com/kilianp07/rota/core/monitoring"
	"github.com/kilianp07/rota/core/rotation"
	"github.com/kilianp07/rota/core/schedule"
	"github.com/kilianp07/rota/infra/audit"
	"github.com/kilianp07/rota/infra/logger"
	"github.com/kilianp07/rota/infra/metrics"
	"github.com/kilianp07/rota/infra/monitoring"
	"github.com/kilianp07/rota/infra/mqtt"
	"github.com/kilianp07/rota/infra/rosterfile"
	"github.com/kilianp07/rota/infra/store"
	"github.com/kilianp07/rota/internal/eventbus"
)

// announcer publishes generated sessions; *mqtt.Announcer in production.
type announcer interface {
	Run(ctx context.Context, events <-chan schedule.Generated)
	Disconnect()
}

// Service owns the planner, its store and the outer surfaces.
type Service struct {
	cfg       *config.Config
	Planner   *schedule.Planner
	store     schedule.Store
	audit     schedule.AuditLog
	sink      coremetrics.MetricsSink
	bus       *eventbus.TypedBus[schedule.Generated]
	announcer announcer
	monitor   coremon.Monitor
	handler   http.Handler
	log       logger.Logger
}

// New creates a Service from the configuration. Nothing listens until Run.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	st, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	svc := &Service{cfg: cfg, store: st, monitor: mon, log: logg}
	if err := svc.init(); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) init() error {
	cfg := s.cfg
	gen, err := rotation.NewGenerator(cfg.Rotation, logger.New("rotation"))
	if err != nil {
		return err
	}
	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	if s.audit, err = audit.Open(cfg.Audit); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	s.bus = eventbus.NewTyped[schedule.Generated](16)
	if cfg.MQTT.Broker != "" {
		a, err := mqtt.NewAnnouncer(cfg.MQTT, s.monitor)
		if err != nil {
			return fmt.Errorf("mqtt announcer: %w", err)
		}
		s.announcer = a
	}
	s.Planner = schedule.NewPlanner(s.store, gen,
		schedule.WithCursorPolicy(cfg.Rotation.CursorPolicy),
		schedule.WithMetrics(s.sink),
		schedule.WithAudit(s.audit),
		schedule.WithEventBus(s.bus),
		schedule.WithMonitor(s.monitor),
		schedule.WithLogger(logger.New("planner")),
	)
	auth := session.NewManager(cfg.Auth.Password, cfg.Auth.PasswordHash, cfg.Auth.TokenTTL)
	if !auth.Enabled() {
		s.log.Warnf("no admin password configured, mutating routes are disabled")
	}
	s.handler = apisched.NewHandler(s.Planner, auth, logger.New("api"))
	return nil
}

// OpenStore opens the schedule store selected by cfg.Driver.
func OpenStore(cfg config.StoreConfig) (schedule.Store, error) {
	switch cfg.Driver {
	case "memory":
		return schedule.NewMemoryStore(), nil
	case "sqlite", "":
		st, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", cfg.Path, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler { return s.handler }

// Seed imports the configured roster into an empty store and schedules the
// configured term when no session exists yet.
func (s *Service) Seed(ctx context.Context) (schedule.SeedResult, error) {
	roster, err := SeedRoster(s.cfg.Roster)
	if err != nil {
		return schedule.SeedResult{}, err
	}
	var dates []model.SessionDate
	if !s.cfg.Calendar.Empty() {
		if dates, err = calendar.Expand(s.cfg.Calendar); err != nil {
			return schedule.SeedResult{}, fmt.Errorf("expand calendar: %w", err)
		}
	}
	return s.Planner.Seed(ctx, roster, dates)
}

// SeedRoster merges the roster file with the inline participants. Inline
// entries win on duplicate roll numbers.
func SeedRoster(cfg config.RosterConfig) ([]model.Participant, error) {
	var out []model.Participant
	if cfg.File != "" {
		ps, err := rosterfile.Load(cfg.File)
		if err != nil {
			return nil, err
		}
		out = ps
	}
	if len(cfg.Participants) == 0 {
		return out, nil
	}
	idx := make(map[string]int, len(out))
	for i, p := range out {
		idx[p.ID] = i
	}
	for _, p := range cfg.Participants {
		if i, ok := idx[p.ID]; ok {
			out[i] = p
			continue
		}
		idx[p.ID] = len(out)
		out = append(out, p)
	}
	return out, nil
}

// Run seeds the store, starts the announcer and the metrics endpoint, and
// serves the API until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer s.monitor.Recover()
	// Subscribe before seeding so the first-start schedule is announced too.
	if s.announcer != nil {
		events := s.bus.Subscribe()
		go s.announcer.Run(ctx, events)
	}
	res, err := s.Seed(ctx)
	if err != nil {
		s.monitor.CaptureException(err, map[string]string{"op": "seed"})
		return err
	}
	if res.Imported > 0 || len(res.Plan.Entries) > 0 {
		s.log.Infof("seeded %d participants and %d sessions", res.Imported, len(res.Plan.Entries))
	}

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.HTTP.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving API on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the store, the audit log and the broker connection.
func (s *Service) Close() error {
	var errs []error
	if s.bus != nil {
		s.bus.Close()
	}
	if s.announcer != nil {
		s.announcer.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.monitor != nil {
		s.monitor.Flush(2 * time.Second)
	}
	return errors.Join(errs...)
}

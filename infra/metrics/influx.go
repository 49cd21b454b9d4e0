package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/infra/logger"
)

// InfluxConfig holds the InfluxDB connection settings of the influx sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes scheduling runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordGeneration writes one schedule_generation point.
func (s *InfluxSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, generationPoint(ev))
}

// RecordReassignment writes one schedule_reassignment point.
func (s *InfluxSink) RecordReassignment(ev coremetrics.ReassignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_reassignment").
		AddTag("role", ev.Role).
		AddTag("date", ev.Date).
		AddField("from", ev.From).
		AddField("to", ev.To).
		AddField("assignment_id", ev.AssignmentID).
		SortTags().
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func generationPoint(ev coremetrics.GenerationEvent) *write.Point {
	return write.NewPointWithMeasurement("schedule_generation").
		AddTag("run_id", ev.RunID).
		AddTag("component", "planner").
		AddField("roster", ev.RosterSize).
		AddField("days", ev.Days).
		AddField("skipped", ev.Skipped).
		AddField("preferred", ev.Preferred).
		AddField("forced", ev.Forced).
		AddField("table_topic", ev.TableTopic).
		AddField("omitted", ev.Omitted).
		AddField("cursor", ev.Cursor).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SortTags().
		SetTime(ev.Time)
}

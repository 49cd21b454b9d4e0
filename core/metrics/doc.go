// Package metrics defines the sinks that observe schedule generation.
// Sinks like PromSink and InfluxSink record generation runs and manual
// reassignments and can be combined with NewMultiSink. NewMetricsSink builds
// sinks from configuration and returns a MultiSink automatically when several
// sinks are configured.
package metrics

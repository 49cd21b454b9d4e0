// Package infra holds the adapters around the rotation core: the SQLite
// schedule store, the generation audit logs, the metrics sinks, the MQTT
// announcer, roster file decoding, Sentry monitoring and zerolog logging.
// Adapters depend on the interfaces declared in core, never the reverse.
package infra

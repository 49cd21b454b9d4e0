package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/rota/config"
	coremon "github.com/kilianp07/rota/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor got %T", m)
	}
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "://not-a-dsn"}); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}

func TestSentryMonitorCapture(t *testing.T) {
	// A syntactically valid DSN; events are buffered and never reach a server
	// before the short flush below times out.
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@127.0.0.1:1/1", Environment: "test"})
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("commit failed"), nil)
	m.CaptureException(errors.New("commit failed"), map[string]string{"op": "plan"})
	m.Flush(10 * time.Millisecond)
}

func TestNewSentryMonitorRejectsSampleRate(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@127.0.0.1:1/1", TracesSampleRate: 2})
	if err == nil {
		t.Fatalf("expected error for sample rate above 1")
	}
}

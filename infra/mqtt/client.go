// Package mqtt announces generated sessions on an MQTT broker.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/rota/core/model"
	coremon "github.com/kilianp07/rota/core/monitoring"
	"github.com/kilianp07/rota/core/schedule"
	"github.com/kilianp07/rota/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	// Broker is the broker URL. An empty broker disables announcements.
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	AuthMethod string `json:"auth_method"`
	// TopicPrefix is prepended to the session date, e.g. "club/schedule".
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	Retain      bool        `json:"retain"`
	LWTTopic    string      `json:"lwt_topic"`
	LWTPayload  string      `json:"lwt_payload"`
	LWTQoS      byte        `json:"lwt_qos"`
	LWTRetain   bool        `json:"lwt_retain"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// SetDefaults fills in the client id, topic prefix and retry policy.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "rota"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "rota/schedule"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the settings when a broker is configured.
func (c Config) Validate() error {
	if c.Broker == "" {
		return nil
	}
	if c.QoS > 2 || c.LWTQoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if strings.ContainsAny(c.TopicPrefix, "+#") {
		return fmt.Errorf("mqtt topic_prefix %q contains wildcards", c.TopicPrefix)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Announcement is the payload published for one session.
type Announcement struct {
	RunID string `json:"runId,omitempty"`
	model.AssignmentEntry
}

// Announcer publishes each generated session on <prefix>/<date>.
type Announcer struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
	monitor    coremon.Monitor
}

// NewAnnouncer connects to the broker described by cfg.
func NewAnnouncer(cfg Config, mon coremon.Monitor) (*Announcer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_announcer")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Announcer{
		cli:        c,
		prefix:     strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
		monitor:    coremon.OrNop(mon),
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns the topic a session date is announced on.
func (a *Announcer) Topic(date string) string {
	return a.prefix + "/" + date
}

// Announce publishes one session, retrying with exponential backoff. Errors
// that survive the retries are reported to the monitor.
func (a *Announcer) Announce(ctx context.Context, runID string, e model.AssignmentEntry) error {
	payload, err := json.Marshal(Announcement{RunID: runID, AssignmentEntry: e})
	if err != nil {
		return err
	}
	topic := a.Topic(e.Date)
	var publishErr error
retry:
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		token := a.cli.Publish(topic, a.qos, a.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			a.logger.Debugf("announced %s on %s", e.Date, topic)
			return nil
		}
		a.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == a.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			publishErr = errors.Join(publishErr, ctx.Err())
			break retry
		case <-time.After(a.backoff * time.Duration(1<<attempt)):
		}
	}
	a.monitor.CaptureException(publishErr, map[string]string{"module": "mqtt", "date": e.Date, "topic": topic})
	return fmt.Errorf("announce %s: %w", e.Date, publishErr)
}

// Run announces the sessions of every Generated event until ctx is done or
// events is closed.
func (a *Announcer) Run(ctx context.Context, events <-chan schedule.Generated) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			for _, e := range ev.Entries {
				if err := a.Announce(ctx, ev.RunID, e); err != nil {
					a.logger.Errorf("run %s: %v", ev.RunID, err)
				}
			}
		}
	}
}

// Disconnect gracefully closes the MQTT connection.
func (a *Announcer) Disconnect() {
	if a.cli != nil && a.cli.IsConnected() {
		a.cli.Disconnect(250)
	}
}

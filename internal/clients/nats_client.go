package clients

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-intents/internal/config"
	"go-intents/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSClient NATS client
type NATSClient struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSClient connects to NATS. Subjects passed to Publish and Subscribe
// are placed under cfg.SubjectPrefix.
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.ReconnectWait) * time.Second
	}
	maxReconnects := -1
	if cfg.MaxReconnects > 0 {
		maxReconnects = cfg.MaxReconnects
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("go-intents"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			metrics.NATSConnectionStatus.Set(0)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	metrics.NATSConnectionStatus.Set(1)

	logrus.WithFields(logrus.Fields{
		"url":     conn.ConnectedUrl(),
		"timeout": connectTimeout,
	}).Info("NATS connected")

	return &NATSClient{conn: conn, prefix: strings.TrimSuffix(cfg.SubjectPrefix, ".")}, nil
}

// Subject returns the full subject for a name
func (c *NATSClient) Subject(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "." + name
}

// Publish marshals v as JSON and publishes it
func (c *NATSClient) Publish(subject string, v interface{}) error {
	full := c.Subject(subject)

	data, err := json.Marshal(v)
	if err != nil {
		metrics.NATSPublishFailures.WithLabelValues(full).Inc()
		return fmt.Errorf("failed to marshal %s message: %w", full, err)
	}

	if err := c.conn.Publish(full, data); err != nil {
		metrics.NATSPublishFailures.WithLabelValues(full).Inc()
		return fmt.Errorf("failed to publish %s: %w", full, err)
	}

	metrics.NATSMessagesPublished.WithLabelValues(full).Inc()
	logrus.WithFields(logrus.Fields{"subject": full, "bytes": len(data)}).Debug("NATS message published")
	return nil
}

// Subscribe delivers raw payloads published on subject
func (c *NATSClient) Subscribe(subject string, handler func(subject string, data []byte)) (*nats.Subscription, error) {
	full := c.Subject(subject)
	sub, err := c.conn.Subscribe(full, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", full, err)
	}
	logrus.WithField("subject", full).Info("NATS subscription active")
	return sub, nil
}

// Close drains and closes the connection
func (c *NATSClient) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}

package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/pkg/metrics"
)

// ChannelHandlers are the callbacks of a push channel. OnClose fires once
// per lost or failed connection.
type ChannelHandlers struct {
	OnOpen    func()
	OnMessage func([]byte)
	OnClose   func(error)
}

// Channel is a push transport that keeps itself connected until ctx ends.
type Channel interface {
	Run(ctx context.Context) error
	Connected() bool
}

// WebsocketURL derives the push endpoint from the page origin.
func WebsocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("base url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("base url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url: missing host")
	}
	u.Path = "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// WSChannel is the websocket push channel. After every close it schedules
// exactly one reconnection after the policy delay.
type WSChannel struct {
	url       string
	dialer    *websocket.Dialer
	policy    *ReconnectPolicy
	h         ChannelHandlers
	m         *metrics.Metrics
	log       *logrus.Entry
	connected atomic.Bool
}

func NewWSChannel(wsURL string, policy *ReconnectPolicy, h ChannelHandlers, m *metrics.Metrics) *WSChannel {
	return &WSChannel{
		url: wsURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		policy: policy,
		h:      h,
		m:      m,
		log:    logrus.WithFields(logrus.Fields{"component": "ws-channel", "url": wsURL}),
	}
}

func (c *WSChannel) Connected() bool { return c.connected.Load() }

// Run blocks until ctx is done.
func (c *WSChannel) Run(ctx context.Context) error {
	for {
		err := c.connectOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		delay := c.policy.Next()
		c.log.WithFields(logrus.Fields{"event": "reconnect", "delay": delay}).WithError(err).
			Info("push channel closed, reconnecting")
		if c.m != nil {
			c.m.Reconnects.Inc()
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (c *WSChannel) connectOnce(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.closed(err)
		return err
	}
	// chiude la connessione alla cancellazione della sessione
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	c.connected.Store(true)
	if c.m != nil {
		c.m.SetConnected(true)
	}
	c.policy.Reset()
	c.log.WithField("event", "open").Info("push channel connected")
	if c.h.OnOpen != nil {
		c.h.OnOpen()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.closed(err)
			return err
		}
		if c.h.OnMessage != nil {
			c.h.OnMessage(data)
		}
	}
}

func (c *WSChannel) closed(err error) {
	c.connected.Store(false)
	if c.m != nil {
		c.m.SetConnected(false)
	}
	if c.h.OnClose != nil {
		c.h.OnClose(err)
	}
}

// Package network distributes parameter updates between the participants of
// a scene over topic-based transports.
package network

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writeWait bounds a single websocket write.
const writeWait = 10 * time.Second

// Client is a Transport backed by websocket connections to a scene server
// hub. It keeps one connection per topic and shares it between publishing
// and subscribing.
type Client struct {
	baseURL string
	dialer  *websocket.Dialer
	log     *zap.Logger

	mu     sync.Mutex
	conns  map[string]*topicConn
	closed bool
}

// topicConn serializes writes to one websocket connection.
type topicConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (tc *topicConn) write(data []byte) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if err := tc.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return tc.conn.WriteMessage(websocket.BinaryMessage, data)
}

// NewClient creates a websocket client for the server at baseURL. The URL may
// use the http, https, ws or wss scheme.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		dialer:  websocket.DefaultDialer,
		log:     log,
		conns:   make(map[string]*topicConn),
	}
}

// TopicURL returns the websocket URL of a topic on the server at baseURL.
func TopicURL(baseURL, topic string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	prefix := strings.TrimSuffix(u.Path, "/")
	rawPrefix := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = prefix + "/ws/" + topic
	u.RawPath = rawPrefix + "/ws/" + url.PathEscape(topic)
	return u.String(), nil
}

// connect returns the connection for topic, dialing it if needed.
func (c *Client) connect(ctx context.Context, topic string) (*topicConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if tc, ok := c.conns[topic]; ok {
		return tc, nil
	}

	addr, err := TopicURL(c.baseURL, topic)
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	tc := &topicConn{conn: conn}
	c.conns[topic] = tc
	c.log.Debug("topic connected", zap.String("topic", topic), zap.String("url", addr))
	return tc, nil
}

// drop closes the connection of topic if it is still tc.
func (c *Client) drop(topic string, tc *topicConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conns[topic] == tc {
		delete(c.conns, topic)
	}
	tc.conn.Close()
}

// IsConnected reports whether a connection for topic is open.
func (c *Client) IsConnected(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.conns[topic]
	return ok
}

// Publish sends data as one binary message on topic.
func (c *Client) Publish(ctx context.Context, topic string, data []byte) error {
	tc, err := c.connect(ctx, topic)
	if err != nil {
		return err
	}
	if err := tc.write(data); err != nil {
		c.drop(topic, tc)
		return fmt.Errorf("publishing on %s: %w", topic, err)
	}
	return nil
}

// Subscribe reads binary messages from topic until ctx is done, the client is
// closed or the connection fails.
func (c *Client) Subscribe(ctx context.Context, topic string, fn Handler) error {
	tc, err := c.connect(ctx, topic)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.drop(topic, tc)
		case <-stop:
		}
	}()

	for {
		typ, msg, err := tc.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.isClosed() {
				return nil
			}
			c.drop(topic, tc)
			return fmt.Errorf("reading %s: %w", topic, err)
		}
		if typ != websocket.BinaryMessage {
			c.log.Debug("ignoring non-binary message", zap.String("topic", topic), zap.Int("type", typ))
			continue
		}
		fn(msg)
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close closes every topic connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for topic, tc := range c.conns {
		tc.mu.Lock()
		tc.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		tc.mu.Unlock()
		tc.conn.Close()
		delete(c.conns, topic)
	}
	return nil
}

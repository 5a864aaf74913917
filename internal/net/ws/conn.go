package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/dntelisa/SR-S9-Projet-Client/internal/net/transport"
	"github.com/dntelisa/SR-S9-Projet-Client/internal/telemetry"
)

const (
	defaultPongWait  = 60 * time.Second
	defaultWriteWait = 10 * time.Second
	defaultReadLimit = 1 << 20
)

// Options tunes a single connection. Zero values pick the defaults.
type Options struct {
	Dialer     *websocket.Dialer
	Header     http.Header
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
	ReadLimit  int64
	Logger     telemetry.Logger
}

func (o Options) withDefaults() Options {
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = defaultReadLimit
	}
	if o.Logger == nil {
		o.Logger = telemetry.Discard()
	}
	return o
}

// Conn is one live websocket connection. Handler callbacks come from a single
// read goroutine, except Opened which runs inside Dial.
type Conn struct {
	url     string
	ws      *websocket.Conn
	handler transport.Handler
	opts    Options

	writeMu  sync.Mutex
	stopped  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	quit     chan struct{}

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

// Dial connects to url and starts the read loop. The handler sees Opened
// before any Message. Dial failures are returned and never reach the handler.
func Dial(ctx context.Context, url string, handler transport.Handler, opts Options) (*Conn, error) {
	opts = opts.withDefaults()
	wsConn, resp, err := opts.Dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", url, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Conn{
		url:     url,
		ws:      wsConn,
		handler: handler,
		opts:    opts,
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
	}
	wsConn.SetReadLimit(opts.ReadLimit)
	_ = wsConn.SetReadDeadline(time.Now().Add(opts.PongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	handler.Opened(c)
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			c.finish(err)
			return
		}
		if c.stopped.Load() {
			continue
		}
		c.bytesIn.Add(uint64(len(payload)))
		c.handler.Message(payload)
	}
}

func (c *Conn) finish(err error) {
	c.opts.Logger.Printf("connection to %s ended after %s in, %s out: %v",
		c.url, humanize.Bytes(c.bytesIn.Load()), humanize.Bytes(c.bytesOut.Load()), err)
	if c.stopped.Load() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.handler.Closed()
		return
	}
	c.handler.Error(err)
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(c.opts.WriteWait)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-c.quit:
			return
		case <-c.done:
			return
		}
	}
}

// Send writes one text frame.
func (c *Conn) Send(payload []byte) error {
	if c.stopped.Load() {
		return ErrStopped
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	c.bytesOut.Add(uint64(len(payload)))
	return nil
}

// Stop closes the connection and waits for the read loop to exit. No handler
// callback runs after Stop returns. It must not be called from a callback.
func (c *Conn) Stop() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		close(c.quit)
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(c.opts.WriteWait))
		_ = c.ws.Close()
	})
	<-c.done
}

// Done is closed once the read loop has exited.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Stats reports payload bytes received and sent.
func (c *Conn) Stats() (in, out uint64) {
	return c.bytesIn.Load(), c.bytesOut.Load()
}

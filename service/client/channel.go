package client

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/itiky/collaborate-canvas/model"
)

const (
	// SocketPath is the relay WebSocket endpoint path.
	SocketPath = "/socket"

	writeTimeout = 5 * time.Second
)

type (
	// Handler handles one inbound envelope.
	Handler func(env model.Envelope)

	// Channel is the bidirectional replication channel to the relay server.
	// It reconnects automatically with a bounded number of attempts, outbound
	// messages are fire-and-forget and dropped while disconnected.
	Channel struct {
		// Config
		reconnectAttempts int           // max sequential failed connect attempts
		reconnectDelay    time.Duration // first retry delay
		reconnectMaxDelay time.Duration // retry delay cap
		outboundSize      int           // outbound queue size
		dialer            *websocket.Dialer
		// State
		connected atomic.Bool
		connLock  sync.Mutex
		conn      *websocket.Conn
		outCh     chan model.Envelope // current connection outbound queue
		//
		handlersLock sync.RWMutex
		handlers     map[model.EventName][]Handler
		//
		endpoint string
		stopCh   chan struct{}
		doneCh   chan struct{}
	}
)

// String implements the stringer interface.
func (c *Channel) String() string {
	return fmt.Sprintf("Channel (%s)", c.endpoint)
}

// IsConnected checks if the channel is currently connected.
func (c *Channel) IsConnected() bool {
	return c.connected.Load()
}

// Connect starts the connection worker. It returns immediately, use IsConnected or
// OnConnect to observe the link state. Calling Connect on a running channel is a no-op.
func (c *Channel) Connect(endpoint string) error {
	c.connLock.Lock()
	defer c.connLock.Unlock()

	if c.stopCh != nil {
		return nil
	}

	socketUrl, err := SocketUrl(endpoint)
	if err != nil {
		return err
	}

	c.endpoint = socketUrl
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.worker(c.stopCh, c.doneCh)

	return nil
}

// Disconnect stops the connection worker and drops the queued messages.
// Must not be called from a Handler.
func (c *Channel) Disconnect() {
	c.connLock.Lock()
	if c.stopCh == nil {
		c.connLock.Unlock()
		return
	}
	close(c.stopCh)
	doneCh := c.doneCh
	c.stopCh, c.doneCh = nil, nil
	if c.conn != nil {
		c.conn.Close()
	}
	c.connLock.Unlock()

	<-doneCh
}

// Join subscribes to the session messages.
func (c *Channel) Join(sessionId model.SessionId, clientId model.ClientId) {
	c.send(model.JoinEvent, model.JoinMessage{SessionId: sessionId, ClientId: clientId})
}

// Leave unsubscribes from the session messages.
func (c *Channel) Leave(sessionId model.SessionId, clientId model.ClientId) {
	c.send(model.LeaveEvent, model.LeaveMessage{SessionId: sessionId, ClientId: clientId})
}

// EmitElementAdd implements the editor.Replicator interface.
func (c *Channel) EmitElementAdd(sessionId model.SessionId, clientId model.ClientId, timestamp int64, element model.Element) {
	c.send(model.ElementAddEvent, model.ElementAddMessage{
		Header:  newHeader(sessionId, clientId, timestamp),
		Element: element,
	})
}

// EmitElementUpdate implements the editor.Replicator interface.
func (c *Channel) EmitElementUpdate(sessionId model.SessionId, clientId model.ClientId, timestamp int64, elementId string, updates model.ElementPatch) {
	c.send(model.ElementUpdateEvent, model.ElementUpdateMessage{
		Header:    newHeader(sessionId, clientId, timestamp),
		ElementId: elementId,
		Updates:   updates,
	})
}

// EmitElementDelete implements the editor.Replicator interface.
func (c *Channel) EmitElementDelete(sessionId model.SessionId, clientId model.ClientId, timestamp int64, elementId string) {
	c.send(model.ElementDeleteEvent, model.ElementDeleteMessage{
		Header:    newHeader(sessionId, clientId, timestamp),
		ElementId: elementId,
	})
}

// EmitBackgroundChange implements the editor.Replicator interface.
func (c *Channel) EmitBackgroundChange(sessionId model.SessionId, clientId model.ClientId, timestamp int64, canvasBackground string) {
	c.send(model.BackgroundChangeEvent, model.BackgroundChangeMessage{
		Header:           newHeader(sessionId, clientId, timestamp),
		CanvasBackground: canvasBackground,
	})
}

// EmitResize implements the editor.Replicator interface.
func (c *Channel) EmitResize(sessionId model.SessionId, clientId model.ClientId, timestamp int64, width, height int) {
	c.send(model.ResizeEvent, model.ResizeMessage{
		Header: newHeader(sessionId, clientId, timestamp),
		Width:  width,
		Height: height,
	})
}

// EmitNameChange implements the editor.Replicator interface.
func (c *Channel) EmitNameChange(sessionId model.SessionId, clientId model.ClientId, timestamp int64, name string) {
	c.send(model.NameChangeEvent, model.NameChangeMessage{
		Header: newHeader(sessionId, clientId, timestamp),
		Name:   name,
	})
}

// EmitUpdate implements the editor.Replicator interface.
func (c *Channel) EmitUpdate(sessionId model.SessionId, clientId model.ClientId, timestamp int64, changes model.FullUpdate) {
	c.send(model.UpdateEvent, model.FullUpdateMessage{
		Header:  newHeader(sessionId, clientId, timestamp),
		Changes: changes,
	})
}

// On registers an inbound event handler.
// Handlers are called sequentially on the channel reader goroutine.
func (c *Channel) On(event model.EventName, h Handler) {
	c.handlersLock.Lock()
	defer c.handlersLock.Unlock()

	c.handlers[event] = append(c.handlers[event], h)
}

// RemoveAllListeners drops all handlers registered for the event.
func (c *Channel) RemoveAllListeners(event model.EventName) {
	c.handlersLock.Lock()
	defer c.handlersLock.Unlock()

	delete(c.handlers, event)
}

// ListenersCount returns the number of handlers registered for the event.
func (c *Channel) ListenersCount(event model.EventName) int {
	c.handlersLock.RLock()
	defer c.handlersLock.RUnlock()

	return len(c.handlers[event])
}

func (c *Channel) OnUserJoined(fn func(msg model.PresenceMessage)) {
	c.On(model.UserJoinedEvent, decodeHandler(fn))
}

func (c *Channel) OnUserLeft(fn func(msg model.PresenceMessage)) {
	c.On(model.UserLeftEvent, decodeHandler(fn))
}

func (c *Channel) OnElementAdded(fn func(msg model.ElementAddMessage)) {
	c.On(model.ElementAddedEvent, decodeHandler(fn))
}

func (c *Channel) OnElementUpdated(fn func(msg model.ElementUpdateMessage)) {
	c.On(model.ElementUpdatedEvent, decodeHandler(fn))
}

func (c *Channel) OnElementDeleted(fn func(msg model.ElementDeleteMessage)) {
	c.On(model.ElementDeletedEvent, decodeHandler(fn))
}

func (c *Channel) OnBackgroundChanged(fn func(msg model.BackgroundChangeMessage)) {
	c.On(model.BackgroundChangedEvent, decodeHandler(fn))
}

func (c *Channel) OnCanvasResized(fn func(msg model.ResizeMessage)) {
	c.On(model.ResizedEvent, decodeHandler(fn))
}

func (c *Channel) OnDesignNameChanged(fn func(msg model.NameChangeMessage)) {
	c.On(model.NameChangedEvent, decodeHandler(fn))
}

func (c *Channel) OnDesignUpdate(fn func(msg model.FullUpdateMessage)) {
	c.On(model.UpdateReceivedEvent, decodeHandler(fn))
}

func (c *Channel) OnConnect(fn func()) {
	c.On(model.ConnectEvent, func(model.Envelope) { fn() })
}

func (c *Channel) OnDisconnect(fn func()) {
	c.On(model.DisconnectEvent, func(model.Envelope) { fn() })
}

// OnConnectError registers a connect failure handler, attempt is the sequential failed attempt number.
func (c *Channel) OnConnectError(fn func(attempt int)) {
	c.On(model.ConnectErrorEvent, func(env model.Envelope) {
		var attempt int
		if err := env.Decode(&attempt); err != nil {
			log.Printf("Channel: %v", err)
			return
		}
		fn(attempt)
	})
}

// send queues an outbound message, dropping it if disconnected or if the queue is full.
func (c *Channel) send(event model.EventName, payload interface{}) {
	if !c.IsConnected() {
		monitor.MessageDropped()
		return
	}

	env, err := model.NewEnvelope(event, payload)
	if err != nil {
		log.Printf("%s: %v", c.String(), err)
		return
	}

	c.connLock.Lock()
	outCh := c.outCh
	c.connLock.Unlock()
	if outCh == nil {
		monitor.MessageDropped()
		return
	}

	select {
	case outCh <- env:
		monitor.MessageEmitted()
	default:
		log.Printf("%s: outbound queue is full: %s dropped", c.String(), event)
		monitor.MessageDropped()
	}
}

// dispatch calls event handlers sequentially.
func (c *Channel) dispatch(env model.Envelope) {
	c.handlersLock.RLock()
	handlers := make([]Handler, len(c.handlers[env.Event]))
	copy(handlers, c.handlers[env.Event])
	c.handlersLock.RUnlock()

	for _, h := range handlers {
		h(env)
	}
}

// dispatchLifecycle calls lifecycle event handlers.
func (c *Channel) dispatchLifecycle(event model.EventName, payload interface{}) {
	env := model.Envelope{Event: event, Data: []byte("null")}
	if payload != nil {
		var err error
		if env, err = model.NewEnvelope(event, payload); err != nil {
			log.Printf("%s: %v", c.String(), err)
			return
		}
	}

	c.dispatch(env)
}

// worker does the actual job: (re)connects and serves connections until stopped.
func (c *Channel) worker(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	log.Printf("%s: start", c.String())
	defer log.Printf("%s: stop", c.String())

	attempt, delay := 0, c.reconnectDelay
	for {
		conn, _, err := c.dialer.Dial(c.endpoint, nil)
		if err != nil {
			attempt++
			monitor.ConnectFailed()
			log.Printf("%s: connect attempt %d/%d: %v", c.String(), attempt, c.reconnectAttempts, err)
			c.dispatchLifecycle(model.ConnectErrorEvent, attempt)

			if attempt >= c.reconnectAttempts {
				log.Printf("%s: reconnect attempts exhausted, working offline", c.String())
				return
			}

			select {
			case <-time.After(delay):
			case <-stopCh:
				return
			}

			delay *= 2
			if delay > c.reconnectMaxDelay {
				delay = c.reconnectMaxDelay
			}
			continue
		}

		attempt, delay = 0, c.reconnectDelay
		if !c.serve(conn, stopCh) {
			return
		}
	}
}

// serve runs the connection reader until the connection drops.
// Returns false if the channel was stopped.
func (c *Channel) serve(conn *websocket.Conn, stopCh chan struct{}) bool {
	outCh := make(chan model.Envelope, c.outboundSize)
	connDoneCh := make(chan struct{})

	c.connLock.Lock()
	select {
	case <-stopCh:
		c.connLock.Unlock()
		conn.Close()
		return false
	default:
	}
	c.conn, c.outCh = conn, outCh
	c.connected.Store(true)
	c.connLock.Unlock()

	log.Printf("%s: connected", c.String())
	go c.writer(conn, outCh, connDoneCh)
	c.dispatchLifecycle(model.ConnectEvent, nil)

	for {
		var env model.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-stopCh:
			default:
				log.Printf("%s: read: %v", c.String(), err)
			}
			break
		}
		c.dispatch(env)
	}

	// Queued messages of a dead connection are discarded (no replay)
	c.connLock.Lock()
	c.connected.Store(false)
	c.conn, c.outCh = nil, nil
	c.connLock.Unlock()
	close(connDoneCh)
	conn.Close()

	log.Printf("%s: disconnected", c.String())
	c.dispatchLifecycle(model.DisconnectEvent, nil)

	select {
	case <-stopCh:
		return false
	default:
		return true
	}
}

// writer drains the connection outbound queue.
func (c *Channel) writer(conn *websocket.Conn, outCh <-chan model.Envelope, connDoneCh <-chan struct{}) {
	for {
		select {
		case <-connDoneCh:
			return
		case env := <-outCh:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(env); err != nil {
				log.Printf("%s: write %s: %v", c.String(), env.Event, err)
				conn.Close()
				return
			}
		}
	}
}

func newHeader(sessionId model.SessionId, clientId model.ClientId, timestamp int64) model.Header {
	return model.Header{SessionId: sessionId, ClientId: clientId, Timestamp: timestamp}
}

// decodeHandler builds a Handler decoding the envelope payload into T.
func decodeHandler[T any](fn func(msg T)) Handler {
	return func(env model.Envelope) {
		var msg T
		if err := env.Decode(&msg); err != nil {
			log.Printf("Channel: inbound message dropped: %v", err)
			return
		}
		fn(msg)
	}
}

// SocketUrl builds the relay WebSocket URL from a host:port or an http(s)/ws(s) URL.
func SocketUrl(endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("%s: empty", "endpoint")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "ws://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("url.Parse(%s): %w", endpoint, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%s: unsupported scheme %q", "endpoint", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = SocketPath
	}

	return u.String(), nil
}

// NewChannel creates a new Channel object.
func NewChannel(reconnectAttempts int, reconnectDelay, reconnectMaxDelay time.Duration, outboundSize int) (*Channel, error) {
	if reconnectAttempts <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "reconnectAttempts")
	}
	if reconnectDelay <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "reconnectDelay")
	}
	if reconnectMaxDelay < reconnectDelay {
		return nil, fmt.Errorf("%s: must be GTE %s", "reconnectMaxDelay", "reconnectDelay")
	}
	if outboundSize <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "outboundSize")
	}

	return &Channel{
		reconnectAttempts: reconnectAttempts,
		reconnectDelay:    reconnectDelay,
		reconnectMaxDelay: reconnectMaxDelay,
		outboundSize:      outboundSize,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		handlers: make(map[model.EventName][]Handler),
	}, nil
}

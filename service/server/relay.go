package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/itiky/collaborate-canvas/model"
)

const (
	registerPeerEvent peerEventKind = iota
	unregisterPeerEvent
	messagePeerEvent
)

const (
	persistQueueSize = 256
	persistTimeout   = 5 * time.Second
	writeTimeout     = 5 * time.Second
)

type (
	// DesignUpdater persists the session changes received by the relay.
	DesignUpdater interface {
		UpdateDesign(ctx context.Context, id string, upd model.DesignUpdate) (model.Design, error)
	}

	// peer is a single relay connection.
	peer struct {
		id        uint64
		conn      *websocket.Conn
		outCh     chan model.Envelope
		sessionId model.SessionId
		clientId  model.ClientId
	}

	// peerEvent is a peer state change or message, events of one peer are handled in order.
	peerEvent struct {
		peer *peer
		kind peerEventKind
		env  model.Envelope
	}

	peerEventKind int

	persistRequest struct {
		sessionId model.SessionId
		upd       model.DesignUpdate
	}

	// Relay fans session messages out to the other session peers.
	// Rooms are owned by the hub worker, every state change goes through eventsCh.
	Relay struct {
		// Config
		outboundSize int
		// Components
		store    DesignUpdater
		upgrader websocket.Upgrader
		// State
		rooms     map[model.SessionId]map[*peer]bool
		peers     map[*peer]bool
		nextPeer  atomic.Uint64
		eventsCh  chan peerEvent
		persistCh chan persistRequest
		//
		stopCh chan interface{}
	}
)

// ServeHTTP upgrades the request and serves the peer connection.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	stopCh := r.stopCh
	if stopCh == nil {
		http.Error(w, "relay is not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("Relay: upgrade: %v", err)
		return
	}

	p := &peer{
		id:    r.nextPeer.Add(1),
		conn:  conn,
		outCh: make(chan model.Envelope, r.outboundSize),
	}
	send := func(kind peerEventKind, env model.Envelope) bool {
		select {
		case r.eventsCh <- peerEvent{peer: p, kind: kind, env: env}:
			return true
		case <-stopCh:
			return false
		}
	}

	if !send(registerPeerEvent, model.Envelope{}) {
		conn.Close()
		return
	}
	go p.writer()

	for {
		var env model.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			break
		}
		if !send(messagePeerEvent, env) {
			return
		}
	}
	send(unregisterPeerEvent, model.Envelope{})
}

// Start starts the Relay workers.
func (r *Relay) Start() {
	if r.stopCh != nil {
		return
	}
	r.stopCh = make(chan interface{})

	go r.worker()
	go r.persister()
}

// Stop stops the Relay workers.
func (r *Relay) Stop() {
	if r.stopCh == nil {
		return
	}

	close(r.stopCh)
}

// worker is the hub: it does the actual job.
func (r *Relay) worker() {
	log.Println("Relay: start")

	for {
		select {
		case <-r.stopCh:
			// Relay stop
			for p := range r.peers {
				p.conn.Close()
				close(p.outCh)
			}
			log.Println("Relay: stop")
			return
		case ev := <-r.eventsCh:
			switch ev.kind {
			case registerPeerEvent:
				// New connection
				r.peers[ev.peer] = true
				go monitor.PeersChanged(len(r.peers))
			case unregisterPeerEvent:
				// Connection lost
				r.leave(ev.peer)
				delete(r.peers, ev.peer)
				close(ev.peer.outCh)
				go monitor.PeersChanged(len(r.peers))
			case messagePeerEvent:
				// Peer message
				r.handle(ev.peer, ev.env)
			}
		}
	}
}

// handle routes a peer message.
func (r *Relay) handle(p *peer, env model.Envelope) {
	switch env.Event {
	case model.JoinEvent:
		var msg model.JoinMessage
		if err := env.Decode(&msg); err != nil {
			log.Printf("Relay: peer %d: %v", p.id, err)
			return
		}
		r.join(p, msg.SessionId, msg.ClientId)
		return
	case model.LeaveEvent:
		r.leave(p)
		return
	}

	relayedEvent, ok := env.Event.Relayed()
	if !ok {
		log.Printf("Relay: peer %d: unsupported event %q", p.id, env.Event)
		return
	}

	if p.sessionId == "" {
		log.Printf("Relay: peer %d: %s before join dropped", p.id, env.Event)
		return
	}

	var header model.Header
	if err := env.Decode(&header); err != nil {
		log.Printf("Relay: peer %d: %v", p.id, err)
		return
	}
	if header.SessionId != p.sessionId {
		log.Printf("Relay: peer %d: %s for session %s (joined %s) dropped", p.id, env.Event, header.SessionId, p.sessionId)
		return
	}

	r.broadcast(p.sessionId, model.Envelope{Event: relayedEvent, Data: env.Data}, p)
	go monitor.MessageRelayed()

	switch env.Event {
	case model.UpdateEvent:
		var msg model.FullUpdateMessage
		if err := env.Decode(&msg); err != nil {
			log.Printf("Relay: peer %d: %v", p.id, err)
			return
		}
		r.persist(p.sessionId, fullUpdateToDesignUpdate(msg.Changes))
	case model.NameChangeEvent:
		var msg model.NameChangeMessage
		if err := env.Decode(&msg); err != nil {
			log.Printf("Relay: peer %d: %v", p.id, err)
			return
		}
		if msg.Name != "" {
			r.persist(p.sessionId, model.DesignUpdate{Name: model.Str(msg.Name)})
		}
	}
}

// join moves the peer to the session room and notifies the room.
func (r *Relay) join(p *peer, sessionId model.SessionId, clientId model.ClientId) {
	if sessionId == "" {
		return
	}
	if p.sessionId == sessionId {
		return
	}
	r.leave(p)

	room, ok := r.rooms[sessionId]
	if !ok {
		room = make(map[*peer]bool)
		r.rooms[sessionId] = room
	}
	room[p] = true
	p.sessionId, p.clientId = sessionId, clientId

	r.presence(model.UserJoinedEvent, sessionId)
}

// leave removes the peer from its room and notifies the rest of the room.
func (r *Relay) leave(p *peer) {
	if p.sessionId == "" {
		return
	}

	sessionId := p.sessionId
	room := r.rooms[sessionId]
	delete(room, p)
	p.sessionId, p.clientId = "", ""

	if len(room) == 0 {
		delete(r.rooms, sessionId)
		return
	}
	r.presence(model.UserLeftEvent, sessionId)
}

// presence sends the room size to every room peer.
func (r *Relay) presence(event model.EventName, sessionId model.SessionId) {
	env, err := model.NewEnvelope(event, model.PresenceMessage{
		SessionId:   sessionId,
		ActiveUsers: len(r.rooms[sessionId]),
	})
	if err != nil {
		log.Printf("Relay: %v", err)
		return
	}

	r.broadcast(sessionId, env, nil)
}

// broadcast sends the envelope to every room peer except the sender.
func (r *Relay) broadcast(sessionId model.SessionId, env model.Envelope, sender *peer) {
	for p := range r.rooms[sessionId] {
		if p == sender {
			continue
		}

		select {
		case p.outCh <- env:
		default:
			log.Printf("Relay: peer %d: outbound queue is full: %s dropped", p.id, env.Event)
		}
	}
}

// persist queues the design update for the persister.
func (r *Relay) persist(sessionId model.SessionId, upd model.DesignUpdate) {
	if r.store == nil || sessionId == "" {
		return
	}

	select {
	case r.persistCh <- persistRequest{sessionId: sessionId, upd: upd}:
	default:
		log.Printf("Relay: persist queue is full: %s update dropped", sessionId)
	}
}

// persister stores the queued design updates in order.
func (r *Relay) persister() {
	for {
		select {
		case <-r.stopCh:
			return
		case req := <-r.persistCh:
			start := time.Now()

			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			_, err := r.store.UpdateDesign(ctx, string(req.sessionId), req.upd)
			cancel()
			if err != nil {
				log.Printf("Relay: persisting %s: %v", req.sessionId, err)
				continue
			}

			go monitor.DesignPersisted(time.Since(start))
		}
	}
}

// writer drains the peer outbound queue until it is closed by the hub.
func (p *peer) writer() {
	defer p.conn.Close()

	for env := range p.outCh {
		p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := p.conn.WriteJSON(env); err != nil {
			log.Printf("Relay: peer %d: write %s: %v", p.id, env.Event, err)
			return
		}
	}
}

// fullUpdateToDesignUpdate converts the present full update fields into a partial design update.
func fullUpdateToDesignUpdate(u model.FullUpdate) model.DesignUpdate {
	upd := model.DesignUpdate{
		Elements: u.Elements,
	}
	if u.CanvasBackground != "" {
		upd.CanvasBackground = model.Str(u.CanvasBackground)
	}
	if u.Width > 0 {
		upd.Width = model.Int(u.Width)
	}
	if u.Height > 0 {
		upd.Height = model.Int(u.Height)
	}

	return upd
}

// NewRelay creates a new Relay object.
// store might be nil to disable persistence.
func NewRelay(store DesignUpdater, chSize, outboundSize int) (*Relay, error) {
	if chSize < 0 {
		return nil, fmt.Errorf("%s: must be GTE 0", "chSize")
	}
	if outboundSize <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "outboundSize")
	}

	return &Relay{
		outboundSize: outboundSize,
		store:        store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		rooms:     make(map[model.SessionId]map[*peer]bool),
		peers:     make(map[*peer]bool),
		eventsCh:  make(chan peerEvent, chSize),
		persistCh: make(chan persistRequest, persistQueueSize),
	}, nil
}

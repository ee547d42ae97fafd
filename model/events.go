package model

import (
	"encoding/json"
	"fmt"
)

// EventName is a replication channel event name.
type EventName string

// Client -> relay events.
const (
	JoinEvent             EventName = "design:join"
	LeaveEvent            EventName = "design:leave"
	ElementAddEvent       EventName = "design:element-add"
	ElementUpdateEvent    EventName = "design:element-update"
	ElementDeleteEvent    EventName = "design:element-delete"
	BackgroundChangeEvent EventName = "design:background-change"
	ResizeEvent           EventName = "design:resize"
	NameChangeEvent       EventName = "design:name-change"
	UpdateEvent           EventName = "design:update"
)

// Relay -> client events.
const (
	UserJoinedEvent        EventName = "design:user-joined"
	UserLeftEvent          EventName = "design:user-left"
	ElementAddedEvent      EventName = "design:element-added"
	ElementUpdatedEvent    EventName = "design:element-updated"
	ElementDeletedEvent    EventName = "design:element-deleted"
	BackgroundChangedEvent EventName = "design:background-changed"
	ResizedEvent           EventName = "design:resized"
	NameChangedEvent       EventName = "design:name-changed"
	UpdateReceivedEvent    EventName = "design:update-received"
)

// Connection lifecycle events (local only, never on the wire).
const (
	ConnectEvent      EventName = "connect"
	DisconnectEvent   EventName = "disconnect"
	ConnectErrorEvent EventName = "connect_error"
)

// relayedEvents maps an outbound mutation event to the name peers receive it under.
var relayedEvents = map[EventName]EventName{
	ElementAddEvent:       ElementAddedEvent,
	ElementUpdateEvent:    ElementUpdatedEvent,
	ElementDeleteEvent:    ElementDeletedEvent,
	BackgroundChangeEvent: BackgroundChangedEvent,
	ResizeEvent:           ResizedEvent,
	NameChangeEvent:       NameChangedEvent,
	UpdateEvent:           UpdateReceivedEvent,
}

// InboundEvents is the fixed set of events a session listens to.
var InboundEvents = []EventName{
	UserJoinedEvent,
	UserLeftEvent,
	ElementAddedEvent,
	ElementUpdatedEvent,
	ElementDeletedEvent,
	BackgroundChangedEvent,
	ResizedEvent,
	NameChangedEvent,
	UpdateReceivedEvent,
}

// Relayed returns the inbound event name for an outbound mutation event.
func (e EventName) Relayed() (EventName, bool) {
	name, ok := relayedEvents[e]
	return name, ok
}

type (
	// Header is carried by every mutation message.
	// Timestamp is the send time in epoch millis, informational only.
	Header struct {
		SessionId SessionId `json:"sessionId"`
		ClientId  ClientId  `json:"clientId,omitempty"`
		Timestamp int64     `json:"timestamp,omitempty"`
	}

	JoinMessage struct {
		SessionId SessionId `json:"sessionId"`
		ClientId  ClientId  `json:"clientId"`
	}

	LeaveMessage struct {
		SessionId SessionId `json:"sessionId"`
		ClientId  ClientId  `json:"clientId,omitempty"`
	}

	ElementAddMessage struct {
		Header
		Element Element `json:"element"`
	}

	ElementUpdateMessage struct {
		Header
		ElementId string       `json:"elementId"`
		Updates   ElementPatch `json:"updates"`
	}

	ElementDeleteMessage struct {
		Header
		ElementId string `json:"elementId"`
	}

	BackgroundChangeMessage struct {
		Header
		CanvasBackground string `json:"canvasBackground"`
	}

	ResizeMessage struct {
		Header
		Width  int `json:"width"`
		Height int `json:"height"`
	}

	NameChangeMessage struct {
		Header
		Name string `json:"name"`
	}

	FullUpdateMessage struct {
		Header
		Changes FullUpdate `json:"changes"`
	}

	// FullUpdate is an authoritative state broadcast, absent fields are left untouched.
	// A nil Elements list is absent, an empty one clears the canvas.
	FullUpdate struct {
		Elements         []Element `json:"elements"`
		CanvasBackground string    `json:"canvasBackground,omitempty"`
		Width            int       `json:"width,omitempty"`
		Height           int       `json:"height,omitempty"`
	}

	PresenceMessage struct {
		SessionId   SessionId `json:"sessionId"`
		ActiveUsers int       `json:"activeUsers"`
	}

	// Envelope is the wire frame: one event with its JSON payload.
	Envelope struct {
		Event EventName       `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
)

// NewFullUpdate builds a full update from a snapshot.
func NewFullUpdate(s Snapshot) FullUpdate {
	return FullUpdate{
		Elements:         CloneElements(s.Elements),
		CanvasBackground: s.CanvasBackground,
		Width:            s.CanvasWidth,
		Height:           s.CanvasHeight,
	}
}

// NewEnvelope encodes the payload into an Envelope.
func NewEnvelope(event EventName, payload interface{}) (Envelope, error) {
	if event == "" {
		return Envelope{}, fmt.Errorf("%s: empty", "event")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}

	return Envelope{Event: event, Data: data}, nil
}

// Decode unmarshals the envelope payload into dst.
func (e Envelope) Decode(dst interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Event)
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.Event, err)
	}

	return nil
}

package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itiky/collaborate-canvas/canvas"
	"github.com/itiky/collaborate-canvas/editor"
	"github.com/itiky/collaborate-canvas/model"
)

// Session states.
const (
	DisconnectedState SessionState = "disconnected"
	ConnectingState   SessionState = "connecting"
	JoinedState       SessionState = "joined"
	LeavingState      SessionState = "leaving"
	DegradedState     SessionState = "degraded" // session is open, edits stay local
)

type (
	SessionState string

	// DesignsApi is the persistence API used by Session.
	DesignsApi interface {
		Get(ctx context.Context, id string) (model.Design, error)
		Update(ctx context.Context, id string, upd model.DesignUpdate) (model.Design, error)
	}

	// Session binds one open design to the replication channel.
	Session struct {
		sync.Mutex
		// Config
		endpoint  string
		pollCount int           // connection polls before degrading
		pollDur   time.Duration // connection poll period
		// Components
		api     DesignsApi
		channel *Channel
		editor  *editor.Editor
		// State
		state        SessionState
		sessionId    model.SessionId
		clientId     model.ClientId
		boundSession model.SessionId // session the inbound listeners were bound for
	}
)

// String implements the stringer interface.
func (s *Session) String() string {
	return fmt.Sprintf("Session (%s)", s.sessionId)
}

// Editor returns the session editor.
func (s *Session) Editor() *editor.Editor {
	return s.editor
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.Lock()
	defer s.Unlock()

	return s.state
}

// Ids returns the open session and the local client ids.
func (s *Session) Ids() (model.SessionId, model.ClientId) {
	s.Lock()
	defer s.Unlock()

	return s.sessionId, s.clientId
}

// Open fetches the design and joins its collaborative session.
// Failing to connect is not an error: the session is degraded to local-only editing.
func (s *Session) Open(ctx context.Context, designId string) error {
	s.Lock()
	defer s.Unlock()

	if designId == "" {
		return fmt.Errorf("%s: empty", "designId")
	}
	if s.sessionId != "" {
		if s.sessionId == model.SessionId(designId) {
			return nil
		}
		s.close()
	}

	s.state = ConnectingState
	design, err := s.api.Get(ctx, designId)
	if err != nil {
		s.state = DisconnectedState
		return fmt.Errorf("design %s: %w", designId, err)
	}

	if err := s.channel.Connect(s.endpoint); err != nil {
		s.state = DisconnectedState
		return fmt.Errorf("channel.Connect: %w", err)
	}
	connected, err := s.waitConnected(ctx)
	if err != nil {
		s.state = DisconnectedState
		return err
	}

	s.sessionId = model.SessionId(design.Id)
	s.clientId = model.ClientId(uuid.New().String())

	s.editor.Open(design, s.sessionId, s.clientId)
	if s.boundSession != s.sessionId {
		s.bindListeners()
		s.boundSession = s.sessionId
	}

	if connected {
		s.channel.Join(s.sessionId, s.clientId)
		s.state = JoinedState
	} else {
		log.Printf("%s: not connected, editing locally", s.String())
		s.state = DegradedState
	}
	log.Printf("%s: opened by %s (%s)", s.String(), s.clientId, s.state)

	return nil
}

// Close leaves the session and resets the editor.
func (s *Session) Close() {
	s.Lock()
	defer s.Unlock()

	s.close()
}

func (s *Session) close() {
	if s.sessionId == "" {
		return
	}

	s.state = LeavingState
	s.channel.Leave(s.sessionId, s.clientId)
	s.editor.Close()
	log.Printf("%s: closed", s.String())

	s.sessionId, s.clientId = "", ""
	s.state = DisconnectedState
}

// Save persists the current design state, then broadcasts it as a full update.
// On failure the editor state is left untouched.
func (s *Session) Save(ctx context.Context) error {
	sessionId, _ := s.Ids()
	if sessionId == "" {
		return fmt.Errorf("no open session")
	}

	d := s.editor.Design()
	upd := model.DesignUpdate{
		Name:             model.Str(d.Name),
		Width:            model.Int(d.Width),
		Height:           model.Int(d.Height),
		CanvasBackground: model.Str(d.CanvasBackground),
		Elements:         d.Elements,
	}

	start := time.Now()
	if _, err := s.api.Update(ctx, string(sessionId), upd); err != nil {
		return fmt.Errorf("design %s save: %w", sessionId, err)
	}
	monitor.DesignSaved(time.Since(start))

	s.editor.BroadcastFullUpdate()
	s.editor.MarkSaved()

	return nil
}

// Rename persists the design name and notifies peers.
func (s *Session) Rename(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%s: empty", "name")
	}

	sessionId, _ := s.Ids()
	if sessionId == "" {
		return fmt.Errorf("no open session")
	}

	if _, err := s.api.Update(ctx, string(sessionId), model.DesignUpdate{Name: model.Str(name)}); err != nil {
		return fmt.Errorf("design %s rename: %w", sessionId, err)
	}
	s.editor.RenameDesign(name)

	return nil
}

// waitConnected polls the channel connection state.
func (s *Session) waitConnected(ctx context.Context) (bool, error) {
	for i := 0; i < s.pollCount; i++ {
		if s.channel.IsConnected() {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(s.pollDur):
		}
	}

	return s.channel.IsConnected(), nil
}

// bindListeners replaces the session inbound listeners.
func (s *Session) bindListeners() {
	for _, event := range model.InboundEvents {
		s.channel.RemoveAllListeners(event)
	}

	c := s.channel
	c.OnUserJoined(s.onPresence)
	c.OnUserLeft(s.onPresence)
	c.OnElementAdded(func(msg model.ElementAddMessage) {
		if !msg.Element.Type.IsKnown() {
			// Kept as is, only the renderer skips it
			log.Printf("Session (%s): element %s has unknown type %q", msg.SessionId, msg.Element.Id, msg.Element.Type)
		}
		s.applyRemote(msg.Header, canvas.AddElement{Element: msg.Element})
	})
	c.OnElementUpdated(func(msg model.ElementUpdateMessage) {
		s.applyRemote(msg.Header, canvas.UpdateElement{Id: msg.ElementId, Changes: msg.Updates})
	})
	c.OnElementDeleted(func(msg model.ElementDeleteMessage) {
		s.applyRemote(msg.Header, canvas.DeleteElement{Id: msg.ElementId})
	})
	c.OnBackgroundChanged(func(msg model.BackgroundChangeMessage) {
		s.applyRemote(msg.Header, canvas.SetBackground{Background: msg.CanvasBackground})
	})
	c.OnCanvasResized(func(msg model.ResizeMessage) {
		if msg.Width <= 0 || msg.Height <= 0 {
			log.Printf("Session (%s): resize %dx%d from %s ignored", msg.SessionId, msg.Width, msg.Height, msg.ClientId)
			monitor.MessageIgnored()
			return
		}
		s.applyRemote(msg.Header, canvas.SetDimensions{Width: msg.Width, Height: msg.Height})
	})
	c.OnDesignNameChanged(func(msg model.NameChangeMessage) {
		if !s.accept(msg.Header) {
			return
		}
		s.editor.SetDesignName(msg.Name)
		monitor.MessageReceived(0)
	})
	c.OnDesignUpdate(func(msg model.FullUpdateMessage) {
		s.applyRemote(msg.Header, s.fullUpdateActions(msg.Changes)...)
	})
}

// bindLifecycle follows the channel link state once the session is open.
func (s *Session) bindLifecycle() {
	s.channel.OnConnect(func() {
		s.Lock()
		defer s.Unlock()

		if s.state != DegradedState {
			return
		}
		// No replay: peers resync with the next full update
		s.channel.Join(s.sessionId, s.clientId)
		s.state = JoinedState
		log.Printf("%s: reconnected", s.String())
	})
	s.channel.OnDisconnect(func() {
		s.Lock()
		defer s.Unlock()

		if s.state != JoinedState {
			return
		}
		s.state = DegradedState
		log.Printf("%s: connection lost, editing locally", s.String())
	})
}

// accept checks that an inbound message belongs to the open session and is not a self echo.
func (s *Session) accept(h model.Header) bool {
	sessionId, clientId := s.editor.Session()
	if sessionId == "" || h.SessionId != sessionId || (h.ClientId != "" && h.ClientId == clientId) {
		monitor.MessageIgnored()
		return false
	}

	return true
}

func (s *Session) applyRemote(h model.Header, actions ...canvas.Action) {
	if !s.accept(h) {
		return
	}

	start := time.Now()
	s.editor.ApplyRemote(actions...)
	monitor.MessageReceived(time.Since(start))
}

func (s *Session) onPresence(msg model.PresenceMessage) {
	sessionId, _ := s.editor.Session()
	if sessionId == "" || msg.SessionId != sessionId {
		monitor.MessageIgnored()
		return
	}

	s.editor.SetActiveUsers(msg.ActiveUsers)
}

// fullUpdateActions converts the present full update fields into canvas actions.
// A missing dimension keeps the current one.
func (s *Session) fullUpdateActions(u model.FullUpdate) []canvas.Action {
	actions := make([]canvas.Action, 0, 3)
	if u.Elements != nil {
		actions = append(actions, canvas.ReorderElements{Elements: u.Elements})
	}
	if u.CanvasBackground != "" {
		actions = append(actions, canvas.SetBackground{Background: u.CanvasBackground})
	}
	if u.Width > 0 || u.Height > 0 {
		snapshot := s.editor.Canvas().Snapshot()
		width, height := snapshot.CanvasWidth, snapshot.CanvasHeight
		if u.Width > 0 {
			width = u.Width
		}
		if u.Height > 0 {
			height = u.Height
		}
		actions = append(actions, canvas.SetDimensions{Width: width, Height: height})
	}

	return actions
}

// NewSession creates a new Session object.
func NewSession(api DesignsApi, channel *Channel, endpoint string, historyLimit, pollCount int, pollDur time.Duration) (*Session, error) {
	if api == nil {
		return nil, fmt.Errorf("%s: nil", "api")
	}
	if channel == nil {
		return nil, fmt.Errorf("%s: nil", "channel")
	}
	if pollCount < 0 {
		return nil, fmt.Errorf("%s: must be GTE 0", "pollCount")
	}
	if pollDur <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "pollDur")
	}

	ed, err := editor.NewEditor(channel, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("editor.NewEditor: %w", err)
	}

	s := &Session{
		endpoint:  endpoint,
		pollCount: pollCount,
		pollDur:   pollDur,
		api:       api,
		channel:   channel,
		editor:    ed,
		state:     DisconnectedState,
	}
	s.bindLifecycle()

	return s, nil
}

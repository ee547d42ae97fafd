package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-canvas/canvas"
	"github.com/itiky/collaborate-canvas/model"
)

// openDegraded opens a session whose channel can't connect.
func openDegraded(t *testing.T, api *apiMock, designId string) *Session {
	s, err := NewSession(api, newTestChannel(t), unreachableEndpoint, 50, 2, 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background(), designId))

	return s
}

func Test_Session_OpenErrors(t *testing.T) {
	api := newApiMock()
	s := newTestSession(t, api, unreachableEndpoint)

	require.Error(t, s.Open(context.Background(), ""))
	require.Error(t, s.Open(context.Background(), "unknown"))
	require.Equal(t, DisconnectedState, s.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api.designs["d1"] = newTestDesign("d1")
	require.ErrorIs(t, s.Open(ctx, "d1"), context.Canceled)
	require.Equal(t, DisconnectedState, s.State())
}

func Test_Session_DegradedLocalEditing(t *testing.T) {
	api := newApiMock(newTestDesign("d1", newRect("e1")))
	s := openDegraded(t, api, "d1")
	require.Equal(t, DegradedState, s.State())

	ed := s.Editor()
	require.Equal(t, 800, ed.Canvas().Snapshot().CanvasWidth)
	require.Len(t, ed.Canvas().Elements(), 1)
	require.False(t, ed.History().CanUndo())
	require.False(t, ed.Dirty())

	// Editing and history keep working offline
	ed.Dispatch(canvas.DeleteElement{Id: "e1"})
	require.Empty(t, ed.Canvas().Elements())
	require.True(t, ed.Dirty())
	require.True(t, ed.Undo())
	require.Len(t, ed.Canvas().Elements(), 1)

	s.Close()
	require.Equal(t, DisconnectedState, s.State())
	sessionId, clientId := s.Ids()
	require.Empty(t, sessionId)
	require.Empty(t, clientId)
	require.Empty(t, ed.Canvas().Elements())
}

func Test_Session_InboundFilter(t *testing.T) {
	api := newApiMock(newTestDesign("d1", newRect("e1")))
	s := openDegraded(t, api, "d1")
	ed := s.Editor()
	sessionId, clientId := s.Ids()
	require.Equal(t, model.SessionId("d1"), sessionId)
	require.NotEmpty(t, clientId)

	peer := model.Header{SessionId: sessionId, ClientId: "peer"}

	// Self echo is ignored
	inject(t, s.channel, model.ElementAddedEvent, model.ElementAddMessage{
		Header:  model.Header{SessionId: sessionId, ClientId: clientId},
		Element: newRect("self"),
	})
	_, found := ed.Canvas().Element("self")
	require.False(t, found)

	// Stale session is ignored
	inject(t, s.channel, model.ElementDeletedEvent, model.ElementDeleteMessage{
		Header:    model.Header{SessionId: "d0", ClientId: "peer"},
		ElementId: "e1",
	})
	_, found = ed.Canvas().Element("e1")
	require.True(t, found)

	// Peer changes are applied without being captured
	inject(t, s.channel, model.ElementAddedEvent, model.ElementAddMessage{Header: peer, Element: newRect("r2")})
	inject(t, s.channel, model.ElementUpdatedEvent, model.ElementUpdateMessage{
		Header:    peer,
		ElementId: "r2",
		Updates:   model.ElementPatch{X: model.Float(300)},
	})
	inject(t, s.channel, model.BackgroundChangedEvent, model.BackgroundChangeMessage{Header: peer, CanvasBackground: "#000000"})
	inject(t, s.channel, model.ResizedEvent, model.ResizeMessage{Header: peer, Width: 1920, Height: 1080})
	inject(t, s.channel, model.NameChangedEvent, model.NameChangeMessage{Header: peer, Name: "Renamed"})
	inject(t, s.channel, model.UserJoinedEvent, model.PresenceMessage{SessionId: sessionId, ActiveUsers: 3})
	inject(t, s.channel, model.UserLeftEvent, model.PresenceMessage{SessionId: "d0", ActiveUsers: 7})

	r2, found := ed.Canvas().Element("r2")
	require.True(t, found)
	require.Equal(t, 300.0, r2.X)

	snapshot := ed.Canvas().Snapshot()
	require.Equal(t, "#000000", snapshot.CanvasBackground)
	require.Equal(t, 1920, snapshot.CanvasWidth)
	require.Equal(t, 1080, snapshot.CanvasHeight)
	require.Equal(t, "Renamed", ed.Design().Name)
	require.Equal(t, 3, ed.ActiveUsers())

	require.False(t, ed.History().CanUndo())
	require.False(t, ed.Dirty())
	require.False(t, ed.Guard().Active())
}

func Test_Session_InboundFullUpdate(t *testing.T) {
	api := newApiMock(newTestDesign("d1", newRect("e1")))
	s := openDegraded(t, api, "d1")
	ed := s.Editor()
	peer := model.Header{SessionId: "d1", ClientId: "peer"}

	// Absent fields are left untouched
	inject(t, s.channel, model.UpdateReceivedEvent, model.FullUpdateMessage{
		Header:  peer,
		Changes: model.FullUpdate{CanvasBackground: "#fef3c7", Width: 1200},
	})
	snapshot := ed.Canvas().Snapshot()
	require.Len(t, snapshot.Elements, 1)
	require.Equal(t, "#fef3c7", snapshot.CanvasBackground)
	require.Equal(t, 1200, snapshot.CanvasWidth)
	require.Equal(t, 600, snapshot.CanvasHeight)

	// Elements replace the list
	inject(t, s.channel, model.UpdateReceivedEvent, model.FullUpdateMessage{
		Header:  peer,
		Changes: model.FullUpdate{Elements: []model.Element{newRect("x1"), newRect("x2")}},
	})
	snapshot = ed.Canvas().Snapshot()
	require.Len(t, snapshot.Elements, 2)
	require.Equal(t, "x1", snapshot.Elements[0].Id)
	require.Equal(t, "#fef3c7", snapshot.CanvasBackground)

	// Empty list clears the canvas
	inject(t, s.channel, model.UpdateReceivedEvent, model.FullUpdateMessage{
		Header:  peer,
		Changes: model.FullUpdate{Elements: []model.Element{}},
	})
	require.Empty(t, ed.Canvas().Elements())
	require.False(t, ed.History().CanUndo())
}

func Test_Session_InboundInvalidResize(t *testing.T) {
	api := newApiMock(newTestDesign("d1", newRect("e1")))
	s := openDegraded(t, api, "d1")
	ed := s.Editor()
	peer := model.Header{SessionId: "d1", ClientId: "peer"}

	for _, size := range [][2]int{{0, 0}, {0, 600}, {800, -1}} {
		inject(t, s.channel, model.ResizedEvent, model.ResizeMessage{Header: peer, Width: size[0], Height: size[1]})
	}
	snapshot := ed.Canvas().Snapshot()
	require.Equal(t, 800, snapshot.CanvasWidth)
	require.Equal(t, 600, snapshot.CanvasHeight)

	// The bot keeps editing the canvas, even an empty one
	c := &Client{opsSendMax: 5, channel: s.channel, session: s}
	require.NotPanics(t, func() {
		for i := 0; i < 20; i++ {
			c.sendUpdates()
		}
	})
	ed.Dispatch(canvas.SetDimensions{})
	require.NotPanics(t, func() {
		for i := 0; i < 20; i++ {
			c.sendUpdates()
		}
	})
}

func Test_Session_InboundUnknownElementType(t *testing.T) {
	api := newApiMock(newTestDesign("d1"))
	s := openDegraded(t, api, "d1")

	blob := newRect("b1")
	blob.Type = "blob"
	inject(t, s.channel, model.ElementAddedEvent, model.ElementAddMessage{
		Header:  model.Header{SessionId: "d1", ClientId: "peer"},
		Element: blob,
	})

	el, found := s.Editor().Canvas().Element("b1")
	require.True(t, found)
	require.Equal(t, model.ElementType("blob"), el.Type)
}

func Test_Session_ListenersRebind(t *testing.T) {
	api := newApiMock(newTestDesign("d1"), newTestDesign("d2"))
	s := openDegraded(t, api, "d1")

	for _, event := range model.InboundEvents {
		require.Equal(t, 1, s.channel.ListenersCount(event), event)
	}

	// Same session: listeners are kept
	s.Close()
	require.NoError(t, s.Open(context.Background(), "d1"))
	require.Equal(t, 1, s.channel.ListenersCount(model.ElementAddedEvent))

	// Switching designs closes the previous session and rebinds once
	require.NoError(t, s.Open(context.Background(), "d2"))
	sessionId, _ := s.Ids()
	require.Equal(t, model.SessionId("d2"), sessionId)
	for _, event := range model.InboundEvents {
		require.Equal(t, 1, s.channel.ListenersCount(event), event)
	}
	require.Equal(t, 1, s.channel.ListenersCount(model.ConnectEvent))
}

func Test_Session_SaveAndRename(t *testing.T) {
	api := newApiMock(newTestDesign("d1", newRect("e1")))
	s := openDegraded(t, api, "d1")
	ed := s.Editor()

	ed.Dispatch(canvas.AddElement{Element: newRect("r2")})
	require.True(t, ed.Dirty())

	// Persistence failure leaves the editor untouched
	api.Lock()
	api.err = errors.New("boom")
	api.Unlock()
	require.Error(t, s.Save(context.Background()))
	require.True(t, ed.Dirty())
	require.Len(t, ed.Canvas().Elements(), 2)
	require.Error(t, s.Rename(context.Background(), "Poster"))
	require.Equal(t, "Design d1", ed.Design().Name)

	api.Lock()
	api.err = nil
	api.Unlock()
	require.NoError(t, s.Save(context.Background()))
	require.False(t, ed.Dirty())
	require.True(t, ed.History().CanUndo())

	updates := api.Updates()
	require.Len(t, updates, 1)
	require.Len(t, updates[0].Elements, 2)
	require.Equal(t, 800, *updates[0].Width)
	require.Equal(t, "Design d1", *updates[0].Name)

	require.Error(t, s.Rename(context.Background(), ""))
	require.NoError(t, s.Rename(context.Background(), "Poster"))
	require.Equal(t, "Poster", ed.Design().Name)
	require.Equal(t, "Poster", *api.Updates()[1].Name)
	require.Nil(t, api.Updates()[1].Elements)

	s.Close()
	require.Error(t, s.Save(context.Background()))
}

func Test_Session_CollaborativeScenario(t *testing.T) {
	ts := newTestRelay(t)

	api, err := NewDesignsClient(ts.URL, 5*time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	design, err := api.Create(ctx, model.DesignCreate{Name: "Shared", Elements: []model.Element{newRect("e1")}})
	require.NoError(t, err)

	a, b := newTestSession(t, api, ts.URL), newTestSession(t, api, ts.URL)
	require.NoError(t, a.Open(ctx, design.Id))
	require.NoError(t, b.Open(ctx, design.Id))
	t.Cleanup(a.Close)
	t.Cleanup(b.Close)
	require.Equal(t, JoinedState, a.State())
	require.Equal(t, JoinedState, b.State())

	_, clientA := a.Ids()
	_, clientB := b.Ids()
	require.NotEqual(t, clientA, clientB)

	edA, edB := a.Editor(), b.Editor()
	require.Eventually(t, func() bool {
		return edA.ActiveUsers() == 2 && edB.ActiveUsers() == 2
	}, 3*time.Second, 10*time.Millisecond)

	hasElement := func(s *Session, id string) bool {
		_, found := s.Editor().Canvas().Element(id)
		return found
	}

	// Anything B re-emits would be relayed back to A
	var reEmits atomic.Int32
	a.channel.OnElementDeleted(func(model.ElementDeleteMessage) {
		reEmits.Add(1)
	})

	// A deletes: B follows without recording history and without re-emitting
	edA.Dispatch(canvas.DeleteElement{Id: "e1"})
	require.False(t, hasElement(a, "e1"))
	require.Eventually(t, func() bool {
		return !hasElement(b, "e1")
	}, 3*time.Second, 10*time.Millisecond)
	require.True(t, edA.History().CanUndo())
	require.False(t, edB.History().CanUndo())
	require.False(t, edB.Dirty())
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, reEmits.Load())

	// A undoes: B gets the full update
	require.True(t, edA.Undo())
	require.Eventually(t, func() bool {
		return hasElement(b, "e1")
	}, 3*time.Second, 10*time.Millisecond)
	require.False(t, edB.History().CanUndo())

	// B moves the element: A follows, B is recorded
	edB.Dispatch(canvas.UpdateElement{Id: "e1", Changes: model.ElementPatch{X: model.Float(500)}})
	require.Eventually(t, func() bool {
		el, found := edA.Canvas().Element("e1")
		return found && el.X == 500
	}, 3*time.Second, 10*time.Millisecond)
	require.True(t, edB.History().CanUndo())

	// A saves: stored and broadcast
	require.NoError(t, a.Save(ctx))
	stored, err := api.Get(ctx, design.Id)
	require.NoError(t, err)
	require.Len(t, stored.Elements, 1)
	require.Equal(t, 500.0, stored.Elements[0].X)

	// A renames: B follows
	require.NoError(t, a.Rename(ctx, "Poster"))
	require.Eventually(t, func() bool {
		return edB.Design().Name == "Poster"
	}, 3*time.Second, 10*time.Millisecond)

	// B leaves
	b.Close()
	require.Eventually(t, func() bool {
		return edA.ActiveUsers() == 1
	}, 3*time.Second, 10*time.Millisecond)
}

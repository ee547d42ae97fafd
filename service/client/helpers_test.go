package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-canvas/config"
	"github.com/itiky/collaborate-canvas/model"
	"github.com/itiky/collaborate-canvas/service/server"
	"github.com/itiky/collaborate-canvas/storage"
)

// unreachableEndpoint refuses connections.
const unreachableEndpoint = "127.0.0.1:1"

// newTestRelay serves the relay and the designs API with httptest.
// users are stored as mentionable users.
func newTestRelay(t *testing.T, users ...string) *httptest.Server {
	cfg := config.Default().Server
	cfg.DBPath = filepath.Join(t.TempDir(), "designs.sqlite3")

	if len(users) > 0 {
		store, err := storage.Open(cfg.DBPath)
		require.NoError(t, err)
		for _, name := range users {
			_, err := store.CreateUser(context.Background(), model.User{Name: name})
			require.NoError(t, err)
		}
		require.NoError(t, store.Close())
	}

	srv, err := server.NewServer(cfg)
	require.NoError(t, err)
	srv.StartRelay()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})

	return ts
}

func newTestChannel(t *testing.T) *Channel {
	c, err := NewChannel(3, 10*time.Millisecond, 50*time.Millisecond, 64)
	require.NoError(t, err)
	t.Cleanup(c.Disconnect)

	return c
}

func newTestSession(t *testing.T, api DesignsApi, endpoint string) *Session {
	s, err := NewSession(api, newTestChannel(t), endpoint, 50, 50, 20*time.Millisecond)
	require.NoError(t, err)

	return s
}

// apiMock is an in-memory DesignsApi.
type apiMock struct {
	sync.Mutex
	designs map[string]model.Design
	updates []model.DesignUpdate
	err     error
}

func (m *apiMock) Get(_ context.Context, id string) (model.Design, error) {
	m.Lock()
	defer m.Unlock()

	d, ok := m.designs[id]
	if !ok {
		return model.Design{}, fmt.Errorf("design %s: not found", id)
	}

	return d, nil
}

func (m *apiMock) Update(_ context.Context, id string, upd model.DesignUpdate) (model.Design, error) {
	m.Lock()
	defer m.Unlock()

	if m.err != nil {
		return model.Design{}, m.err
	}
	m.updates = append(m.updates, upd)

	return m.designs[id], nil
}

func (m *apiMock) Updates() []model.DesignUpdate {
	m.Lock()
	defer m.Unlock()

	return append([]model.DesignUpdate(nil), m.updates...)
}

func newApiMock(designs ...model.Design) *apiMock {
	m := &apiMock{designs: make(map[string]model.Design)}
	for _, d := range designs {
		m.designs[d.Id] = d
	}

	return m
}

func newRect(id string) model.Element {
	return model.Element{
		Id:     id,
		Type:   model.RectangleElementType,
		X:      10,
		Y:      20,
		Fill:   "#3b82f6",
		Width:  model.Float(100),
		Height: model.Float(50),
	}
}

func newTestDesign(id string, elements ...model.Element) model.Design {
	return model.Design{
		Id:               id,
		Name:             "Design " + id,
		Width:            800,
		Height:           600,
		CanvasBackground: "#ffffff",
		Elements:         elements,
	}
}

// inject dispatches an inbound envelope as if it was received from the relay.
func inject(t *testing.T, c *Channel, event model.EventName, payload interface{}) {
	env, err := model.NewEnvelope(event, payload)
	require.NoError(t, err)
	c.dispatch(env)
}

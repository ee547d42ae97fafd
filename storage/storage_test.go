package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-canvas/model"
)

func newTestStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "designs.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

// Test creates, reads, updates and deletes a design.
func Test_Store_DesignCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// create with defaults
	created, err := s.CreateDesign(ctx, model.DesignCreate{Name: "Poster"})
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)
	require.Equal(t, model.DefaultCanvasWidth, created.Width)
	require.Equal(t, model.DefaultCanvasHeight, created.Height)
	require.Equal(t, model.DefaultCanvasBackground, created.CanvasBackground)
	require.NotNil(t, created.Elements)
	require.Empty(t, created.Elements)
	require.False(t, created.CreatedAt.IsZero())

	// get
	got, err := s.GetDesign(ctx, created.Id)
	require.NoError(t, err)
	require.Equal(t, created, got)

	// partial update keeps untouched fields
	el := NewMockElement(1080, 1080)
	updated, err := s.UpdateDesign(ctx, created.Id, model.DesignUpdate{
		Elements:         []model.Element{el},
		CanvasBackground: model.Str("#000000"),
	})
	require.NoError(t, err)
	require.Equal(t, "Poster", updated.Name)
	require.Equal(t, "#000000", updated.CanvasBackground)
	require.Equal(t, []model.Element{el}, updated.Elements)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	name := "Renamed"
	updated, err = s.UpdateDesign(ctx, created.Id, model.DesignUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Len(t, updated.Elements, 1)

	// list
	_, err = s.CreateDesign(ctx, NewMockDesign("Another", 3))
	require.NoError(t, err)
	list, err := s.ListDesigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// delete
	deleted, err := s.DeleteDesign(ctx, created.Id)
	require.NoError(t, err)
	require.Equal(t, "Renamed", deleted.Name)

	_, err = s.GetDesign(ctx, created.Id)
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = s.UpdateDesign(ctx, created.Id, model.DesignUpdate{Name: &name})
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = s.DeleteDesign(ctx, created.Id)
	require.True(t, errors.Is(err, ErrNotFound))
}

func Test_Store_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateDesign(ctx, model.DesignCreate{})
	require.Error(t, err)

	created, err := s.CreateDesign(ctx, model.DesignCreate{Name: "Poster"})
	require.NoError(t, err)

	_, err = s.UpdateDesign(ctx, created.Id, model.DesignUpdate{Width: model.Int(0)})
	require.Error(t, err)

	_, err = Open("")
	require.Error(t, err)
}

func Test_Store_SearchUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"} {
		_, err := s.CreateUser(ctx, model.User{Name: name})
		require.NoError(t, err)
	}
	_, err := s.CreateUser(ctx, model.User{Name: "Ken", Email: "ken@unix.org"})
	require.NoError(t, err)

	users, err := s.SearchUsers(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "Ada Lovelace", users[0].Name)

	users, err = s.SearchUsers(ctx, "TURING", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)

	users, err = s.SearchUsers(ctx, "unix", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Ken", users[0].Name)

	users, err = s.SearchUsers(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = s.SearchUsers(ctx, "a", 0)
	require.Error(t, err)
	_, err = s.CreateUser(ctx, model.User{})
	require.Error(t, err)
}

func Test_GenAndSaveDesigns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mock.sqlite3")

	require.NoError(t, GenAndSaveDesigns(ctx, path, 3, 5))
	require.Error(t, GenAndSaveDesigns(ctx, path, 0, 5))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.ListDesigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, d := range list {
		require.Len(t, d.Elements, 5)
		for _, el := range d.Elements {
			require.True(t, el.Type.IsKnown())
		}

		comments, err := s.ListComments(ctx, d.Id, 1, 10)
		require.NoError(t, err)
		require.Equal(t, 1, comments.Total)
		require.Len(t, comments.Comments[0].Mentions, 1)
	}
}

func Test_NewMockElement_EmptyCanvas(t *testing.T) {
	require.NotPanics(t, func() {
		el := NewMockElement(0, 0)
		require.Zero(t, el.X)
		require.Zero(t, el.Y)
	})

	el := NewMockElement(10, 20)
	require.Less(t, el.X, 10.0)
	require.Less(t, el.Y, 20.0)
}

func Benchmark_Store_UpdateDesign(b *testing.B) {
	ctx := context.Background()
	s, err := Open(filepath.Join(b.TempDir(), "bench.sqlite3"))
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	d, err := s.CreateDesign(ctx, NewMockDesign("Bench", 100))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		if _, err := s.UpdateDesign(ctx, d.Id, model.DesignUpdate{Elements: d.Elements}); err != nil {
			b.Fatal(err)
		}
	}
}

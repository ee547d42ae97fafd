package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-canvas/model"
)

func Test_MentionQuery(t *testing.T) {
	for text, query := range map[string]string{
		"":                 "",
		"no mention":       "",
		"hi @":             "",
		"hi @gr":           "gr",
		"@Grace Hopper ok": "",
		"a@b c @al":        "al",
	} {
		require.Equal(t, query, mentionQuery(text), "%q", text)
	}
}

func Test_CommentComposer(t *testing.T) {
	ts := newTestRelay(t, "Ada Lovelace", "Alan Turing", "Grace Hopper")
	ctx := context.Background()

	api, err := NewDesignsClient(ts.URL, 5*time.Second)
	require.NoError(t, err)
	design, err := api.Create(ctx, model.DesignCreate{Name: "Poster"})
	require.NoError(t, err)
	authors, err := api.SearchUsers(ctx, "ada", 1)
	require.NoError(t, err)
	require.Len(t, authors, 1)

	var lock sync.Mutex
	var suggestions []model.User
	onSuggestions := func(_ string, users []model.User) {
		lock.Lock()
		defer lock.Unlock()
		suggestions = users
	}

	_, err = NewCommentComposer(nil, design.Id, authors[0].Id, DefaultDebounceDelay, 5, onSuggestions)
	require.Error(t, err)
	_, err = NewCommentComposer(api, design.Id, "", DefaultDebounceDelay, 5, onSuggestions)
	require.Error(t, err)

	c, err := NewCommentComposer(api, design.Id, authors[0].Id, 20*time.Millisecond, 5, onSuggestions)
	require.NoError(t, err)
	t.Cleanup(c.Stop)

	// Typing a mention searches the users
	for _, text := range []string{"Please check @", "Please check @g", "Please check @gr"} {
		c.SetText(text)
	}
	require.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(suggestions) == 1
	}, 2*time.Second, 10*time.Millisecond)

	lock.Lock()
	grace := suggestions[0]
	lock.Unlock()
	require.Equal(t, "Grace Hopper", grace.Name)

	c.Pick(grace)
	c.Pick(grace)
	require.Equal(t, "Please check @Grace Hopper ", c.Text())
	require.Equal(t, []model.User{grace}, c.Mentions())

	// Submit posts the resolved mentions
	comment, err := c.Submit(ctx)
	require.NoError(t, err)
	require.Equal(t, "Please check @Grace Hopper", comment.Text)
	require.Equal(t, "Ada Lovelace", comment.Author.Name)
	require.Equal(t, []model.User{grace}, comment.Mentions)
	require.Empty(t, c.Text())
	require.Empty(t, c.Mentions())

	page, err := api.ListComments(ctx, design.Id, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, 1, page.TotalPages)
	require.Equal(t, comment.Id, page.Comments[0].Id)

	// Nothing to submit
	_, err = c.Submit(ctx)
	require.Error(t, err)

	deleted, err := api.DeleteComment(ctx, comment.Id)
	require.NoError(t, err)
	require.Equal(t, comment.Id, deleted.Id)
}

type commentsApiMock struct {
	searcherMock
	err error
}

func (m *commentsApiMock) CreateComment(_ context.Context, req model.CommentCreate) (model.Comment, error) {
	if m.err != nil {
		return model.Comment{}, m.err
	}

	return model.Comment{Id: "c1", DesignId: req.DesignId, Text: req.Text}, nil
}

func Test_CommentComposer_SubmitFailure(t *testing.T) {
	api := &commentsApiMock{err: errors.New("unavailable")}
	c, err := NewCommentComposer(api, "d1", "u1", 20*time.Millisecond, 5, func(string, []model.User) {})
	require.NoError(t, err)

	c.SetText("draft")
	c.Pick(model.User{Id: "u2", Name: "Alan Turing"})

	_, err = c.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, "draft@Alan Turing ", c.Text(), "kept for a retry")
	require.Len(t, c.Mentions(), 1)

	api.err = nil
	comment, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, "c1", comment.Id)
	require.Empty(t, c.Text())
}

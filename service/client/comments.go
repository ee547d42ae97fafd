package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/itiky/collaborate-canvas/model"
)

type (
	// CommentsApi is the persistence API used by CommentComposer.
	CommentsApi interface {
		UserSearcher
		CreateComment(ctx context.Context, req model.CommentCreate) (model.Comment, error)
	}

	// CommentComposer builds a design comment while it is typed.
	// A trailing "@query" word triggers a debounced user search, a picked user
	// replaces the query with its name and is attached as a mention.
	CommentComposer struct {
		sync.Mutex
		// Config
		designId string
		authorId string
		// Components
		api    CommentsApi
		search *MentionSearch
		// State
		text     string
		mentions []model.User
	}
)

// String implements the stringer interface.
func (c *CommentComposer) String() string {
	return fmt.Sprintf("CommentComposer (%s)", c.designId)
}

// SetText replaces the typed text and updates the mention search.
func (c *CommentComposer) SetText(text string) {
	c.Lock()
	c.text = text
	c.Unlock()

	c.search.Query(mentionQuery(text))
}

// Pick completes the typed mention with the user.
func (c *CommentComposer) Pick(u model.User) {
	c.Lock()
	if i := strings.LastIndex(c.text, "@"); i >= 0 {
		c.text = c.text[:i]
	}
	c.text += "@" + u.Name + " "

	picked := false
	for _, m := range c.mentions {
		if m.Id == u.Id {
			picked = true
			break
		}
	}
	if !picked {
		c.mentions = append(c.mentions, u)
	}
	c.Unlock()

	c.search.Stop()
}

// Text returns the typed text.
func (c *CommentComposer) Text() string {
	c.Lock()
	defer c.Unlock()

	return c.text
}

// Mentions returns the picked users.
func (c *CommentComposer) Mentions() []model.User {
	c.Lock()
	defer c.Unlock()

	return append([]model.User(nil), c.mentions...)
}

// Submit posts the comment and resets the composer.
// On failure the text and the mentions are kept for a retry.
func (c *CommentComposer) Submit(ctx context.Context) (model.Comment, error) {
	c.Lock()
	req := model.CommentCreate{
		DesignId: c.designId,
		AuthorId: c.authorId,
		Text:     strings.TrimSpace(c.text),
		Mentions: make([]string, 0, len(c.mentions)),
	}
	for _, m := range c.mentions {
		req.Mentions = append(req.Mentions, m.Id)
	}
	c.Unlock()

	if err := req.Validate(); err != nil {
		return model.Comment{}, err
	}
	c.search.Stop()

	comment, err := c.api.CreateComment(ctx, req)
	if err != nil {
		return model.Comment{}, fmt.Errorf("%s: %w", c.String(), err)
	}

	c.Lock()
	c.text, c.mentions = "", nil
	c.Unlock()

	return comment, nil
}

// Stop cancels the pending mention search.
func (c *CommentComposer) Stop() {
	c.search.Stop()
}

// mentionQuery returns the word typed after the last "@" ("" if there is none or it is complete).
func mentionQuery(text string) string {
	i := strings.LastIndex(text, "@")
	if i < 0 {
		return ""
	}

	query := text[i+1:]
	if strings.Contains(query, " ") {
		return ""
	}

	return query
}

// NewCommentComposer creates a new CommentComposer object.
// onSuggestions receives the users matching the typed mention.
func NewCommentComposer(api CommentsApi, designId, authorId string, delay time.Duration, limit int, onSuggestions func(query string, users []model.User)) (*CommentComposer, error) {
	if api == nil {
		return nil, fmt.Errorf("%s: nil", "api")
	}
	if designId == "" {
		return nil, fmt.Errorf("%s: empty", "designId")
	}
	if authorId == "" {
		return nil, fmt.Errorf("%s: empty", "authorId")
	}
	if onSuggestions == nil {
		return nil, fmt.Errorf("%s: nil", "onSuggestions")
	}

	search, err := NewMentionSearch(api, delay, limit, func(query string, users []model.User, err error) {
		if err != nil {
			return
		}
		onSuggestions(query, users)
	})
	if err != nil {
		return nil, fmt.Errorf("NewMentionSearch: %w", err)
	}

	return &CommentComposer{
		designId: designId,
		authorId: authorId,
		api:      api,
		search:   search,
	}, nil
}

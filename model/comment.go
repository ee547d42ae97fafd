package model

import (
	"fmt"
	"strings"
	"time"
)

// Comments paging defaults.
const (
	DefaultCommentsLimit = 20
	MaxCommentsLimit     = 100
)

type (
	// Comment is a design comment with its author and mentioned users resolved.
	Comment struct {
		Id        string    `json:"_id"`
		DesignId  string    `json:"designId"`
		Author    User      `json:"author"`
		Text      string    `json:"text"`
		Mentions  []User    `json:"mentions"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// CommentCreate is the comment creation request body.
	// Mentions are user IDs.
	CommentCreate struct {
		DesignId string   `json:"designId"`
		AuthorId string   `json:"authorId"`
		Text     string   `json:"text"`
		Mentions []string `json:"mentions"`
	}

	// CommentsPage is one page of design comments, the newest first.
	CommentsPage struct {
		Comments   []Comment
		Total      int
		Page       int
		TotalPages int
	}
)

// String implements the stringer interface.
func (c Comment) String() string {
	return fmt.Sprintf("Comment %s (design %s, by %s, %d mentions)", c.Id, c.DesignId, c.Author.Name, len(c.Mentions))
}

// Validate checks the creation request.
func (r CommentCreate) Validate() error {
	if r.DesignId == "" {
		return fmt.Errorf("%s: empty", "designId")
	}
	if r.AuthorId == "" {
		return fmt.Errorf("%s: empty", "authorId")
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%s: empty", "text")
	}
	for i, id := range r.Mentions {
		if id == "" {
			return fmt.Errorf("mentions [%d]: empty", i)
		}
	}

	return nil
}

// TotalPagesCount returns the number of pages of limit size holding total items.
func TotalPagesCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}

	return (total + limit - 1) / limit
}

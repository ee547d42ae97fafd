package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/itiky/collaborate-canvas/model"
)

const commentColumns = `id, design_id, author_id, text, mentions, created_at, updated_at`

// commentRow is a stored comment with unresolved user references.
type commentRow struct {
	model.Comment
	authorId   string
	mentionIds []string
}

// CreateComment stores a new design comment.
// The design, the author and every mentioned user must exist, duplicate mentions are merged.
func (s *Store) CreateComment(ctx context.Context, req model.CommentCreate) (model.Comment, error) {
	if err := req.Validate(); err != nil {
		return model.Comment{}, fmt.Errorf("request: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Comment{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := getDesign(ctx, tx, req.DesignId); err != nil {
		return model.Comment{}, err
	}

	author, err := getUser(ctx, tx, req.AuthorId)
	if err != nil {
		return model.Comment{}, fmt.Errorf("author: %w", err)
	}

	mentionIds := make([]string, 0, len(req.Mentions))
	mentions := make([]model.User, 0, len(req.Mentions))
	seen := make(map[string]bool, len(req.Mentions))
	for _, id := range req.Mentions {
		if seen[id] {
			continue
		}
		seen[id] = true

		u, err := getUser(ctx, tx, id)
		if err != nil {
			return model.Comment{}, fmt.Errorf("mention: %w", err)
		}
		mentionIds = append(mentionIds, id)
		mentions = append(mentions, u)
	}

	mentionsRaw, err := json.Marshal(mentionIds)
	if err != nil {
		return model.Comment{}, fmt.Errorf("mentions marshal: %w", err)
	}

	now := time.UnixMilli(time.Now().UnixMilli()).UTC()
	c := model.Comment{
		Id:        uuid.New().String(),
		DesignId:  req.DesignId,
		Author:    author,
		Text:      req.Text,
		Mentions:  mentions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Id, c.DesignId, author.Id, c.Text, string(mentionsRaw), c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli(),
	); err != nil {
		return model.Comment{}, fmt.Errorf("insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Comment{}, fmt.Errorf("commit: %w", err)
	}

	return c, nil
}

// ListComments returns a page (starting from 1) of the design comments, the newest first.
func (s *Store) ListComments(ctx context.Context, designId string, page, limit int) (model.CommentsPage, error) {
	if designId == "" {
		return model.CommentsPage{}, fmt.Errorf("%s: empty", "designId")
	}
	if page <= 0 {
		return model.CommentsPage{}, fmt.Errorf("%s: must be GT 0", "page")
	}
	if limit <= 0 {
		return model.CommentsPage{}, fmt.Errorf("%s: must be GT 0", "limit")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM comments WHERE design_id = ?`, designId).Scan(&total); err != nil {
		return model.CommentsPage{}, fmt.Errorf("count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE design_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		designId, limit, (page-1)*limit,
	)
	if err != nil {
		return model.CommentsPage{}, fmt.Errorf("query: %w", err)
	}

	list := make([]commentRow, 0, limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			rows.Close()
			return model.CommentsPage{}, err
		}
		list = append(list, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.CommentsPage{}, fmt.Errorf("rows: %w", err)
	}

	res := model.CommentsPage{
		Comments:   make([]model.Comment, 0, len(list)),
		Total:      total,
		Page:       page,
		TotalPages: model.TotalPagesCount(total, limit),
	}
	users := make(map[string]model.User)
	for _, c := range list {
		if err := s.resolveUsers(ctx, &c, users); err != nil {
			return model.CommentsPage{}, err
		}
		res.Comments = append(res.Comments, c.Comment)
	}

	return res, nil
}

// DeleteComment removes a comment and returns the removed record.
func (s *Store) DeleteComment(ctx context.Context, id string) (model.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Comment{}, err
	}
	if err := s.resolveUsers(ctx, &c, make(map[string]model.User)); err != nil {
		return model.Comment{}, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return model.Comment{}, fmt.Errorf("delete: %w", err)
	}

	return c.Comment, nil
}

// resolveUsers fills the comment author and mentions, users lookups are cached in users.
// A user which doesn't exist anymore is reported by id only.
func (s *Store) resolveUsers(ctx context.Context, c *commentRow, users map[string]model.User) error {
	lookup := func(id string) (model.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}

		u, err := getUser(ctx, s.db, id)
		if errors.Is(err, ErrNotFound) {
			u, err = model.User{Id: id}, nil
		}
		if err != nil {
			return model.User{}, err
		}
		users[id] = u

		return u, nil
	}

	author, err := lookup(c.authorId)
	if err != nil {
		return err
	}
	c.Author = author

	c.Mentions = make([]model.User, 0, len(c.mentionIds))
	for _, id := range c.mentionIds {
		u, err := lookup(id)
		if err != nil {
			return err
		}
		c.Mentions = append(c.Mentions, u)
	}

	return nil
}

func scanComment(row rowScanner) (commentRow, error) {
	var (
		c                    commentRow
		mentionsRaw          string
		createdAt, updatedAt int64
	)

	if err := row.Scan(&c.Id, &c.DesignId, &c.authorId, &c.Text, &mentionsRaw, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return commentRow{}, err
		}
		return commentRow{}, fmt.Errorf("scan: %w", err)
	}

	if err := json.Unmarshal([]byte(mentionsRaw), &c.mentionIds); err != nil {
		return commentRow{}, fmt.Errorf("comment %s: mentions unmarshal: %w", c.Id, err)
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return c, nil
}
